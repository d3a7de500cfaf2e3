package repository

import (
	"testing"
	"time"

	"go-clinic-agenda/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func clinicOwner() entity.Owner {
	clinicID := uuid.New()
	return entity.Owner{ClinicID: &clinicID, UserID: uuid.New()}
}

func TestAppointmentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAppointmentRepository()

	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE .*clinic_id = \$\d+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	appointment, err := repo.FindByID(db, clinicOwner(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, appointment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryIndividualOwnerScope(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAppointmentRepository()
	owner := entity.Owner{UserID: uuid.New()}
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "user_id", "start_time", "end_time", "status", "price"}).
		AddRow(id.String(), owner.UserID.String(), "09:00:00", "09:30:00", "scheduled", "120.50")
	mock.ExpectQuery(`FROM "appointments" WHERE .*user_id = \$\d+ AND clinic_id IS NULL`).
		WillReturnRows(rows)

	appointment, err := repo.FindByID(db, owner, id)
	require.NoError(t, err)
	require.NotNil(t, appointment)
	assert.Equal(t, id, appointment.ID)
	assert.Equal(t, "09:00", appointment.StartTime.String())
	assert.Equal(t, 30, appointment.DurationMinutes())
	assert.Equal(t, "120.5", appointment.Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryFindAllPaginates(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAppointmentRepository()
	professionalID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "appointments" WHERE .*professional_id = \$\d+`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE .* ORDER BY appointment_date ASC, start_time ASC LIMIT \$\d+ OFFSET \$\d+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(uuid.New().String(), "scheduled").
			AddRow(uuid.New().String(), "confirmed"))

	appointments, total, err := repo.FindAll(db, clinicOwner(), &entity.AppointmentFilter{
		ProfessionalID: &professionalID,
		Limit:          2,
		Offset:         2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, appointments, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryTransitionStatusGuardsSource(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAppointmentRepository()

	mock.ExpectExec(`UPDATE "appointments" SET .*id = \$\d+ AND status IN \(\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.TransitionStatus(db, clinicOwner(), uuid.New(), entity.AppointmentStatusCancelled, map[string]interface{}{
		"cancellation_reason": "patient request",
	})
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryFindByIDForUpdateLocksRow(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAppointmentRepository()
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE .*id = \$\d+.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(id.String(), "cancelled"))

	appointment, err := repo.FindByIDForUpdate(db, clinicOwner(), id)
	require.NoError(t, err)
	require.NotNil(t, appointment)
	assert.Equal(t, entity.AppointmentStatusCancelled, appointment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateDetailsWritesOnlyEditedColumns(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAppointmentRepository()
	owner := clinicOwner()
	appointment := &entity.Appointment{
		ID:        uuid.New(),
		Owner:     owner,
		StartTime: entity.MustParseTimeOfDay("09:00"),
		EndTime:   entity.MustParseTimeOfDay("09:30"),
		Status:    entity.AppointmentStatusScheduled,
		Notes:     "bring exams",
	}

	mock.ExpectExec(`UPDATE "appointments" SET (?:"(?:patient_id|professional_id|appointment_date|start_time|end_time|appointment_type|notes|price|updated_at)"=\$\d+,?)+ WHERE .*status IN \(\$\d+,\$\d+,\$\d+\).*"id" = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.UpdateDetails(db, owner, appointment, entity.EditableAppointmentStatuses)
	require.NoError(t, err)
	assert.Zero(t, affected, "a cancelled row is left alone")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCountByStatus(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAppointmentRepository()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM "appointments" WHERE .*appointment_date >= \$\d+ AND appointment_date <= \$\d+.*GROUP BY "?status"?`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("completed", 4).
			AddRow("no_show", 1))

	counts, err := repo.CountByStatus(db, clinicOwner(), from, to, nil)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, entity.AppointmentStatusCompleted, counts[0].Status)
	assert.EqualValues(t, 4, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositorySumRevenue(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAppointmentRepository()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(price\), 0\) FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("310.75"))

	total, err := repo.SumRevenue(db, clinicOwner(), day, day, nil)
	require.NoError(t, err)
	assert.Equal(t, "310.75", total.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderScheduleRepositoryFindActive(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewProviderScheduleRepository()
	providerID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "provider_id", "weekday", "start_time", "end_time", "break_start", "break_end", "slot_duration", "is_active"}).
		AddRow(uuid.New().String(), providerID.String(), 1, "08:00:00", "12:00:00", "10:00:00", "10:15:00", 30, true)
	mock.ExpectQuery(`SELECT \* FROM "provider_schedules" WHERE .*provider_id = \$\d+ AND weekday = \$\d+ AND is_active = \$\d+`).
		WillReturnRows(rows)

	schedule, err := repo.FindActiveByProviderAndWeekday(db, clinicOwner(), providerID, 1)
	require.NoError(t, err)
	require.NotNil(t, schedule)
	assert.True(t, schedule.HasBreak())
	assert.Equal(t, "10:15", schedule.BreakEnd.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleBlockRepositoryFindActiveByDate(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewScheduleBlockRepository()
	day := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "schedule_blocks" WHERE .*start_date <= \$\d+ AND end_date >= \$\d+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "all_day", "block_type"}).
			AddRow(uuid.New().String(), true, "holiday"))

	blocks, err := repo.FindActiveByProviderAndDate(db, clinicOwner(), uuid.New(), day)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].IsWholeDay())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitingListRepositoryOrdersByPriority(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewWaitingListRepository()
	status := entity.WaitingListStatusWaiting

	mock.ExpectQuery(`SELECT \* FROM "waiting_list" WHERE .*status = \$\d+ ORDER BY CASE priority WHEN 'urgent' THEN 0`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "priority", "preferred_weekdays"}).
			AddRow(uuid.New().String(), "urgent", []byte("[0,2]")).
			AddRow(uuid.New().String(), "low", nil))

	entries, err := repo.FindAll(db, clinicOwner(), &entity.WaitingListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].PreferredWeekdays.Contains(2))
	assert.False(t, entries[0].PreferredWeekdays.Contains(1))
	assert.True(t, entries[1].PreferredWeekdays.Contains(5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitingListRepositoryFindByIDForUpdateLocksRow(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewWaitingListRepository()

	mock.ExpectQuery(`SELECT \* FROM "waiting_list" WHERE .*clinic_id = \$\d+.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entry, err := repo.FindByIDForUpdate(db, clinicOwner(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepositoryFindAll(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewAuditLogRepository()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" .*ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "action", "metadata"}).
			AddRow(7, entity.AuditActionAppointmentCreate, []byte(`{"status":"scheduled"}`)))

	logs, total, err := repo.FindAll(db, clinicOwner(), 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "scheduled", logs[0].Metadata["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
