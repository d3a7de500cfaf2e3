package usecase

import (
	"testing"

	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/delivery/http/middleware"
	"go-clinic-agenda/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestCreateSchedule(t *testing.T) {
	db, mock := newTxDB(t)
	schedules, audit, cache := &fakeScheduleRepo{}, &fakeAudit{}, newFakeCache()
	uc := NewProviderScheduleUsecase(db, quietLogger(), schedules, &fakeBlockRepo{}, &fakeAppointmentRepo{}, audit, cache)
	ctx, owner := asPrincipal(middleware.RoleAdmin)
	providerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := uc.CreateSchedule(ctx, &dto.CreateScheduleRequest{
		ProviderID: providerID,
		Weekday:    intPtr(0),
		StartTime:  "08:00",
		EndTime:    "17:00",
		BreakStart: strPtr("12:00"),
		BreakEnd:   strPtr("13:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultSlotDuration, resp.SlotDuration)
	assert.True(t, resp.IsActive)
	assert.Equal(t, owner.ClinicID, resp.ClinicID)
	assert.Equal(t, []uuid.UUID{providerID}, cache.invalidated)

	// Same provider and weekday again.
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = uc.CreateSchedule(ctx, &dto.CreateScheduleRequest{ProviderID: providerID, Weekday: intPtr(0), StartTime: "13:00", EndTime: "18:00"})
	assert.ErrorIs(t, err, ErrScheduleExists)

	// Invariant failures are rejected before any transaction.
	_, err = uc.CreateSchedule(ctx, &dto.CreateScheduleRequest{ProviderID: providerID, Weekday: intPtr(1), StartTime: "08:00", EndTime: "12:00", BreakStart: strPtr("11:00")})
	assert.ErrorIs(t, err, entity.ErrScheduleBreakPair)
	_, err = uc.CreateSchedule(ctx, &dto.CreateScheduleRequest{ProviderID: providerID, Weekday: intPtr(1), StartTime: "08:00", EndTime: "12:00", BreakStart: strPtr("07:00"), BreakEnd: strPtr("09:00")})
	assert.ErrorIs(t, err, entity.ErrScheduleBreakWindow)
	_, err = uc.CreateSchedule(ctx, &dto.CreateScheduleRequest{ProviderID: providerID, Weekday: intPtr(1), StartTime: "08:00", EndTime: "12:00", SlotDuration: intPtr(2)})
	assert.ErrorIs(t, err, entity.ErrSlotDurationRange)

	assert.Equal(t, []string{entity.AuditActionScheduleCreate}, audit.actions)
}

func TestUpdateScheduleClearsBreakAndRejectsWeekdayClash(t *testing.T) {
	db, mock := newTxDB(t)
	schedules := &fakeScheduleRepo{}
	uc := NewProviderScheduleUsecase(db, quietLogger(), schedules, &fakeBlockRepo{}, &fakeAppointmentRepo{}, &fakeAudit{}, newFakeCache())
	ctx, owner := asPrincipal(middleware.RoleAdmin)
	providerID := uuid.New()

	mon := &entity.ProviderSchedule{
		Owner: owner, ProviderID: providerID, Weekday: 0,
		StartTime: tod("08:00"), EndTime: tod("17:00"),
		BreakStart: ptrTOD("12:00"), BreakEnd: ptrTOD("13:00"),
		SlotDuration: 30, IsActive: true,
	}
	require.NoError(t, schedules.Create(nil, mon))
	require.NoError(t, schedules.Create(nil, &entity.ProviderSchedule{
		Owner: owner, ProviderID: providerID, Weekday: 1,
		StartTime: tod("08:00"), EndTime: tod("12:00"), SlotDuration: 30, IsActive: true,
	}))

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := uc.UpdateSchedule(ctx, mon.ID, &dto.UpdateScheduleRequest{ClearBreak: true, SlotDuration: intPtr(20)})
	require.NoError(t, err)
	assert.Nil(t, resp.BreakStart)
	assert.Nil(t, resp.BreakEnd)
	assert.Equal(t, 20, resp.SlotDuration)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = uc.UpdateSchedule(ctx, mon.ID, &dto.UpdateScheduleRequest{Weekday: intPtr(1)})
	assert.ErrorIs(t, err, ErrScheduleExists)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = uc.UpdateSchedule(ctx, uuid.New(), &dto.UpdateScheduleRequest{IsActive: new(bool)})
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestGetProviderScheduleCombinesDay(t *testing.T) {
	db, _ := newTxDB(t)
	schedules, blocks, appointments := &fakeScheduleRepo{}, &fakeBlockRepo{}, &fakeAppointmentRepo{}
	uc := NewProviderScheduleUsecase(db, quietLogger(), schedules, blocks, appointments, &fakeAudit{}, newFakeCache())
	ctx, owner := asPrincipal(middleware.RoleProfessional)
	providerID := uuid.New()

	require.NoError(t, schedules.Create(nil, &entity.ProviderSchedule{
		Owner: owner, ProviderID: providerID, Weekday: 0,
		StartTime: tod("08:00"), EndTime: tod("10:00"), SlotDuration: 30, IsActive: true,
	}))
	appointments.add(scheduledAt(owner, providerID, uuid.New(), "2025-01-06", "08:30", "09:00", entity.AppointmentStatusScheduled))
	require.NoError(t, blocks.Create(nil, &entity.ScheduleBlock{
		Owner: owner, ProviderID: providerID,
		StartDate: mustDate("2025-01-06"), EndDate: mustDate("2025-01-06"),
		StartTime: ptrTOD("09:30"), EndTime: ptrTOD("10:00"),
		BlockType: entity.BlockTypePersonal, IsActive: true,
	}))

	resp, err := uc.GetProviderSchedule(ctx, providerID, "2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Weekday)
	require.NotNil(t, resp.DaySchedule)
	assert.Len(t, resp.Blocks, 1)
	assert.Len(t, resp.Appointments, 1)
	assert.Equal(t, []dto.SlotResponse{
		{StartTime: "08:00", EndTime: "08:30"},
		{StartTime: "09:00", EndTime: "09:30"},
	}, resp.AvailableSlots)

	_, err = uc.GetProviderSchedule(ctx, providerID, "06/01/2025")
	assert.ErrorIs(t, err, entity.ErrInvalidDate)
}

func TestCreateBlockNormalizesAllDay(t *testing.T) {
	db, mock := newTxDB(t)
	blocks, cache := &fakeBlockRepo{}, newFakeCache()
	uc := NewScheduleBlockUsecase(db, quietLogger(), blocks, &fakeAudit{}, cache)
	ctx, _ := asPrincipal(middleware.RoleAdmin)
	providerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := uc.CreateBlock(ctx, &dto.CreateBlockRequest{
		ProviderID: providerID,
		StartDate:  "2025-01-06",
		EndDate:    "2025-01-10",
		StartTime:  strPtr("09:00"),
		EndTime:    strPtr("10:00"),
		AllDay:     true,
		BlockType:  "vacation",
	})
	require.NoError(t, err)
	assert.True(t, resp.AllDay)
	assert.Nil(t, resp.StartTime)
	assert.Nil(t, resp.EndTime)
	assert.Equal(t, []uuid.UUID{providerID}, cache.invalidated)

	_, err = uc.CreateBlock(ctx, &dto.CreateBlockRequest{ProviderID: providerID, StartDate: "2025-01-10", EndDate: "2025-01-06", AllDay: true, BlockType: "holiday"})
	assert.ErrorIs(t, err, entity.ErrBlockDateRange)

	_, err = uc.CreateBlock(ctx, &dto.CreateBlockRequest{ProviderID: providerID, StartDate: "2025-01-06", EndDate: "2025-01-06", BlockType: "training"})
	assert.ErrorIs(t, err, entity.ErrBlockTimeRange)
}

func TestDeleteBlockNotFound(t *testing.T) {
	db, mock := newTxDB(t)
	uc := NewScheduleBlockUsecase(db, quietLogger(), &fakeBlockRepo{}, &fakeAudit{}, newFakeCache())
	ctx, _ := asPrincipal(middleware.RoleAdmin)

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.ErrorIs(t, uc.DeleteBlock(ctx, uuid.New()), ErrBlockNotFound)
}

func ptrTOD(s string) *entity.TimeOfDay {
	t := tod(s)
	return &t
}
