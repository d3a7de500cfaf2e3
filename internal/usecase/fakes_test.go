package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"go-clinic-agenda/internal/delivery/http/middleware"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/scheduling"
	"go-clinic-agenda/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// monday is 2025-01-06 08:00, the fixed "now" of these tests.
var monday = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return monday }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTxDB returns a gorm handle whose only job is to open and close transactions.
func newTxDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
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

func asPrincipal(role string) (context.Context, entity.Owner) {
	clinicID := uuid.New()
	p := &middleware.Principal{UserID: uuid.New(), Role: role, ClinicID: &clinicID}
	return middleware.WithPrincipal(context.Background(), p), p.Owner()
}

func tod(s string) entity.TimeOfDay { return entity.MustParseTimeOfDay(s) }

func mustDate(s string) time.Time {
	d, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeAppointmentRepo keeps appointments in memory and mimics the guarded status update.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	items        []*entity.Appointment
	createErr    error
	staleUpdates bool
	lockedDays   int
	lockedReads  int
	counts       []entity.StatusCount
	revenue      decimal.Decimal
	upcomingFrom time.Time
	upcomingTo   time.Time
}

func (r *fakeAppointmentRepo) add(a entity.Appointment) *entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.items = append(r.items, &a)
	return &a
}

func (r *fakeAppointmentRepo) get(id uuid.UUID) *entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (r *fakeAppointmentRepo) Create(db *gorm.DB, appointment *entity.Appointment) error {
	if r.createErr != nil {
		return r.createErr
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	cp := *appointment
	r.mu.Lock()
	r.items = append(r.items, &cp)
	r.mu.Unlock()
	return nil
}

func (r *fakeAppointmentRepo) FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.Appointment, error) {
	a := r.get(id)
	if a == nil || !owner.Owns(a.Owner) {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) FindByIDForUpdate(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	r.lockedReads++
	r.mu.Unlock()
	return r.FindByID(db, owner, id)
}

func (r *fakeAppointmentRepo) FindAll(db *gorm.DB, owner entity.Owner, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.items {
		if owner.Owns(a.Owner) {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAppointmentRepo) active(owner entity.Owner, date time.Time, match func(*entity.Appointment) bool) []entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.items {
		if owner.Owns(a.Owner) && a.IsActive() && entity.SameDate(a.AppointmentDate, date) && match(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (r *fakeAppointmentRepo) FindActiveByProfessionalAndDate(db *gorm.DB, owner entity.Owner, professionalID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	return r.active(owner, date, func(a *entity.Appointment) bool { return a.ProfessionalID == professionalID }), nil
}

func (r *fakeAppointmentRepo) FindActiveByPatientAndDate(db *gorm.DB, owner entity.Owner, patientID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	return r.active(owner, date, func(a *entity.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *fakeAppointmentRepo) LockProfessionalDay(db *gorm.DB, owner entity.Owner, professionalID uuid.UUID, date time.Time) error {
	r.mu.Lock()
	r.lockedDays++
	r.mu.Unlock()
	return nil
}

func (r *fakeAppointmentRepo) FindUpcoming(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID, limit int) ([]entity.Appointment, error) {
	r.mu.Lock()
	r.upcomingFrom, r.upcomingTo = from, to
	r.mu.Unlock()
	return nil, nil
}

func (r *fakeAppointmentRepo) CountByStatus(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID) ([]entity.StatusCount, error) {
	return r.counts, nil
}

func (r *fakeAppointmentRepo) SumRevenue(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID) (decimal.Decimal, error) {
	return r.revenue, nil
}

// UpdateDetails copies only the editable fields and honours the status guard.
func (r *fakeAppointmentRepo) UpdateDetails(db *gorm.DB, owner entity.Owner, appointment *entity.Appointment, from []entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.ID != appointment.ID || !owner.Owns(a.Owner) || !hasStatus(from, a.Status) {
			continue
		}
		a.PatientID = appointment.PatientID
		a.ProfessionalID = appointment.ProfessionalID
		a.AppointmentDate = appointment.AppointmentDate
		a.StartTime = appointment.StartTime
		a.EndTime = appointment.EndTime
		a.AppointmentType = appointment.AppointmentType
		a.Notes = appointment.Notes
		a.Price = appointment.Price
		return 1, nil
	}
	return 0, nil
}

func hasStatus(statuses []entity.AppointmentStatus, s entity.AppointmentStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) TransitionStatus(db *gorm.DB, owner entity.Owner, id uuid.UUID, to entity.AppointmentStatus, fields map[string]interface{}) (int64, error) {
	if r.staleUpdates {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.ID == id && owner.Owns(a.Owner) && a.Status.CanTransitionTo(to) {
			a.Status = to
			if reason, ok := fields["cancellation_reason"].(string); ok {
				a.CancellationReason = reason
			}
			if at, ok := fields["confirmed_at"].(time.Time); ok {
				a.ConfirmedAt = &at
			}
			if at, ok := fields["cancelled_at"].(time.Time); ok {
				a.CancelledAt = &at
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeAppointmentRepo) Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.items {
		if a.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeScheduleRepo struct {
	mu        sync.Mutex
	items     []*entity.ProviderSchedule
	lookups   int
	createErr error
}

func (r *fakeScheduleRepo) Create(db *gorm.DB, schedule *entity.ProviderSchedule) error {
	if r.createErr != nil {
		return r.createErr
	}
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	cp := *schedule
	r.mu.Lock()
	r.items = append(r.items, &cp)
	r.mu.Unlock()
	return nil
}

func (r *fakeScheduleRepo) FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.ProviderSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.ID == id && owner.Owns(s.Owner) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) FindActiveByProviderAndWeekday(db *gorm.DB, owner entity.Owner, providerID uuid.UUID, weekday int) (*entity.ProviderSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	for _, s := range r.items {
		if owner.Owns(s.Owner) && s.ProviderID == providerID && s.Weekday == weekday && s.IsActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) FindAll(db *gorm.DB, owner entity.Owner, filter *entity.ScheduleFilter) ([]entity.ProviderSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ProviderSchedule
	for _, s := range r.items {
		if !owner.Owns(s.Owner) {
			continue
		}
		if filter != nil && filter.ProviderID != nil && s.ProviderID != *filter.ProviderID {
			continue
		}
		if filter != nil && filter.Weekday != nil && s.Weekday != *filter.Weekday {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeScheduleRepo) Update(db *gorm.DB, schedule *entity.ProviderSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.items {
		if s.ID == schedule.ID {
			cp := *schedule
			r.items[i] = &cp
		}
	}
	return nil
}

func (r *fakeScheduleRepo) Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.items {
		if s.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeBlockRepo struct {
	mu    sync.Mutex
	items []*entity.ScheduleBlock
}

func (r *fakeBlockRepo) Create(db *gorm.DB, block *entity.ScheduleBlock) error {
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	cp := *block
	r.mu.Lock()
	r.items = append(r.items, &cp)
	r.mu.Unlock()
	return nil
}

func (r *fakeBlockRepo) FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.ScheduleBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if b.ID == id && owner.Owns(b.Owner) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeBlockRepo) FindActiveByProviderAndDate(db *gorm.DB, owner entity.Owner, providerID uuid.UUID, date time.Time) ([]entity.ScheduleBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ScheduleBlock
	for _, b := range r.items {
		if owner.Owns(b.Owner) && b.ProviderID == providerID && b.IsActive && b.CoversDate(date) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBlockRepo) FindAll(db *gorm.DB, owner entity.Owner, filter *entity.BlockFilter) ([]entity.ScheduleBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ScheduleBlock
	for _, b := range r.items {
		if owner.Owns(b.Owner) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBlockRepo) Update(db *gorm.DB, block *entity.ScheduleBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.items {
		if b.ID == block.ID {
			cp := *block
			r.items[i] = &cp
		}
	}
	return nil
}

func (r *fakeBlockRepo) Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.items {
		if b.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeWaitingListRepo struct {
	mu          sync.Mutex
	items       []*entity.WaitingList
	lockedReads int
}

func (r *fakeWaitingListRepo) add(w entity.WaitingList) *entity.WaitingList {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	r.mu.Lock()
	r.items = append(r.items, &w)
	r.mu.Unlock()
	return &w
}

func (r *fakeWaitingListRepo) Create(db *gorm.DB, entry *entity.WaitingList) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	cp := *entry
	r.mu.Lock()
	r.items = append(r.items, &cp)
	r.mu.Unlock()
	return nil
}

func (r *fakeWaitingListRepo) FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.WaitingList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.items {
		if w.ID == id && owner.Owns(w.Owner) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeWaitingListRepo) FindByIDForUpdate(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.WaitingList, error) {
	r.mu.Lock()
	r.lockedReads++
	r.mu.Unlock()
	return r.FindByID(db, owner, id)
}

func (r *fakeWaitingListRepo) FindAll(db *gorm.DB, owner entity.Owner, filter *entity.WaitingListFilter) ([]entity.WaitingList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.WaitingList
	for _, w := range r.items {
		if owner.Owns(w.Owner) && (filter == nil || filter.Status == nil || w.Status == *filter.Status) {
			out = append(out, *w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority.Rank() < out[j].Priority.Rank() })
	return out, nil
}

func (r *fakeWaitingListRepo) Update(db *gorm.DB, entry *entity.WaitingList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.items {
		if w.ID == entry.ID {
			cp := *entry
			r.items[i] = &cp
		}
	}
	return nil
}

func (r *fakeWaitingListRepo) Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.items {
		if w.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAudit) record(action string) error {
	a.mu.Lock()
	a.actions = append(a.actions, action)
	a.mu.Unlock()
	return nil
}

func (a *fakeAudit) LogCreate(ctx context.Context, tx *gorm.DB, owner entity.Owner, action, entityName, entityID string, newValue interface{}) error {
	return a.record(action)
}

func (a *fakeAudit) LogUpdate(ctx context.Context, tx *gorm.DB, owner entity.Owner, action, entityName, entityID string, oldValue, newValue interface{}) error {
	return a.record(action)
}

func (a *fakeAudit) LogDelete(ctx context.Context, tx *gorm.DB, owner entity.Owner, action, entityName, entityID string, oldValue interface{}) error {
	return a.record(action)
}

// fakeCache mirrors the versioned keys of the Redis cache.
type fakeCache struct {
	mu          sync.Mutex
	slots       map[string][]scheduling.Slot
	versions    map[uuid.UUID]int64
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{slots: map[string][]scheduling.Slot{}, versions: map[uuid.UUID]int64{}}
}

func cacheKey(providerID uuid.UUID, version int64, date time.Time, duration int) string {
	return fmt.Sprintf("%s:v%d:%s:%d", providerID, version, date.Format(entity.DateLayout), duration)
}

func (c *fakeCache) Get(ctx context.Context, owner entity.Owner, providerID uuid.UUID, date time.Time, duration int) ([]scheduling.Slot, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	version := c.versions[providerID]
	s, ok := c.slots[cacheKey(providerID, version, date, duration)]
	return s, version, ok
}

func (c *fakeCache) Set(ctx context.Context, owner entity.Owner, providerID uuid.UUID, date time.Time, duration int, version int64, slots []scheduling.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[cacheKey(providerID, version, date, duration)] = slots
}

func (c *fakeCache) Invalidate(ctx context.Context, owner entity.Owner, providerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[providerID]++
	c.invalidated = append(c.invalidated, providerID)
}

type fakeLocker struct {
	mu       sync.Mutex
	err      error
	acquired int
	released int
}

func (l *fakeLocker) Lock(ctx context.Context, professionalID uuid.UUID, date time.Time) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.acquired++
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

var (
	_ service.AvailabilityCache = (*fakeCache)(nil)
	_ service.BookingLocker     = (*fakeLocker)(nil)
	_ service.AuditService      = (*fakeAudit)(nil)
)
