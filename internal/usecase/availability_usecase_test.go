package usecase

import (
	"testing"

	"go-clinic-agenda/internal/delivery/http/middleware"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/scheduling"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type availabilityFixture struct {
	uc           AvailabilityUsecase
	schedules    *fakeScheduleRepo
	blocks       *fakeBlockRepo
	appointments *fakeAppointmentRepo
	cache        *fakeCache
}

func newAvailabilityFixture(t *testing.T) *availabilityFixture {
	t.Helper()
	db, _ := newTxDB(t)
	f := &availabilityFixture{
		schedules:    &fakeScheduleRepo{},
		blocks:       &fakeBlockRepo{},
		appointments: &fakeAppointmentRepo{},
		cache:        newFakeCache(),
	}
	f.uc = NewAvailabilityUsecase(db, quietLogger(), f.schedules, f.blocks, f.appointments, f.cache)
	return f
}

func (f *availabilityFixture) weekdaySchedules(owner entity.Owner, providerID uuid.UUID) {
	for weekday := 0; weekday < 5; weekday++ {
		_ = f.schedules.Create(nil, &entity.ProviderSchedule{
			Owner:        owner,
			ProviderID:   providerID,
			Weekday:      weekday,
			StartTime:    tod("09:00"),
			EndTime:      tod("11:00"),
			BreakStart:   ptrTOD("10:00"),
			BreakEnd:     ptrTOD("10:15"),
			SlotDuration: 30,
			IsActive:     true,
		})
	}
}

func TestGetAvailabilityRealignsAfterBreak(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx, owner := asPrincipal(middleware.RoleReceptionist)
	providerID := uuid.New()
	f.weekdaySchedules(owner, providerID)

	resp, err := f.uc.GetAvailability(ctx, providerID, "2025-01-06", 0)
	require.NoError(t, err)

	var starts []string
	for _, s := range resp.Slots {
		starts = append(starts, s.StartTime)
	}
	assert.Equal(t, []string{"09:00", "09:30", "10:15"}, starts)
	assert.Equal(t, 3, resp.Total)
}

func TestGetAvailabilityUsesCache(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx, owner := asPrincipal(middleware.RoleReceptionist)
	providerID := uuid.New()
	f.weekdaySchedules(owner, providerID)

	_, err := f.uc.GetAvailability(ctx, providerID, "2025-01-07", 30)
	require.NoError(t, err)
	_, err = f.uc.GetAvailability(ctx, providerID, "2025-01-07", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, f.schedules.lookups)

	cached := []scheduling.Slot{{Start: tod("15:00"), End: tod("15:30")}}
	f.cache.Set(ctx, owner, providerID, mustDate("2025-01-08"), 30, 0, cached)
	resp, err := f.uc.GetAvailability(ctx, providerID, "2025-01-08", 30)
	require.NoError(t, err)
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "15:00", resp.Slots[0].StartTime)
}

// slowSchedules invalidates the provider while its day is being computed,
// the way a booking committed mid-read would.
type slowSchedules struct {
	*fakeScheduleRepo
	during func()
}

func (r *slowSchedules) FindActiveByProviderAndWeekday(db *gorm.DB, owner entity.Owner, providerID uuid.UUID, weekday int) (*entity.ProviderSchedule, error) {
	s, err := r.fakeScheduleRepo.FindActiveByProviderAndWeekday(db, owner, providerID, weekday)
	r.during()
	return s, err
}

func TestGetAvailabilityDoesNotCacheAcrossInvalidation(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx, owner := asPrincipal(middleware.RoleReceptionist)
	providerID := uuid.New()
	f.weekdaySchedules(owner, providerID)

	db, _ := newTxDB(t)
	invalidateOnce := true
	schedules := &slowSchedules{fakeScheduleRepo: f.schedules, during: func() {
		if invalidateOnce {
			invalidateOnce = false
			f.cache.Invalidate(ctx, owner, providerID)
		}
	}}
	uc := NewAvailabilityUsecase(db, quietLogger(), schedules, f.blocks, f.appointments, f.cache)

	_, err := uc.GetAvailability(ctx, providerID, "2025-01-07", 30)
	require.NoError(t, err)

	_, _, hit := f.cache.Get(ctx, owner, providerID, mustDate("2025-01-07"), 30)
	assert.False(t, hit, "slots computed before the invalidation stay under the old version")

	_, err = uc.GetAvailability(ctx, providerID, "2025-01-07", 30)
	require.NoError(t, err)
	assert.Equal(t, 2, f.schedules.lookups)
}

func TestGetAvailabilityWithoutScheduleIsEmpty(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx, _ := asPrincipal(middleware.RoleReceptionist)

	resp, err := f.uc.GetAvailability(ctx, uuid.New(), "2025-01-06", 30)
	require.NoError(t, err)
	assert.NotNil(t, resp.Slots)
	assert.Zero(t, resp.Total)
}

func TestGetAvailabilityRange(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx, owner := asPrincipal(middleware.RoleReceptionist)
	providerID := uuid.New()
	f.weekdaySchedules(owner, providerID)
	_ = f.blocks.Create(nil, &entity.ScheduleBlock{
		Owner:      owner,
		ProviderID: providerID,
		StartDate:  mustDate("2025-01-08"),
		EndDate:    mustDate("2025-01-08"),
		AllDay:     true,
		BlockType:  entity.BlockTypeHoliday,
		IsActive:   true,
	})

	// Monday through Sunday.
	resp, err := f.uc.GetAvailabilityRange(ctx, providerID, "2025-01-06", "2025-01-12", 30)
	require.NoError(t, err)
	require.Len(t, resp.Days, 7)

	for i, day := range resp.Days {
		assert.Equal(t, mustDate("2025-01-06").AddDate(0, 0, i).Format(entity.DateLayout), day.Date)
	}
	assert.Zero(t, resp.Days[2].Total, "holiday")
	assert.Zero(t, resp.Days[5].Total, "saturday")
	assert.Zero(t, resp.Days[6].Total, "sunday")
	assert.Equal(t, 4*3, resp.TotalSlots)
}

func TestGetAvailabilityRangeValidation(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx, _ := asPrincipal(middleware.RoleReceptionist)
	providerID := uuid.New()

	_, err := f.uc.GetAvailabilityRange(ctx, providerID, "2025-01-10", "2025-01-06", 30)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = f.uc.GetAvailabilityRange(ctx, providerID, "2025-01-01", "2025-03-01", 30)
	assert.ErrorIs(t, err, ErrDateRangeTooLong)

	_, err = f.uc.GetAvailabilityRange(ctx, providerID, "2025-1-1", "2025-01-06", 30)
	assert.ErrorIs(t, err, entity.ErrInvalidDate)
}
