package usecase

import (
	"context"
	"sort"
	"time"

	"go-clinic-agenda/internal/converter"
	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/domain/repository"
	"go-clinic-agenda/internal/scheduling"
	"go-clinic-agenda/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"gorm.io/gorm"
)

const (
	MaxAvailabilityRangeDays = 31
	availabilityWorkers      = 8
)

type AvailabilityUsecase interface {
	GetAvailability(ctx context.Context, providerID uuid.UUID, date string, duration int) (*dto.AvailabilityResponse, error)
	GetAvailabilityRange(ctx context.Context, providerID uuid.UUID, from, to string, duration int) (*dto.AvailabilityRangeResponse, error)
}

type availabilityUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	scheduleRepo    repository.ProviderScheduleRepository
	blockRepo       repository.ScheduleBlockRepository
	appointmentRepo repository.AppointmentRepository
	cache           service.AvailabilityCache
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	scheduleRepo repository.ProviderScheduleRepository,
	blockRepo repository.ScheduleBlockRepository,
	appointmentRepo repository.AppointmentRepository,
	cache service.AvailabilityCache,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:              db,
		log:             log,
		scheduleRepo:    scheduleRepo,
		blockRepo:       blockRepo,
		appointmentRepo: appointmentRepo,
		cache:           cache,
	}
}

func (u *availabilityUsecase) GetAvailability(ctx context.Context, providerID uuid.UUID, date string, duration int) (*dto.AvailabilityResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	day, err := entity.ParseDate(date)
	if err != nil {
		return nil, err
	}

	slots, err := u.daySlots(ctx, owner, providerID, day, duration)
	if err != nil {
		return nil, err
	}
	return dayResponse(providerID, day, duration, slots), nil
}

// GetAvailabilityRange computes every day of [from, to] concurrently.
func (u *availabilityUsecase) GetAvailabilityRange(ctx context.Context, providerID uuid.UUID, from, to string, duration int) (*dto.AvailabilityRangeResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	start, err := entity.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := entity.ParseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	if int(end.Sub(start).Hours()/24)+1 > MaxAvailabilityRangeDays {
		return nil, ErrDateRangeTooLong
	}

	p := pool.NewWithResults[dto.AvailabilityResponse]().
		WithContext(ctx).
		WithMaxGoroutines(availabilityWorkers).
		WithCancelOnError()

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		day := day
		p.Go(func(ctx context.Context) (dto.AvailabilityResponse, error) {
			slots, err := u.daySlots(ctx, owner, providerID, day, duration)
			if err != nil {
				return dto.AvailabilityResponse{}, err
			}
			return *dayResponse(providerID, day, duration, slots), nil
		})
	}

	days, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	total := 0
	for _, d := range days {
		total += d.Total
	}

	return &dto.AvailabilityRangeResponse{
		ProviderID: providerID,
		From:       start.Format(entity.DateLayout),
		To:         end.Format(entity.DateLayout),
		Duration:   duration,
		Days:       days,
		TotalSlots: total,
	}, nil
}

func (u *availabilityUsecase) daySlots(ctx context.Context, owner entity.Owner, providerID uuid.UUID, day time.Time, duration int) ([]scheduling.Slot, error) {
	cached, version, ok := u.cache.Get(ctx, owner, providerID, day, duration)
	if ok {
		return cached, nil
	}

	db := u.db.WithContext(ctx)
	schedule, err := u.scheduleRepo.FindActiveByProviderAndWeekday(db, owner, providerID, entity.WeekdayOf(day))
	if err != nil {
		u.log.Warnf("Failed to find schedule for provider %s: %+v", providerID, err)
		return nil, err
	}

	var slots []scheduling.Slot
	if schedule == nil {
		slots = []scheduling.Slot{}
	} else {
		blocks, err := u.blockRepo.FindActiveByProviderAndDate(db, owner, providerID, day)
		if err != nil {
			u.log.Warnf("Failed to find blocks for provider %s: %+v", providerID, err)
			return nil, err
		}
		booked, err := u.appointmentRepo.FindActiveByProfessionalAndDate(db, owner, providerID, day)
		if err != nil {
			u.log.Warnf("Failed to find appointments for provider %s: %+v", providerID, err)
			return nil, err
		}
		slots = scheduling.GenerateSlots(day, schedule, blocks, booked, duration)
	}

	u.cache.Set(ctx, owner, providerID, day, duration, version, slots)
	return slots, nil
}

func dayResponse(providerID uuid.UUID, day time.Time, duration int, slots []scheduling.Slot) *dto.AvailabilityResponse {
	return &dto.AvailabilityResponse{
		ProviderID: providerID,
		Date:       day.Format(entity.DateLayout),
		Duration:   duration,
		Slots:      converter.SlotsToResponses(slots),
		Total:      len(slots),
	}
}
