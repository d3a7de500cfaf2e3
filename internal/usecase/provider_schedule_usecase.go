package usecase

import (
	"context"
	"errors"

	"go-clinic-agenda/internal/converter"
	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/domain/repository"
	"go-clinic-agenda/internal/scheduling"
	"go-clinic-agenda/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrScheduleExists   = errors.New("provider already has a schedule for this weekday")
)

type ProviderScheduleUsecase interface {
	CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (*dto.ScheduleResponse, error)
	GetSchedules(ctx context.Context, providerID *uuid.UUID) (*dto.ScheduleListResponse, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	GetProviderSchedule(ctx context.Context, providerID uuid.UUID, date string) (*dto.ProviderScheduleResponse, error)
}

type providerScheduleUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	scheduleRepo    repository.ProviderScheduleRepository
	blockRepo       repository.ScheduleBlockRepository
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
	cache           service.AvailabilityCache
}

func NewProviderScheduleUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	scheduleRepo repository.ProviderScheduleRepository,
	blockRepo repository.ScheduleBlockRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	cache service.AvailabilityCache,
) ProviderScheduleUsecase {
	return &providerScheduleUsecase{
		db:              db,
		log:             log,
		scheduleRepo:    scheduleRepo,
		blockRepo:       blockRepo,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		cache:           cache,
	}
}

func (u *providerScheduleUsecase) CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	start, end, err := parseTimeWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	breakStart, err := parseOptionalTime(req.BreakStart)
	if err != nil {
		return nil, err
	}
	breakEnd, err := parseOptionalTime(req.BreakEnd)
	if err != nil {
		return nil, err
	}

	schedule := &entity.ProviderSchedule{
		Owner:        owner,
		ProviderID:   req.ProviderID,
		Weekday:      *req.Weekday,
		StartTime:    start,
		EndTime:      end,
		BreakStart:   breakStart,
		BreakEnd:     breakEnd,
		SlotDuration: entity.DefaultSlotDuration,
		IsActive:     true,
	}
	if req.SlotDuration != nil {
		schedule.SlotDuration = *req.SlotDuration
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := u.scheduleRepo.FindAll(tx, owner, &entity.ScheduleFilter{ProviderID: &schedule.ProviderID, Weekday: &schedule.Weekday})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrScheduleExists
		}
		if err := u.scheduleRepo.Create(tx, schedule); err != nil {
			if isDuplicateKeyError(err) {
				return ErrScheduleExists
			}
			return err
		}
		return u.auditService.LogCreate(ctx, tx, owner, entity.AuditActionScheduleCreate, "provider_schedule", schedule.ID.String(), converter.ScheduleToResponse(schedule))
	})
	if err != nil {
		if !errors.Is(err, ErrScheduleExists) {
			u.log.Warnf("Failed to create schedule: %+v", err)
		}
		return nil, err
	}

	u.cache.Invalidate(ctx, owner, schedule.ProviderID)
	u.log.Infof("Schedule created: id=%s, provider=%s, weekday=%d", schedule.ID, schedule.ProviderID, schedule.Weekday)
	return converter.ScheduleToResponse(schedule), nil
}

func (u *providerScheduleUsecase) GetSchedule(ctx context.Context, id uuid.UUID) (*dto.ScheduleResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	schedule, err := u.scheduleRepo.FindByID(u.db.WithContext(ctx), owner, id)
	if err != nil {
		u.log.Warnf("Failed to find schedule: %+v", err)
		return nil, err
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}
	return converter.ScheduleToResponse(schedule), nil
}

func (u *providerScheduleUsecase) GetSchedules(ctx context.Context, providerID *uuid.UUID) (*dto.ScheduleListResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	schedules, err := u.scheduleRepo.FindAll(u.db.WithContext(ctx), owner, &entity.ScheduleFilter{ProviderID: providerID})
	if err != nil {
		u.log.Warnf("Failed to find schedules: %+v", err)
		return nil, err
	}

	return &dto.ScheduleListResponse{
		Schedules: converter.SchedulesToResponses(schedules),
		Total:     len(schedules),
	}, nil
}

func (u *providerScheduleUsecase) UpdateSchedule(ctx context.Context, id uuid.UUID, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var updated *entity.ProviderSchedule
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		schedule, err := u.scheduleRepo.FindByID(tx, owner, id)
		if err != nil {
			return err
		}
		if schedule == nil {
			return ErrScheduleNotFound
		}
		before := converter.ScheduleToResponse(schedule)

		if err := applyScheduleUpdate(schedule, req); err != nil {
			return err
		}
		if err := schedule.Validate(); err != nil {
			return err
		}

		if schedule.Weekday != before.Weekday {
			clash, err := u.scheduleRepo.FindAll(tx, owner, &entity.ScheduleFilter{ProviderID: &schedule.ProviderID, Weekday: &schedule.Weekday})
			if err != nil {
				return err
			}
			if len(clash) > 0 {
				return ErrScheduleExists
			}
		}

		if err := u.scheduleRepo.Update(tx, schedule); err != nil {
			if isDuplicateKeyError(err) {
				return ErrScheduleExists
			}
			return err
		}
		updated = schedule
		return u.auditService.LogUpdate(ctx, tx, owner, entity.AuditActionScheduleUpdate, "provider_schedule", id.String(), before, converter.ScheduleToResponse(schedule))
	})
	if err != nil {
		if !errors.Is(err, ErrScheduleNotFound) && !errors.Is(err, ErrScheduleExists) {
			u.log.Warnf("Failed to update schedule %s: %+v", id, err)
		}
		return nil, err
	}

	u.cache.Invalidate(ctx, owner, updated.ProviderID)
	u.log.Infof("Schedule updated: id=%s", id)
	return converter.ScheduleToResponse(updated), nil
}

func applyScheduleUpdate(s *entity.ProviderSchedule, req *dto.UpdateScheduleRequest) error {
	if req.Weekday != nil {
		s.Weekday = *req.Weekday
	}
	if req.StartTime != nil {
		t, err := entity.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			return ErrInvalidTime
		}
		s.StartTime = t
	}
	if req.EndTime != nil {
		t, err := entity.ParseTimeOfDay(*req.EndTime)
		if err != nil {
			return ErrInvalidTime
		}
		s.EndTime = t
	}
	if req.ClearBreak {
		s.BreakStart, s.BreakEnd = nil, nil
	}
	if req.BreakStart != nil {
		t, err := parseOptionalTime(req.BreakStart)
		if err != nil {
			return err
		}
		s.BreakStart = t
	}
	if req.BreakEnd != nil {
		t, err := parseOptionalTime(req.BreakEnd)
		if err != nil {
			return err
		}
		s.BreakEnd = t
	}
	if req.SlotDuration != nil {
		s.SlotDuration = *req.SlotDuration
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	return nil
}

func (u *providerScheduleUsecase) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	var providerID uuid.UUID
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		schedule, err := u.scheduleRepo.FindByID(tx, owner, id)
		if err != nil {
			return err
		}
		if schedule == nil {
			return ErrScheduleNotFound
		}
		providerID = schedule.ProviderID

		if _, err := u.scheduleRepo.Delete(tx, owner, id); err != nil {
			return err
		}
		return u.auditService.LogDelete(ctx, tx, owner, entity.AuditActionScheduleDelete, "provider_schedule", id.String(), converter.ScheduleToResponse(schedule))
	})
	if err != nil {
		if !errors.Is(err, ErrScheduleNotFound) {
			u.log.Warnf("Failed to delete schedule %s: %+v", id, err)
		}
		return err
	}

	u.cache.Invalidate(ctx, owner, providerID)
	u.log.Infof("Schedule deleted: id=%s", id)
	return nil
}

// GetProviderSchedule returns the provider's weekly hours together with the
// blocks, appointments and free slots of one date.
func (u *providerScheduleUsecase) GetProviderSchedule(ctx context.Context, providerID uuid.UUID, date string) (*dto.ProviderScheduleResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	day, err := entity.ParseDate(date)
	if err != nil {
		return nil, err
	}
	db := u.db.WithContext(ctx)

	weekly, err := u.scheduleRepo.FindAll(db, owner, &entity.ScheduleFilter{ProviderID: &providerID})
	if err != nil {
		u.log.Warnf("Failed to find schedules for provider %s: %+v", providerID, err)
		return nil, err
	}
	blocks, err := u.blockRepo.FindActiveByProviderAndDate(db, owner, providerID, day)
	if err != nil {
		u.log.Warnf("Failed to find blocks for provider %s: %+v", providerID, err)
		return nil, err
	}
	appointments, err := u.appointmentRepo.FindActiveByProfessionalAndDate(db, owner, providerID, day)
	if err != nil {
		u.log.Warnf("Failed to find appointments for provider %s: %+v", providerID, err)
		return nil, err
	}

	weekday := entity.WeekdayOf(day)
	resp := &dto.ProviderScheduleResponse{
		ProviderID:     providerID,
		Date:           day.Format(entity.DateLayout),
		Weekday:        weekday,
		WeeklySchedule: converter.SchedulesToResponses(weekly),
		Blocks:         converter.BlocksToResponses(blocks),
		Appointments:   converter.AppointmentsToResponses(appointments),
		AvailableSlots: []dto.SlotResponse{},
	}

	for i := range weekly {
		s := &weekly[i]
		if s.Weekday == weekday && s.IsActive {
			resp.DaySchedule = converter.ScheduleToResponse(s)
			resp.AvailableSlots = converter.SlotsToResponses(scheduling.GenerateSlots(day, s, blocks, appointments, 0))
			break
		}
	}

	return resp, nil
}
