package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"go-clinic-agenda/internal/converter"
	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/domain/repository"
	"go-clinic-agenda/internal/scheduling"
	"go-clinic-agenda/internal/service"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidStatus           = errors.New("invalid appointment status")
	ErrInvalidStatusTransition = errors.New("appointment status transition not allowed")
	ErrAppointmentNotEditable  = errors.New("appointment can no longer be changed")
	ErrAppointmentChanged      = errors.New("appointment was changed by another request, try again")
	ErrNegativePrice           = errors.New("price must not be negative")
	ErrInvalidTimeWindow       = errors.New("end time must be after start time")
	ErrUseReschedule           = errors.New("use the reschedule operation to reschedule an appointment")
)

const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 90
	upcomingLimit       = 200
	defaultPageSize     = 20
	maxPageSize         = 100
)

// BookingHook runs inside the booking transaction right after the appointment is inserted.
type BookingHook func(tx *gorm.DB, appointment *entity.Appointment) error

type AppointmentUsecase interface {
	CheckConflicts(ctx context.Context, req *dto.CheckConflictsRequest) (*dto.ConflictCheckResponse, error)
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	Book(ctx context.Context, req *dto.CreateAppointmentRequest, hook BookingHook) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	GetAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	ConfirmAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateStatusRequest) (*dto.AppointmentResponse, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	GetUpcoming(ctx context.Context, days int, professionalID *uuid.UUID) (*dto.AppointmentListResponse, error)
	GetStats(ctx context.Context, req *dto.AppointmentStatsRequest) (*dto.AppointmentStatsResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	scheduleRepo    repository.ProviderScheduleRepository
	blockRepo       repository.ScheduleBlockRepository
	auditService    service.AuditService
	cache           service.AvailabilityCache
	locker          service.BookingLocker
	metrics         *service.MetricsService
	rules           scheduling.Rules
	clock           Clock
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	scheduleRepo repository.ProviderScheduleRepository,
	blockRepo repository.ScheduleBlockRepository,
	auditService service.AuditService,
	cache service.AvailabilityCache,
	locker service.BookingLocker,
	metrics *service.MetricsService,
	rules scheduling.Rules,
	clock Clock,
) AppointmentUsecase {
	if clock == nil {
		clock = LocalClock
	}
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		scheduleRepo:    scheduleRepo,
		blockRepo:       blockRepo,
		auditService:    auditService,
		cache:           cache,
		locker:          locker,
		metrics:         metrics,
		rules:           rules,
		clock:           clock,
	}
}

func (u *appointmentUsecase) CheckConflicts(ctx context.Context, req *dto.CheckConflictsRequest) (*dto.ConflictCheckResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	date, err := entity.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, end, err := parseTimeWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	result, err := u.evaluate(u.db.WithContext(ctx), owner, scheduling.Proposal{
		ProfessionalID: req.ProfessionalID,
		PatientID:      req.PatientID,
		Date:           date,
		Start:          start,
		End:            end,
		ExcludeID:      req.ExcludeAppointmentID,
	})
	if err != nil {
		return nil, err
	}
	return converter.ConflictResultToResponse(result), nil
}

func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	return u.Book(ctx, req, nil)
}

// Book creates a conflict-checked appointment.
//
// Flow:
// 1. Take the (professional, date) lock
// 2. Open a transaction and row-lock the professional's active appointments of the day
// 3. Run the conflict checker against the locked state
// 4. Insert, run hook, write audit log
// 5. Invalidate cached availability
func (u *appointmentUsecase) Book(ctx context.Context, req *dto.CreateAppointmentRequest, hook BookingHook) (*dto.AppointmentResponse, error) {
	principal, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	date, err := entity.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, err
	}
	start, end, err := parseTimeWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		Owner:           owner,
		PatientID:       req.PatientID,
		ProfessionalID:  req.ProfessionalID,
		AppointmentDate: date,
		StartTime:       start,
		EndTime:         end,
		AppointmentType: entity.AppointmentTypeConsultation,
		Status:          entity.AppointmentStatusScheduled,
		Notes:           req.Notes,
		Price:           decimal.Zero,
		CreatedBy:       principal.UserID,
	}
	if req.AppointmentType != "" {
		appointment.AppointmentType = entity.AppointmentType(req.AppointmentType)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		appointment.Price = *req.Price
	}

	var warnings []string
	err = u.withDayLock(ctx, owner, appointment.ProfessionalID, date, func(tx *gorm.DB) error {
		result, err := u.evaluate(tx, owner, proposalFor(appointment, nil))
		if err != nil {
			return err
		}
		if !result.IsValid() {
			return &ConflictError{Errors: result.Errors, Warnings: result.Warnings}
		}
		warnings = result.Warnings

		if err := u.appointmentRepo.Create(tx, appointment); err != nil {
			return err
		}
		if hook != nil {
			if err := hook(tx, appointment); err != nil {
				return err
			}
		}
		return u.auditService.LogCreate(ctx, tx, owner, entity.AuditActionAppointmentCreate, "appointment", appointment.ID.String(), converter.AppointmentToResponse(appointment))
	})
	u.metrics.RecordBooking("create", bookingOutcome(err))
	if err != nil {
		u.logBookingFailure("create", err)
		return nil, err
	}

	u.cache.Invalidate(ctx, owner, appointment.ProfessionalID)
	u.log.Infof("Appointment created: id=%s, professional=%s, %s %s-%s", appointment.ID, appointment.ProfessionalID, req.AppointmentDate, start, end)

	resp := converter.AppointmentToResponse(appointment)
	resp.Warnings = warnings
	return resp, nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), owner, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) GetAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := &entity.AppointmentFilter{
		ProfessionalID: req.ProfessionalID,
		PatientID:      req.PatientID,
		Limit:          limit,
		Offset:         (page - 1) * limit,
	}
	if req.Status != "" {
		status := entity.AppointmentStatus(req.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		filter.Status = &status
	}
	if req.DateFrom != "" {
		if filter.DateFrom, err = parseOptionalDate(&req.DateFrom); err != nil {
			return nil, err
		}
	}
	if req.DateTo != "" {
		if filter.DateTo, err = parseOptionalDate(&req.DateTo); err != nil {
			return nil, err
		}
	}

	appointments, total, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx), owner, filter)
	if err != nil {
		u.log.Warnf("Failed to find appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        total,
		Page:         page,
		Limit:        limit,
	}, nil
}

// UpdateAppointment edits an appointment. Changes to who or when are
// re-checked for conflicts under the booking lock of the new day. The guards
// run again on a row-locked copy inside the transaction, and only the edited
// columns are written, so a concurrent status change is never reverted.
func (u *appointmentUsecase) UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	current, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), owner, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if current == nil {
		return nil, ErrAppointmentNotFound
	}
	if current.Status.IsTerminal() {
		return nil, ErrAppointmentNotEditable
	}

	planned := *current
	if err := applyAppointmentUpdate(&planned, req); err != nil {
		return nil, err
	}
	moves := movesInTime(current, &planned)
	if moves && !current.IsActive() {
		return nil, ErrAppointmentNotEditable
	}

	var (
		previous entity.Appointment
		next     entity.Appointment
		warnings []string
	)
	edit := func(tx *gorm.DB) error {
		locked, err := u.appointmentRepo.FindByIDForUpdate(tx, owner, id)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrAppointmentNotFound
		}
		if locked.Status.IsTerminal() {
			return ErrAppointmentNotEditable
		}

		next = *locked
		if err := applyAppointmentUpdate(&next, req); err != nil {
			return err
		}

		allowed := entity.EditableAppointmentStatuses
		if movesInTime(locked, &next) {
			// The day lock was taken for the planned professional and date.
			if !moves || next.ProfessionalID != planned.ProfessionalID || !entity.SameDate(next.AppointmentDate, planned.AppointmentDate) {
				return ErrAppointmentChanged
			}
			if !locked.IsActive() {
				return ErrAppointmentNotEditable
			}
			result, err := u.evaluate(tx, owner, proposalFor(&next, &id))
			if err != nil {
				return err
			}
			if !result.IsValid() {
				return &ConflictError{Errors: result.Errors, Warnings: result.Warnings}
			}
			warnings = result.Warnings
			allowed = entity.ActiveAppointmentStatuses
		}

		affected, err := u.appointmentRepo.UpdateDetails(tx, owner, &next, allowed)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrAppointmentNotEditable
		}
		previous = *locked
		return u.auditService.LogUpdate(ctx, tx, owner, entity.AuditActionAppointmentUpdate, "appointment", id.String(),
			converter.AppointmentToResponse(locked), converter.AppointmentToResponse(&next))
	}

	if moves {
		err = u.withDayLock(ctx, owner, planned.ProfessionalID, planned.AppointmentDate, edit)
		u.metrics.RecordBooking("update", bookingOutcome(err))
	} else {
		err = u.db.WithContext(ctx).Transaction(edit)
	}
	if err != nil {
		u.logBookingFailure("update", err)
		return nil, err
	}

	u.cache.Invalidate(ctx, owner, previous.ProfessionalID)
	if next.ProfessionalID != previous.ProfessionalID {
		u.cache.Invalidate(ctx, owner, next.ProfessionalID)
	}
	u.log.Infof("Appointment updated: id=%s", id)

	resp := converter.AppointmentToResponse(&next)
	resp.Warnings = warnings
	return resp, nil
}

func applyAppointmentUpdate(a *entity.Appointment, req *dto.UpdateAppointmentRequest) error {
	if req.PatientID != nil {
		a.PatientID = *req.PatientID
	}
	if req.ProfessionalID != nil {
		a.ProfessionalID = *req.ProfessionalID
	}
	if req.AppointmentDate != nil {
		d, err := entity.ParseDate(*req.AppointmentDate)
		if err != nil {
			return err
		}
		a.AppointmentDate = d
	}
	if req.StartTime != nil {
		t, err := parseOptionalTime(req.StartTime)
		if err != nil {
			return err
		}
		a.StartTime = *t
	}
	if req.EndTime != nil {
		t, err := parseOptionalTime(req.EndTime)
		if err != nil {
			return err
		}
		a.EndTime = *t
	}
	if req.AppointmentType != nil {
		a.AppointmentType = entity.AppointmentType(*req.AppointmentType)
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return ErrNegativePrice
		}
		a.Price = *req.Price
	}
	if !a.StartTime.Before(a.EndTime) {
		return ErrInvalidTimeWindow
	}
	return nil
}

func movesInTime(before, after *entity.Appointment) bool {
	return before.PatientID != after.PatientID ||
		before.ProfessionalID != after.ProfessionalID ||
		!entity.SameDate(before.AppointmentDate, after.AppointmentDate) ||
		before.StartTime != after.StartTime ||
		before.EndTime != after.EndTime
}

func (u *appointmentUsecase) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	var professionalID uuid.UUID
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.appointmentRepo.FindByID(tx, owner, id)
		if err != nil {
			return err
		}
		if appointment == nil {
			return ErrAppointmentNotFound
		}
		professionalID = appointment.ProfessionalID

		if _, err := u.appointmentRepo.Delete(tx, owner, id); err != nil {
			return err
		}
		return u.auditService.LogDelete(ctx, tx, owner, entity.AuditActionAppointmentDelete, "appointment", id.String(), converter.AppointmentToResponse(appointment))
	})
	if err != nil {
		if !errors.Is(err, ErrAppointmentNotFound) {
			u.log.Warnf("Failed to delete appointment %s: %+v", id, err)
		}
		return err
	}

	u.cache.Invalidate(ctx, owner, professionalID)
	u.log.Infof("Appointment deleted: id=%s", id)
	return nil
}

func (u *appointmentUsecase) ConfirmAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, id, entity.AppointmentStatusConfirmed, "", entity.AuditActionAppointmentConfirm)
}

func (u *appointmentUsecase) CancelAppointment(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	reason := ""
	if req != nil {
		reason = req.Reason
	}
	return u.transition(ctx, id, entity.AppointmentStatusCancelled, reason, entity.AuditActionAppointmentCancel)
}

func (u *appointmentUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateStatusRequest) (*dto.AppointmentResponse, error) {
	status := entity.AppointmentStatus(req.Status)
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if status == entity.AppointmentStatusRescheduled {
		return nil, ErrUseReschedule
	}
	return u.transition(ctx, id, status, req.Reason, entity.AuditActionAppointmentStatus)
}

// transition applies a status change allowed by the appointment state machine.
// The UPDATE is guarded by the source statuses, so a concurrent change that
// makes the move illegal affects zero rows and is reported as a rejected transition.
func (u *appointmentUsecase) transition(ctx context.Context, id uuid.UUID, to entity.AppointmentStatus, reason, action string) (*dto.AppointmentResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var updated *entity.Appointment
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.appointmentRepo.FindByID(tx, owner, id)
		if err != nil {
			return err
		}
		if appointment == nil {
			return ErrAppointmentNotFound
		}
		if !appointment.Status.CanTransitionTo(to) {
			return ErrInvalidStatusTransition
		}
		before := converter.AppointmentToResponse(appointment)

		at := u.clock()
		fields := map[string]interface{}{}
		switch to {
		case entity.AppointmentStatusConfirmed:
			fields["confirmed_at"] = at
			appointment.ConfirmedAt = &at
		case entity.AppointmentStatusCancelled:
			fields["cancelled_at"] = at
			fields["cancellation_reason"] = reason
			appointment.CancelledAt = &at
			appointment.CancellationReason = reason
		}

		affected, err := u.appointmentRepo.TransitionStatus(tx, owner, id, to, fields)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidStatusTransition
		}
		appointment.Status = to
		updated = appointment

		return u.auditService.LogUpdate(ctx, tx, owner, action, "appointment", id.String(), before, converter.AppointmentToResponse(appointment))
	})
	if err != nil {
		if !errors.Is(err, ErrAppointmentNotFound) && !errors.Is(err, ErrInvalidStatusTransition) {
			u.log.Warnf("Failed to move appointment %s to %s: %+v", id, to, err)
		}
		return nil, err
	}

	if !to.OccupiesTime() {
		u.cache.Invalidate(ctx, owner, updated.ProfessionalID)
	}
	u.log.Infof("Appointment %s moved to %s", id, to)
	return converter.AppointmentToResponse(updated), nil
}

// RescheduleAppointment books a new appointment at the requested time and marks
// the original as rescheduled, atomically.
func (u *appointmentUsecase) RescheduleAppointment(ctx context.Context, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	principal, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	original, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), owner, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if original == nil {
		return nil, ErrAppointmentNotFound
	}
	if !original.Status.CanTransitionTo(entity.AppointmentStatusRescheduled) {
		return nil, ErrInvalidStatusTransition
	}

	date, err := entity.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, err
	}
	start, end, err := parseTimeWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	next := &entity.Appointment{
		Owner:             owner,
		PatientID:         original.PatientID,
		ProfessionalID:    original.ProfessionalID,
		AppointmentDate:   date,
		StartTime:         start,
		EndTime:           end,
		AppointmentType:   original.AppointmentType,
		Status:            entity.AppointmentStatusScheduled,
		Notes:             original.Notes,
		Price:             original.Price,
		RescheduledFromID: &original.ID,
		CreatedBy:         principal.UserID,
	}
	if req.ProfessionalID != nil {
		next.ProfessionalID = *req.ProfessionalID
	}
	if req.Notes != nil {
		next.Notes = *req.Notes
	}

	var warnings []string
	err = u.withDayLock(ctx, owner, next.ProfessionalID, date, func(tx *gorm.DB) error {
		result, err := u.evaluate(tx, owner, proposalFor(next, &original.ID))
		if err != nil {
			return err
		}
		if !result.IsValid() {
			return &ConflictError{Errors: result.Errors, Warnings: result.Warnings}
		}
		warnings = result.Warnings

		affected, err := u.appointmentRepo.TransitionStatus(tx, owner, original.ID, entity.AppointmentStatusRescheduled, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidStatusTransition
		}
		if err := u.appointmentRepo.Create(tx, next); err != nil {
			return err
		}

		if err := u.auditService.LogUpdate(ctx, tx, owner, entity.AuditActionAppointmentResched, "appointment", original.ID.String(),
			converter.AppointmentToResponse(original), map[string]interface{}{"status": entity.AppointmentStatusRescheduled, "rescheduled_to": next.ID}); err != nil {
			return err
		}
		return u.auditService.LogCreate(ctx, tx, owner, entity.AuditActionAppointmentCreate, "appointment", next.ID.String(), converter.AppointmentToResponse(next))
	})
	u.metrics.RecordBooking("reschedule", bookingOutcome(err))
	if err != nil {
		u.logBookingFailure("reschedule", err)
		return nil, err
	}

	u.cache.Invalidate(ctx, owner, original.ProfessionalID)
	if next.ProfessionalID != original.ProfessionalID {
		u.cache.Invalidate(ctx, owner, next.ProfessionalID)
	}
	u.log.Infof("Appointment %s rescheduled to %s", original.ID, next.ID)

	resp := converter.AppointmentToResponse(next)
	resp.Warnings = warnings
	return resp, nil
}

func (u *appointmentUsecase) GetUpcoming(ctx context.Context, days int, professionalID *uuid.UUID) (*dto.AppointmentListResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if days <= 0 {
		days = DefaultUpcomingDays
	}
	if days > MaxUpcomingDays {
		return nil, ErrDateRangeTooLong
	}

	from := entity.DateOf(u.clock())
	to := from.AddDate(0, 0, days)

	appointments, err := u.appointmentRepo.FindUpcoming(u.db.WithContext(ctx), owner, from, to, professionalID, upcomingLimit)
	if err != nil {
		u.log.Warnf("Failed to find upcoming appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        int64(len(appointments)),
	}, nil
}

// GetStats aggregates counts per status and revenue for a window. Both
// queries run concurrently.
func (u *appointmentUsecase) GetStats(ctx context.Context, req *dto.AppointmentStatsRequest) (*dto.AppointmentStatsResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	from, to, err := u.statsWindow(req)
	if err != nil {
		return nil, err
	}

	var counts []entity.StatusCount
	var revenue decimal.Decimal

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		counts, err = u.appointmentRepo.CountByStatus(u.db.WithContext(ctx), owner, from, to, req.ProfessionalID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		revenue, err = u.appointmentRepo.SumRevenue(u.db.WithContext(ctx), owner, from, to, req.ProfessionalID)
		return err
	})
	if err := p.Wait(); err != nil {
		u.log.Warnf("Failed to compute appointment stats: %+v", err)
		return nil, err
	}

	return buildStats(from, to, counts, revenue), nil
}

func (u *appointmentUsecase) statsWindow(req *dto.AppointmentStatsRequest) (time.Time, time.Time, error) {
	today := u.clock()

	var from, to time.Time
	switch req.Period {
	case "week":
		cal := (&now.Config{WeekStartDay: time.Monday}).With(today)
		from, to = cal.BeginningOfWeek(), cal.EndOfWeek()
	case "", "month":
		cal := now.With(today)
		from, to = cal.BeginningOfMonth(), cal.EndOfMonth()
	default:
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}

	var err error
	if req.From != "" {
		if from, err = entity.ParseDate(req.From); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if req.To != "" {
		if to, err = entity.ParseDate(req.To); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	from, to = entity.DateOf(from), entity.DateOf(to)
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

func buildStats(from, to time.Time, counts []entity.StatusCount, revenue decimal.Decimal) *dto.AppointmentStatsResponse {
	byStatus := map[string]int64{}
	for _, s := range []entity.AppointmentStatus{
		entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed, entity.AppointmentStatusCompleted,
		entity.AppointmentStatusCancelled, entity.AppointmentStatusNoShow, entity.AppointmentStatusRescheduled,
	} {
		byStatus[string(s)] = 0
	}

	var total int64
	for _, c := range counts {
		byStatus[string(c.Status)] += c.Count
		total += c.Count
	}

	completed := byStatus[string(entity.AppointmentStatusCompleted)]
	resp := &dto.AppointmentStatsResponse{
		From:             from.Format(entity.DateLayout),
		To:               to.Format(entity.DateLayout),
		Total:            total,
		ByStatus:         byStatus,
		CompletionRate:   percentage(completed, total),
		NoShowRate:       percentage(byStatus[string(entity.AppointmentStatusNoShow)], total),
		CancellationRate: percentage(byStatus[string(entity.AppointmentStatusCancelled)], total),
		Revenue:          revenue,
		AverageTicket:    decimal.Zero,
	}
	if completed > 0 {
		resp.AverageTicket = revenue.Div(decimal.NewFromInt(completed)).Round(2)
	}
	return resp
}

// percentage returns part/total as a percentage with two decimals.
func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

func (u *appointmentUsecase) withDayLock(ctx context.Context, owner entity.Owner, professionalID uuid.UUID, date time.Time, fn func(tx *gorm.DB) error) error {
	release, err := u.locker.Lock(ctx, professionalID, date)
	if err != nil {
		return err
	}
	defer release()

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.appointmentRepo.LockProfessionalDay(tx, owner, professionalID, date); err != nil {
			return err
		}
		return fn(tx)
	})
	if isExclusionViolation(err) {
		return ErrSlotTaken
	}
	return err
}

// evaluate loads the day's calendar for the proposal and runs the conflict checker.
func (u *appointmentUsecase) evaluate(db *gorm.DB, owner entity.Owner, p scheduling.Proposal) (scheduling.Result, error) {
	var err error
	if p.ProfessionalAppointments, err = u.appointmentRepo.FindActiveByProfessionalAndDate(db, owner, p.ProfessionalID, p.Date); err != nil {
		return scheduling.Result{}, err
	}
	if p.PatientAppointments, err = u.appointmentRepo.FindActiveByPatientAndDate(db, owner, p.PatientID, p.Date); err != nil {
		return scheduling.Result{}, err
	}
	if p.Blocks, err = u.blockRepo.FindActiveByProviderAndDate(db, owner, p.ProfessionalID, p.Date); err != nil {
		return scheduling.Result{}, err
	}
	if p.Schedule, err = u.scheduleRepo.FindActiveByProviderAndWeekday(db, owner, p.ProfessionalID, entity.WeekdayOf(p.Date)); err != nil {
		return scheduling.Result{}, err
	}
	p.Now = u.clock()

	result := scheduling.CheckConflicts(p, u.rules)
	u.metrics.RecordConflictCheck(result.IsValid())
	return result, nil
}

func proposalFor(a *entity.Appointment, exclude *uuid.UUID) scheduling.Proposal {
	return scheduling.Proposal{
		ProfessionalID: a.ProfessionalID,
		PatientID:      a.PatientID,
		Date:           a.AppointmentDate,
		Start:          a.StartTime,
		End:            a.EndTime,
		ExcludeID:      exclude,
	}
}

func bookingOutcome(err error) string {
	var conflict *ConflictError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &conflict), errors.Is(err, ErrSlotTaken), errors.Is(err, ErrAppointmentChanged), errors.Is(err, service.ErrLockNotAcquired):
		return "conflict"
	default:
		return "error"
	}
}

func (u *appointmentUsecase) logBookingFailure(op string, err error) {
	if bookingOutcome(err) == "conflict" || errors.Is(err, ErrInvalidStatusTransition) ||
		errors.Is(err, ErrAppointmentNotEditable) || errors.Is(err, ErrAppointmentNotFound) {
		u.log.Infof("Appointment %s rejected: %v", op, err)
		return
	}
	u.log.Warnf("Failed to %s appointment: %+v", op, err)
}
