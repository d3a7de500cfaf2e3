package usecase

import (
	"context"
	"errors"

	"go-clinic-agenda/internal/converter"
	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/domain/repository"
	"go-clinic-agenda/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrWaitingListNotFound    = errors.New("waiting list entry not found")
	ErrWaitingListClosed      = errors.New("waiting list entry is already scheduled or cancelled")
	ErrProfessionalRequired   = errors.New("professional_id is required when the entry has no provider")
	ErrInvalidWaitingStatus   = errors.New("invalid waiting list status")
	ErrInvalidPreferredWindow = errors.New("preferred window start must be before its end")
)

type WaitingListUsecase interface {
	CreateEntry(ctx context.Context, req *dto.CreateWaitingListRequest) (*dto.WaitingListResponse, error)
	GetEntry(ctx context.Context, id uuid.UUID) (*dto.WaitingListResponse, error)
	GetEntries(ctx context.Context, req *dto.WaitingListListRequest) (*dto.WaitingListListResponse, error)
	UpdateEntry(ctx context.Context, id uuid.UUID, req *dto.UpdateWaitingListRequest) (*dto.WaitingListResponse, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	ScheduleEntry(ctx context.Context, id uuid.UUID, req *dto.ScheduleWaitingListRequest) (*dto.WaitingListScheduledResponse, error)
}

type waitingListUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	waitingListRepo    repository.WaitingListRepository
	appointmentUsecase AppointmentUsecase
	auditService       service.AuditService
}

func NewWaitingListUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	waitingListRepo repository.WaitingListRepository,
	appointmentUsecase AppointmentUsecase,
	auditService service.AuditService,
) WaitingListUsecase {
	return &waitingListUsecase{
		db:                 db,
		log:                log,
		waitingListRepo:    waitingListRepo,
		appointmentUsecase: appointmentUsecase,
		auditService:       auditService,
	}
}

func (u *waitingListUsecase) CreateEntry(ctx context.Context, req *dto.CreateWaitingListRequest) (*dto.WaitingListResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	entry := &entity.WaitingList{
		Owner:             owner,
		PatientID:         req.PatientID,
		ProviderID:        req.ProviderID,
		PreferredWeekdays: entity.Weekdays(req.PreferredWeekdays),
		Priority:          entity.WaitingListPriorityNormal,
		Status:            entity.WaitingListStatusWaiting,
		Notes:             req.Notes,
	}
	if req.Priority != "" {
		entry.Priority = entity.WaitingListPriority(req.Priority)
	}
	if err := applyPreferredWindow(entry, req.PreferredDateFrom, req.PreferredDateTo, req.PreferredStartTime, req.PreferredEndTime); err != nil {
		return nil, err
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.waitingListRepo.Create(tx, entry); err != nil {
			return err
		}
		return u.auditService.LogCreate(ctx, tx, owner, entity.AuditActionWaitingListCreate, "waiting_list", entry.ID.String(), converter.WaitingListToResponse(entry))
	})
	if err != nil {
		u.log.Warnf("Failed to create waiting list entry: %+v", err)
		return nil, err
	}

	u.log.Infof("Waiting list entry created: id=%s, patient=%s, priority=%s", entry.ID, entry.PatientID, entry.Priority)
	return converter.WaitingListToResponse(entry), nil
}

func (u *waitingListUsecase) GetEntry(ctx context.Context, id uuid.UUID) (*dto.WaitingListResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := u.waitingListRepo.FindByID(u.db.WithContext(ctx), owner, id)
	if err != nil {
		u.log.Warnf("Failed to find waiting list entry %s: %+v", id, err)
		return nil, err
	}
	if entry == nil {
		return nil, ErrWaitingListNotFound
	}
	return converter.WaitingListToResponse(entry), nil
}

func (u *waitingListUsecase) GetEntries(ctx context.Context, req *dto.WaitingListListRequest) (*dto.WaitingListListResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	filter := &entity.WaitingListFilter{
		ProviderID: req.ProviderID,
		PatientID:  req.PatientID,
	}
	if req.Status != "" {
		status := entity.WaitingListStatus(req.Status)
		if !validWaitingStatus(status) {
			return nil, ErrInvalidWaitingStatus
		}
		filter.Status = &status
	}

	entries, err := u.waitingListRepo.FindAll(u.db.WithContext(ctx), owner, filter)
	if err != nil {
		u.log.Warnf("Failed to find waiting list entries: %+v", err)
		return nil, err
	}

	return &dto.WaitingListListResponse{
		Entries: converter.WaitingListsToResponses(entries),
		Total:   len(entries),
	}, nil
}

func (u *waitingListUsecase) UpdateEntry(ctx context.Context, id uuid.UUID, req *dto.UpdateWaitingListRequest) (*dto.WaitingListResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var updated *entity.WaitingList
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := u.waitingListRepo.FindByIDForUpdate(tx, owner, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrWaitingListNotFound
		}
		if entry.Status == entity.WaitingListStatusScheduled {
			return ErrWaitingListClosed
		}
		before := converter.WaitingListToResponse(entry)

		if req.ProviderID != nil {
			entry.ProviderID = req.ProviderID
		}
		if req.PreferredWeekdays != nil {
			entry.PreferredWeekdays = entity.Weekdays(req.PreferredWeekdays)
		}
		if req.Priority != nil {
			entry.Priority = entity.WaitingListPriority(*req.Priority)
		}
		if req.Status != nil {
			status := entity.WaitingListStatus(*req.Status)
			if !validWaitingStatus(status) || status == entity.WaitingListStatusScheduled {
				return ErrInvalidWaitingStatus
			}
			entry.Status = status
		}
		if req.Notes != nil {
			entry.Notes = *req.Notes
		}
		if err := applyPreferredWindow(entry, req.PreferredDateFrom, req.PreferredDateTo, req.PreferredStartTime, req.PreferredEndTime); err != nil {
			return err
		}

		if err := u.waitingListRepo.Update(tx, entry); err != nil {
			return err
		}
		updated = entry
		return u.auditService.LogUpdate(ctx, tx, owner, entity.AuditActionWaitingListUpdate, "waiting_list", id.String(), before, converter.WaitingListToResponse(entry))
	})
	if err != nil {
		if !isWaitingListRejection(err) {
			u.log.Warnf("Failed to update waiting list entry %s: %+v", id, err)
		}
		return nil, err
	}

	u.log.Infof("Waiting list entry updated: id=%s, status=%s", id, updated.Status)
	return converter.WaitingListToResponse(updated), nil
}

func (u *waitingListUsecase) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := u.waitingListRepo.FindByID(tx, owner, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrWaitingListNotFound
		}
		if _, err := u.waitingListRepo.Delete(tx, owner, id); err != nil {
			return err
		}
		return u.auditService.LogDelete(ctx, tx, owner, entity.AuditActionWaitingListDelete, "waiting_list", id.String(), converter.WaitingListToResponse(entry))
	})
	if err != nil {
		if !errors.Is(err, ErrWaitingListNotFound) {
			u.log.Warnf("Failed to delete waiting list entry %s: %+v", id, err)
		}
		return err
	}

	u.log.Infof("Waiting list entry deleted: id=%s", id)
	return nil
}

// ScheduleEntry books an appointment for an open entry. The booking and the
// entry's move to scheduled commit together.
func (u *waitingListUsecase) ScheduleEntry(ctx context.Context, id uuid.UUID, req *dto.ScheduleWaitingListRequest) (*dto.WaitingListScheduledResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := u.waitingListRepo.FindByID(u.db.WithContext(ctx), owner, id)
	if err != nil {
		u.log.Warnf("Failed to find waiting list entry %s: %+v", id, err)
		return nil, err
	}
	if entry == nil {
		return nil, ErrWaitingListNotFound
	}
	if !entry.Status.IsOpen() {
		return nil, ErrWaitingListClosed
	}

	professionalID := req.ProfessionalID
	if professionalID == nil {
		professionalID = entry.ProviderID
	}
	if professionalID == nil {
		return nil, ErrProfessionalRequired
	}

	notes := req.Notes
	if notes == "" {
		notes = entry.Notes
	}

	var scheduled *entity.WaitingList
	appointment, err := u.appointmentUsecase.Book(ctx, &dto.CreateAppointmentRequest{
		PatientID:       entry.PatientID,
		ProfessionalID:  *professionalID,
		AppointmentDate: req.AppointmentDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		AppointmentType: req.AppointmentType,
		Notes:           notes,
		Price:           req.Price,
	}, func(tx *gorm.DB, a *entity.Appointment) error {
		// Locked re-read: a concurrent schedule or cancel either commits first or waits for us.
		current, err := u.waitingListRepo.FindByIDForUpdate(tx, owner, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrWaitingListNotFound
		}
		if !current.Status.IsOpen() {
			return ErrWaitingListClosed
		}
		before := converter.WaitingListToResponse(current)

		current.Status = entity.WaitingListStatusScheduled
		current.AppointmentID = &a.ID
		if err := u.waitingListRepo.Update(tx, current); err != nil {
			return err
		}
		scheduled = current
		return u.auditService.LogUpdate(ctx, tx, owner, entity.AuditActionWaitingListSchedule, "waiting_list", id.String(), before, converter.WaitingListToResponse(current))
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Waiting list entry %s scheduled as appointment %s", id, appointment.ID)
	return &dto.WaitingListScheduledResponse{
		Entry:       *converter.WaitingListToResponse(scheduled),
		Appointment: *appointment,
	}, nil
}

func applyPreferredWindow(entry *entity.WaitingList, dateFrom, dateTo, startTime, endTime *string) error {
	var err error
	if dateFrom != nil {
		if entry.PreferredDateFrom, err = parseOptionalDate(dateFrom); err != nil {
			return err
		}
	}
	if dateTo != nil {
		if entry.PreferredDateTo, err = parseOptionalDate(dateTo); err != nil {
			return err
		}
	}
	if startTime != nil {
		if entry.PreferredStartTime, err = parseOptionalTime(startTime); err != nil {
			return err
		}
	}
	if endTime != nil {
		if entry.PreferredEndTime, err = parseOptionalTime(endTime); err != nil {
			return err
		}
	}

	if entry.PreferredDateFrom != nil && entry.PreferredDateTo != nil && entry.PreferredDateTo.Before(*entry.PreferredDateFrom) {
		return ErrInvalidDateRange
	}
	if entry.PreferredStartTime != nil && entry.PreferredEndTime != nil && !entry.PreferredStartTime.Before(*entry.PreferredEndTime) {
		return ErrInvalidPreferredWindow
	}
	return nil
}

func validWaitingStatus(s entity.WaitingListStatus) bool {
	switch s {
	case entity.WaitingListStatusWaiting, entity.WaitingListStatusContacted,
		entity.WaitingListStatusScheduled, entity.WaitingListStatusCancelled:
		return true
	}
	return false
}

func isWaitingListRejection(err error) bool {
	return errors.Is(err, ErrWaitingListNotFound) ||
		errors.Is(err, ErrWaitingListClosed) ||
		errors.Is(err, ErrInvalidWaitingStatus) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidPreferredWindow)
}
