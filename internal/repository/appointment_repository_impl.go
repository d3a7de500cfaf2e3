package repository

import (
	"errors"
	"time"

	"go-clinic-agenda/internal/domain/entity"
	domainRepo "go-clinic-agenda/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Scopes(ownedBy(owner)).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// FindByIDForUpdate reads the appointment and holds its row lock until the
// surrounding transaction ends.
func (r *appointmentRepository) FindByIDForUpdate(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.Appointment, error) {
	return r.FindByID(db.Clauses(clause.Locking{Strength: "UPDATE"}), owner, id)
}

// FindAll returns a page of appointments plus the total count matching the filter.
func (r *appointmentRepository) FindAll(db *gorm.DB, owner entity.Owner, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	var appointments []entity.Appointment
	var total int64

	query := db.Model(&entity.Appointment{}).Scopes(ownedBy(owner))
	limit, offset := 0, 0

	if filter != nil {
		if filter.ProfessionalID != nil {
			query = query.Where("professional_id = ?", *filter.ProfessionalID)
		}
		if filter.PatientID != nil {
			query = query.Where("patient_id = ?", *filter.PatientID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.DateFrom != nil {
			query = query.Where("appointment_date >= ?", dateParam(*filter.DateFrom))
		}
		if filter.DateTo != nil {
			query = query.Where("appointment_date <= ?", dateParam(*filter.DateTo))
		}
		limit, offset = filter.Limit, filter.Offset
	}

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("appointment_date ASC, start_time ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&appointments).Error; err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *appointmentRepository) FindActiveByProfessionalAndDate(db *gorm.DB, owner entity.Owner, professionalID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Scopes(ownedBy(owner)).
		Where("professional_id = ? AND appointment_date = ? AND status IN ?",
			professionalID, dateParam(date), entity.ActiveAppointmentStatuses).
		Order("start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindActiveByPatientAndDate(db *gorm.DB, owner entity.Owner, patientID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Scopes(ownedBy(owner)).
		Where("patient_id = ? AND appointment_date = ? AND status IN ?",
			patientID, dateParam(date), entity.ActiveAppointmentStatuses).
		Order("start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// LockProfessionalDay takes row locks on the professional's active appointments
// for date. It must run inside a transaction.
func (r *appointmentRepository) LockProfessionalDay(db *gorm.DB, owner entity.Owner, professionalID uuid.UUID, date time.Time) error {
	var ids []uuid.UUID
	return db.Model(&entity.Appointment{}).
		Scopes(ownedBy(owner)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("professional_id = ? AND appointment_date = ? AND status IN ?",
			professionalID, dateParam(date), entity.ActiveAppointmentStatuses).
		Pluck("id", &ids).Error
}

func (r *appointmentRepository) FindUpcoming(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID, limit int) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.Scopes(ownedBy(owner)).
		Where("appointment_date >= ? AND appointment_date <= ? AND status IN ?",
			dateParam(from), dateParam(to), entity.ActiveAppointmentStatuses)
	if professionalID != nil {
		query = query.Where("professional_id = ?", *professionalID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("appointment_date ASC, start_time ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) CountByStatus(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID) ([]entity.StatusCount, error) {
	var counts []entity.StatusCount
	query := db.Model(&entity.Appointment{}).
		Scopes(ownedBy(owner)).
		Select("status, COUNT(*) AS count").
		Where("appointment_date >= ? AND appointment_date <= ?", dateParam(from), dateParam(to))
	if professionalID != nil {
		query = query.Where("professional_id = ?", *professionalID)
	}
	if err := query.Group("status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// SumRevenue adds up the price of completed appointments in [from, to].
func (r *appointmentRepository) SumRevenue(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := db.Model(&entity.Appointment{}).
		Scopes(ownedBy(owner)).
		Select("COALESCE(SUM(price), 0)").
		Where("status = ? AND appointment_date >= ? AND appointment_date <= ?",
			entity.AppointmentStatusCompleted, dateParam(from), dateParam(to))
	if professionalID != nil {
		query = query.Where("professional_id = ?", *professionalID)
	}
	if err := query.Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// appointmentDetailColumns are the columns an edit may write. Status and its
// timestamps only change through TransitionStatus.
var appointmentDetailColumns = []string{
	"patient_id", "professional_id", "appointment_date", "start_time", "end_time",
	"appointment_type", "notes", "price", "updated_at",
}

// UpdateDetails writes the editable columns of appointment while its status is
// one of from. Zero rows affected means the status moved on in the meantime.
func (r *appointmentRepository) UpdateDetails(db *gorm.DB, owner entity.Owner, appointment *entity.Appointment, from []entity.AppointmentStatus) (int64, error) {
	result := db.Model(appointment).
		Scopes(ownedBy(owner)).
		Where("status IN ?", from).
		Select(appointmentDetailColumns).
		Updates(appointment)
	return result.RowsAffected, result.Error
}

// TransitionStatus moves the appointment to status to, but only if its current
// status allows it. Zero rows affected means the guard rejected the change.
func (r *appointmentRepository) TransitionStatus(db *gorm.DB, owner entity.Owner, id uuid.UUID, to entity.AppointmentStatus, fields map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	result := db.Model(&entity.Appointment{}).
		Scopes(ownedBy(owner)).
		Where("id = ? AND status IN ?", id, entity.SourceStatuses(to)).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error) {
	result := db.Scopes(ownedBy(owner)).Where("id = ?", id).Delete(&entity.Appointment{})
	return result.RowsAffected, result.Error
}
