package repository

import (
	"time"

	"go-clinic-agenda/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.Appointment, error)
	FindByIDForUpdate(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.Appointment, error)
	FindAll(db *gorm.DB, owner entity.Owner, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error)
	FindActiveByProfessionalAndDate(db *gorm.DB, owner entity.Owner, professionalID uuid.UUID, date time.Time) ([]entity.Appointment, error)
	FindActiveByPatientAndDate(db *gorm.DB, owner entity.Owner, patientID uuid.UUID, date time.Time) ([]entity.Appointment, error)
	LockProfessionalDay(db *gorm.DB, owner entity.Owner, professionalID uuid.UUID, date time.Time) error
	FindUpcoming(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID, limit int) ([]entity.Appointment, error)
	CountByStatus(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID) ([]entity.StatusCount, error)
	SumRevenue(db *gorm.DB, owner entity.Owner, from, to time.Time, professionalID *uuid.UUID) (decimal.Decimal, error)
	UpdateDetails(db *gorm.DB, owner entity.Owner, appointment *entity.Appointment, from []entity.AppointmentStatus) (int64, error)
	TransitionStatus(db *gorm.DB, owner entity.Owner, id uuid.UUID, to entity.AppointmentStatus, fields map[string]interface{}) (int64, error)
	Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error)
}
