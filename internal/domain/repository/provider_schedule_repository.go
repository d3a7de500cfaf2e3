package repository

import (
	"go-clinic-agenda/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProviderScheduleRepository interface {
	Create(db *gorm.DB, schedule *entity.ProviderSchedule) error
	FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.ProviderSchedule, error)
	FindActiveByProviderAndWeekday(db *gorm.DB, owner entity.Owner, providerID uuid.UUID, weekday int) (*entity.ProviderSchedule, error)
	FindAll(db *gorm.DB, owner entity.Owner, filter *entity.ScheduleFilter) ([]entity.ProviderSchedule, error)
	Update(db *gorm.DB, schedule *entity.ProviderSchedule) error
	Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error)
}
