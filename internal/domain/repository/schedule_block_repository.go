package repository

import (
	"time"

	"go-clinic-agenda/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleBlockRepository interface {
	Create(db *gorm.DB, block *entity.ScheduleBlock) error
	FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.ScheduleBlock, error)
	FindActiveByProviderAndDate(db *gorm.DB, owner entity.Owner, providerID uuid.UUID, date time.Time) ([]entity.ScheduleBlock, error)
	FindAll(db *gorm.DB, owner entity.Owner, filter *entity.BlockFilter) ([]entity.ScheduleBlock, error)
	Update(db *gorm.DB, block *entity.ScheduleBlock) error
	Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error)
}
