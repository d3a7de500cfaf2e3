package repository

import (
	"go-clinic-agenda/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaitingListRepository interface {
	Create(db *gorm.DB, entry *entity.WaitingList) error
	FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.WaitingList, error)
	FindByIDForUpdate(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.WaitingList, error)
	FindAll(db *gorm.DB, owner entity.Owner, filter *entity.WaitingListFilter) ([]entity.WaitingList, error)
	Update(db *gorm.DB, entry *entity.WaitingList) error
	Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error)
}
