package repository

import (
	"go-clinic-agenda/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindAll(db *gorm.DB, owner entity.Owner, limit, offset int) ([]entity.AuditLog, int64, error)
	FindByID(db *gorm.DB, owner entity.Owner, id int64) (*entity.AuditLog, error)
}
