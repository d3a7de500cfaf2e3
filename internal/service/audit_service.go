package service

import (
	"context"

	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuditService interface {
	LogCreate(ctx context.Context, tx *gorm.DB, owner entity.Owner, action string, entityName string, entityID string, newValue interface{}) error
	LogUpdate(ctx context.Context, tx *gorm.DB, owner entity.Owner, action string, entityName string, entityID string, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, tx *gorm.DB, owner entity.Owner, action string, entityName string, entityID string, oldValue interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) LogCreate(ctx context.Context, tx *gorm.DB, owner entity.Owner, action string, entityName string, entityID string, newValue interface{}) error {
	return s.write(tx, owner, action, entityName, entityID, nil, newValue)
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, tx *gorm.DB, owner entity.Owner, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return s.write(tx, owner, action, entityName, entityID, oldValue, newValue)
}

func (s *auditService) LogDelete(ctx context.Context, tx *gorm.DB, owner entity.Owner, action string, entityName string, entityID string, oldValue interface{}) error {
	return s.write(tx, owner, action, entityName, entityID, oldValue, nil)
}

// write stores the entry on tx so it commits or rolls back with the change it describes.
func (s *auditService) write(tx *gorm.DB, owner entity.Owner, action, entityName, entityID string, oldValue, newValue interface{}) error {
	auditLog := &entity.AuditLog{
		Owner:  owner,
		Action: action,
		Metadata: entity.JSON{
			"entity":    entityName,
			"entity_id": entityID,
			"old_value": oldValue,
			"new_value": newValue,
		},
	}

	if err := s.auditRepo.Create(tx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}
	return nil
}
