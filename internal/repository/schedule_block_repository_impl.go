package repository

import (
	"errors"
	"time"

	"go-clinic-agenda/internal/domain/entity"
	domainRepo "go-clinic-agenda/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type scheduleBlockRepository struct{}

func NewScheduleBlockRepository() domainRepo.ScheduleBlockRepository {
	return &scheduleBlockRepository{}
}

func (r *scheduleBlockRepository) Create(db *gorm.DB, block *entity.ScheduleBlock) error {
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	return db.Create(block).Error
}

func (r *scheduleBlockRepository) FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.ScheduleBlock, error) {
	var block entity.ScheduleBlock
	err := db.Scopes(ownedBy(owner)).Where("id = ?", id).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

// FindActiveByProviderAndDate returns the active blocks whose date range covers date.
func (r *scheduleBlockRepository) FindActiveByProviderAndDate(db *gorm.DB, owner entity.Owner, providerID uuid.UUID, date time.Time) ([]entity.ScheduleBlock, error) {
	var blocks []entity.ScheduleBlock
	day := dateParam(date)
	err := db.Scopes(ownedBy(owner)).
		Where("provider_id = ? AND is_active = ?", providerID, true).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Order("start_time ASC NULLS FIRST").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// FindAll supports optional filters: provider, date range overlap, active flag.
func (r *scheduleBlockRepository) FindAll(db *gorm.DB, owner entity.Owner, filter *entity.BlockFilter) ([]entity.ScheduleBlock, error) {
	var blocks []entity.ScheduleBlock
	query := db.Scopes(ownedBy(owner))

	if filter != nil {
		if filter.ProviderID != nil {
			query = query.Where("provider_id = ?", *filter.ProviderID)
		}
		if filter.From != nil {
			query = query.Where("end_date >= ?", dateParam(*filter.From))
		}
		if filter.To != nil {
			query = query.Where("start_date <= ?", dateParam(*filter.To))
		}
		if filter.ActiveOnly {
			query = query.Where("is_active = ?", true)
		}
	}

	err := query.Order("start_date ASC, start_time ASC NULLS FIRST").Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *scheduleBlockRepository) Update(db *gorm.DB, block *entity.ScheduleBlock) error {
	return db.Save(block).Error
}

func (r *scheduleBlockRepository) Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error) {
	result := db.Scopes(ownedBy(owner)).Where("id = ?", id).Delete(&entity.ScheduleBlock{})
	return result.RowsAffected, result.Error
}
