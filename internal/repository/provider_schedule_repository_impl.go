package repository

import (
	"errors"

	"go-clinic-agenda/internal/domain/entity"
	domainRepo "go-clinic-agenda/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type providerScheduleRepository struct{}

func NewProviderScheduleRepository() domainRepo.ProviderScheduleRepository {
	return &providerScheduleRepository{}
}

func (r *providerScheduleRepository) Create(db *gorm.DB, schedule *entity.ProviderSchedule) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	return db.Create(schedule).Error
}

func (r *providerScheduleRepository) FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.ProviderSchedule, error) {
	var schedule entity.ProviderSchedule
	err := db.Scopes(ownedBy(owner)).Where("id = ?", id).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *providerScheduleRepository) FindActiveByProviderAndWeekday(db *gorm.DB, owner entity.Owner, providerID uuid.UUID, weekday int) (*entity.ProviderSchedule, error) {
	var schedule entity.ProviderSchedule
	err := db.Scopes(ownedBy(owner)).
		Where("provider_id = ? AND weekday = ? AND is_active = ?", providerID, weekday, true).
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *providerScheduleRepository) FindAll(db *gorm.DB, owner entity.Owner, filter *entity.ScheduleFilter) ([]entity.ProviderSchedule, error) {
	var schedules []entity.ProviderSchedule
	query := db.Scopes(ownedBy(owner))

	if filter != nil {
		if filter.ProviderID != nil {
			query = query.Where("provider_id = ?", *filter.ProviderID)
		}
		if filter.Weekday != nil {
			query = query.Where("weekday = ?", *filter.Weekday)
		}
		if filter.ActiveOnly {
			query = query.Where("is_active = ?", true)
		}
	}

	err := query.Order("provider_id ASC, weekday ASC, start_time ASC").Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *providerScheduleRepository) Update(db *gorm.DB, schedule *entity.ProviderSchedule) error {
	return db.Save(schedule).Error
}

func (r *providerScheduleRepository) Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error) {
	result := db.Scopes(ownedBy(owner)).Where("id = ?", id).Delete(&entity.ProviderSchedule{})
	return result.RowsAffected, result.Error
}
