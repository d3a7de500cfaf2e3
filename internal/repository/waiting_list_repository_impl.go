package repository

import (
	"errors"

	"go-clinic-agenda/internal/domain/entity"
	domainRepo "go-clinic-agenda/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type waitingListRepository struct{}

func NewWaitingListRepository() domainRepo.WaitingListRepository {
	return &waitingListRepository{}
}

func (r *waitingListRepository) Create(db *gorm.DB, entry *entity.WaitingList) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return db.Create(entry).Error
}

func (r *waitingListRepository) FindByID(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.WaitingList, error) {
	var entry entity.WaitingList
	err := db.Scopes(ownedBy(owner)).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// FindByIDForUpdate reads the entry and holds its row lock until the
// surrounding transaction ends.
func (r *waitingListRepository) FindByIDForUpdate(db *gorm.DB, owner entity.Owner, id uuid.UUID) (*entity.WaitingList, error) {
	return r.FindByID(db.Clauses(clause.Locking{Strength: "UPDATE"}), owner, id)
}

// priorityOrder sorts urgent entries first, then by arrival.
const priorityOrder = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END ASC, created_at ASC"

func (r *waitingListRepository) FindAll(db *gorm.DB, owner entity.Owner, filter *entity.WaitingListFilter) ([]entity.WaitingList, error) {
	var entries []entity.WaitingList
	query := db.Scopes(ownedBy(owner))

	if filter != nil {
		if filter.ProviderID != nil {
			query = query.Where("provider_id = ?", *filter.ProviderID)
		}
		if filter.PatientID != nil {
			query = query.Where("patient_id = ?", *filter.PatientID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
	}

	if err := query.Order(priorityOrder).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *waitingListRepository) Update(db *gorm.DB, entry *entity.WaitingList) error {
	return db.Save(entry).Error
}

func (r *waitingListRepository) Delete(db *gorm.DB, owner entity.Owner, id uuid.UUID) (int64, error) {
	result := db.Scopes(ownedBy(owner)).Where("id = ?", id).Delete(&entity.WaitingList{})
	return result.RowsAffected, result.Error
}
