package repository

import (
	"time"

	"go-clinic-agenda/internal/domain/entity"

	"gorm.io/gorm"
)

// ownedBy restricts a query to the rows visible to owner: the whole clinic
// for clinic members, the caller's own workspace otherwise.
func ownedBy(owner entity.Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.IsClinic() {
			return db.Where("clinic_id = ?", *owner.ClinicID)
		}
		return db.Where("user_id = ? AND clinic_id IS NULL", owner.UserID)
	}
}

func dateParam(t time.Time) string {
	return t.Format(entity.DateLayout)
}
