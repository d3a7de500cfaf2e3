package entity

import "github.com/google/uuid"

// Owner partitions rows between a shared clinic and an individual workspace.
// When ClinicID is set the row belongs to the clinic; otherwise it belongs to UserID alone.
type Owner struct {
	ClinicID *uuid.UUID `gorm:"type:uuid;index" json:"clinic_id,omitempty"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
}

func (o Owner) IsClinic() bool {
	return o.ClinicID != nil && *o.ClinicID != uuid.Nil
}

// Owns reports whether a row stamped with other is visible to o.
func (o Owner) Owns(other Owner) bool {
	if o.IsClinic() {
		return other.IsClinic() && *other.ClinicID == *o.ClinicID
	}
	return !other.IsClinic() && other.UserID == o.UserID
}
