package entity

import (
	"time"

	"github.com/google/uuid"
)

type WaitingListPriority string

const (
	WaitingListPriorityLow    WaitingListPriority = "low"
	WaitingListPriorityNormal WaitingListPriority = "normal"
	WaitingListPriorityHigh   WaitingListPriority = "high"
	WaitingListPriorityUrgent WaitingListPriority = "urgent"
)

// Rank orders priorities from most (0) to least urgent.
func (p WaitingListPriority) Rank() int {
	switch p {
	case WaitingListPriorityUrgent:
		return 0
	case WaitingListPriorityHigh:
		return 1
	case WaitingListPriorityNormal:
		return 2
	default:
		return 3
	}
}

type WaitingListStatus string

const (
	WaitingListStatusWaiting   WaitingListStatus = "waiting"
	WaitingListStatusContacted WaitingListStatus = "contacted"
	WaitingListStatusScheduled WaitingListStatus = "scheduled"
	WaitingListStatusCancelled WaitingListStatus = "cancelled"
)

// IsOpen reports whether the entry can still be turned into an appointment.
func (s WaitingListStatus) IsOpen() bool {
	return s == WaitingListStatusWaiting || s == WaitingListStatusContacted
}

// WaitingList is a patient waiting for a slot with an optional provider and preferred window.
type WaitingList struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Owner
	PatientID          uuid.UUID           `gorm:"type:uuid;not null;index" json:"patient_id"`
	ProviderID         *uuid.UUID          `gorm:"type:uuid;index" json:"provider_id,omitempty"`
	PreferredDateFrom  *time.Time          `gorm:"type:date" json:"preferred_date_from,omitempty"`
	PreferredDateTo    *time.Time          `gorm:"type:date" json:"preferred_date_to,omitempty"`
	PreferredStartTime *TimeOfDay          `gorm:"type:time" json:"preferred_start_time,omitempty"`
	PreferredEndTime   *TimeOfDay          `gorm:"type:time" json:"preferred_end_time,omitempty"`
	PreferredWeekdays  Weekdays            `gorm:"type:jsonb" json:"preferred_weekdays,omitempty"`
	Priority           WaitingListPriority `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	Status             WaitingListStatus   `gorm:"type:varchar(12);not null;default:'waiting';index" json:"status"`
	Notes              string              `gorm:"type:text" json:"notes,omitempty"`
	AppointmentID      *uuid.UUID          `gorm:"type:uuid" json:"appointment_id,omitempty"`
	CreatedAt          time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WaitingList) TableName() string {
	return "waiting_list"
}

// WaitingListFilter is a domain-level filter for listing waiting list entries.
type WaitingListFilter struct {
	ProviderID *uuid.UUID
	PatientID  *uuid.UUID
	Status     *WaitingListStatus
}
