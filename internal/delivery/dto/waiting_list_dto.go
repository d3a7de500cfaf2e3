package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateWaitingListRequest struct {
	PatientID          uuid.UUID  `json:"patient_id" validate:"required"`
	ProviderID         *uuid.UUID `json:"provider_id"`
	PreferredDateFrom  *string    `json:"preferred_date_from" validate:"omitempty,date"`
	PreferredDateTo    *string    `json:"preferred_date_to" validate:"omitempty,date"`
	PreferredStartTime *string    `json:"preferred_start_time" validate:"omitempty,timeofday"`
	PreferredEndTime   *string    `json:"preferred_end_time" validate:"omitempty,timeofday"`
	PreferredWeekdays  []int      `json:"preferred_weekdays" validate:"omitempty,dive,min=0,max=6"`
	Priority           string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Notes              string     `json:"notes" validate:"max=2000"`
}

type UpdateWaitingListRequest struct {
	ProviderID         *uuid.UUID `json:"provider_id"`
	PreferredDateFrom  *string    `json:"preferred_date_from" validate:"omitempty,date"`
	PreferredDateTo    *string    `json:"preferred_date_to" validate:"omitempty,date"`
	PreferredStartTime *string    `json:"preferred_start_time" validate:"omitempty,timeofday"`
	PreferredEndTime   *string    `json:"preferred_end_time" validate:"omitempty,timeofday"`
	PreferredWeekdays  []int      `json:"preferred_weekdays" validate:"omitempty,dive,min=0,max=6"`
	Priority           *string    `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Status             *string    `json:"status" validate:"omitempty,oneof=waiting contacted cancelled"`
	Notes              *string    `json:"notes" validate:"omitempty,max=2000"`
}

// ScheduleWaitingListRequest books an appointment for a waiting list entry.
// ProfessionalID defaults to the entry's provider.
type ScheduleWaitingListRequest struct {
	ProfessionalID  *uuid.UUID       `json:"professional_id"`
	AppointmentDate string           `json:"appointment_date" validate:"required,date"`
	StartTime       string           `json:"start_time" validate:"required,timeofday"`
	EndTime         string           `json:"end_time" validate:"required,timeofday"`
	AppointmentType string           `json:"appointment_type" validate:"omitempty,oneof=consultation follow_up exam procedure telemedicine other"`
	Price           *decimal.Decimal `json:"price"`
	Notes           string           `json:"notes" validate:"max=2000"`
}

type WaitingListResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ClinicID           *uuid.UUID `json:"clinic_id,omitempty"`
	UserID             uuid.UUID  `json:"user_id"`
	PatientID          uuid.UUID  `json:"patient_id"`
	ProviderID         *uuid.UUID `json:"provider_id,omitempty"`
	PreferredDateFrom  *string    `json:"preferred_date_from,omitempty"`
	PreferredDateTo    *string    `json:"preferred_date_to,omitempty"`
	PreferredStartTime *string    `json:"preferred_start_time,omitempty"`
	PreferredEndTime   *string    `json:"preferred_end_time,omitempty"`
	PreferredWeekdays  []int      `json:"preferred_weekdays"`
	Priority           string     `json:"priority"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	AppointmentID      *uuid.UUID `json:"appointment_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type WaitingListListResponse struct {
	Entries []WaitingListResponse `json:"entries"`
	Total   int                   `json:"total"`
}

type WaitingListScheduledResponse struct {
	Entry       WaitingListResponse `json:"entry"`
	Appointment AppointmentResponse `json:"appointment"`
}

type WaitingListListRequest struct {
	ProviderID *uuid.UUID
	PatientID  *uuid.UUID
	Status     string
}
