package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateAppointmentRequest struct {
	PatientID       uuid.UUID        `json:"patient_id" validate:"required"`
	ProfessionalID  uuid.UUID        `json:"professional_id" validate:"required"`
	AppointmentDate string           `json:"appointment_date" validate:"required,date"`
	StartTime       string           `json:"start_time" validate:"required,timeofday"`
	EndTime         string           `json:"end_time" validate:"required,timeofday"`
	AppointmentType string           `json:"appointment_type" validate:"omitempty,oneof=consultation follow_up exam procedure telemedicine other"`
	Notes           string           `json:"notes" validate:"max=2000"`
	Price           *decimal.Decimal `json:"price"`
}

type UpdateAppointmentRequest struct {
	PatientID       *uuid.UUID       `json:"patient_id"`
	ProfessionalID  *uuid.UUID       `json:"professional_id"`
	AppointmentDate *string          `json:"appointment_date" validate:"omitempty,date"`
	StartTime       *string          `json:"start_time" validate:"omitempty,timeofday"`
	EndTime         *string          `json:"end_time" validate:"omitempty,timeofday"`
	AppointmentType *string          `json:"appointment_type" validate:"omitempty,oneof=consultation follow_up exam procedure telemedicine other"`
	Notes           *string          `json:"notes" validate:"omitempty,max=2000"`
	Price           *decimal.Decimal `json:"price"`
}

type CheckConflictsRequest struct {
	ProfessionalID       uuid.UUID  `json:"professional_id" validate:"required"`
	PatientID            uuid.UUID  `json:"patient_id" validate:"required"`
	Date                 string     `json:"date" validate:"required,date"`
	StartTime            string     `json:"start_time" validate:"required,timeofday"`
	EndTime              string     `json:"end_time" validate:"required,timeofday"`
	ExcludeAppointmentID *uuid.UUID `json:"exclude_appointment_id"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled confirmed completed cancelled no_show rescheduled"`
	Reason string `json:"reason" validate:"max=500"`
}

type RescheduleAppointmentRequest struct {
	AppointmentDate string     `json:"appointment_date" validate:"required,date"`
	StartTime       string     `json:"start_time" validate:"required,timeofday"`
	EndTime         string     `json:"end_time" validate:"required,timeofday"`
	ProfessionalID  *uuid.UUID `json:"professional_id"`
	Notes           *string    `json:"notes" validate:"omitempty,max=2000"`
}

// AppointmentListRequest carries the list filters taken from the query string.
type AppointmentListRequest struct {
	ProfessionalID *uuid.UUID
	PatientID      *uuid.UUID
	Status         string
	DateFrom       string
	DateTo         string
	Page           int
	Limit          int
}

// Response DTOs

type ConflictCheckResponse struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ClinicID           *uuid.UUID      `json:"clinic_id,omitempty"`
	UserID             uuid.UUID       `json:"user_id"`
	PatientID          uuid.UUID       `json:"patient_id"`
	ProfessionalID     uuid.UUID       `json:"professional_id"`
	AppointmentDate    string          `json:"appointment_date"`
	StartTime          string          `json:"start_time"`
	EndTime            string          `json:"end_time"`
	DurationMinutes    int             `json:"duration_minutes"`
	AppointmentType    string          `json:"appointment_type"`
	Status             string          `json:"status"`
	Notes              string          `json:"notes,omitempty"`
	Price              decimal.Decimal `json:"price"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time      `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	RescheduledFromID  *uuid.UUID      `json:"rescheduled_from_id,omitempty"`
	CreatedBy          uuid.UUID       `json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Warnings           []string        `json:"warnings,omitempty"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"-"`
	Limit        int                   `json:"-"`
}

type AppointmentStatsResponse struct {
	From             string           `json:"from"`
	To               string           `json:"to"`
	Total            int64            `json:"total"`
	ByStatus         map[string]int64 `json:"by_status"`
	CompletionRate   float64          `json:"completion_rate"`
	NoShowRate       float64          `json:"no_show_rate"`
	CancellationRate float64          `json:"cancellation_rate"`
	Revenue          decimal.Decimal  `json:"revenue"`
	AverageTicket    decimal.Decimal  `json:"average_ticket"`
}

// AppointmentStatsRequest selects the stats window. An explicit From/To wins
// over Period ("week" or "month", relative to today).
type AppointmentStatsRequest struct {
	From           string
	To             string
	Period         string
	ProfessionalID *uuid.UUID
}
