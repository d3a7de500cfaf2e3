package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusNoShow      AppointmentStatus = "no_show"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

// appointmentTransitions is the only place status changes are decided.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {
		AppointmentStatusConfirmed,
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
		AppointmentStatusNoShow,
		AppointmentStatusRescheduled,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
		AppointmentStatusNoShow,
		AppointmentStatusRescheduled,
	},
	AppointmentStatusNoShow: {
		AppointmentStatusRescheduled,
	},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow, AppointmentStatusRescheduled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s AppointmentStatus) IsTerminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// OccupiesTime reports whether an appointment in status s blocks its time window.
func (s AppointmentStatus) OccupiesTime() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

// ActiveAppointmentStatuses are the statuses that hold a slot.
var ActiveAppointmentStatuses = []AppointmentStatus{AppointmentStatusScheduled, AppointmentStatusConfirmed}

// EditableAppointmentStatuses are the non-terminal statuses, whose details may still change.
var EditableAppointmentStatuses = []AppointmentStatus{AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusNoShow}

// SourceStatuses returns every status from which next is reachable.
func SourceStatuses(next AppointmentStatus) []AppointmentStatus {
	var from []AppointmentStatus
	for s, targets := range appointmentTransitions {
		for _, t := range targets {
			if t == next {
				from = append(from, s)
			}
		}
	}
	return from
}

type AppointmentType string

const (
	AppointmentTypeConsultation AppointmentType = "consultation"
	AppointmentTypeFollowUp     AppointmentType = "follow_up"
	AppointmentTypeExam         AppointmentType = "exam"
	AppointmentTypeProcedure    AppointmentType = "procedure"
	AppointmentTypeTelemedicine AppointmentType = "telemedicine"
	AppointmentTypeOther        AppointmentType = "other"
)

// Appointment is a booked time window between a patient and a professional
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Owner
	PatientID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	ProfessionalID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"professional_id"`
	AppointmentDate    time.Time         `gorm:"type:date;not null;index" json:"appointment_date"`
	StartTime          TimeOfDay         `gorm:"type:time;not null" json:"start_time"`
	EndTime            TimeOfDay         `gorm:"type:time;not null" json:"end_time"`
	AppointmentType    AppointmentType   `gorm:"type:varchar(20);not null;default:'consultation'" json:"appointment_type"`
	Status             AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Notes              string            `gorm:"type:text" json:"notes,omitempty"`
	Price              decimal.Decimal   `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	CancellationReason string            `gorm:"type:text" json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time        `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	RescheduledFromID  *uuid.UUID        `gorm:"type:uuid" json:"rescheduled_from_id,omitempty"`
	CreatedBy          uuid.UUID         `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// DurationMinutes returns the length of the appointment.
func (a *Appointment) DurationMinutes() int {
	return a.EndTime.Sub(a.StartTime)
}

// CanBeConfirmed checks if the appointment may move to confirmed
func (a *Appointment) CanBeConfirmed() bool {
	return a.Status.CanTransitionTo(AppointmentStatusConfirmed)
}

// CanBeCancelled checks if the appointment may move to cancelled
func (a *Appointment) CanBeCancelled() bool {
	return a.Status.CanTransitionTo(AppointmentStatusCancelled)
}

// IsActive checks if the appointment still holds its time window
func (a *Appointment) IsActive() bool {
	return a.Status.OccupiesTime()
}

// AppointmentFilter is a domain-level filter for listing appointments.
type AppointmentFilter struct {
	ProfessionalID *uuid.UUID
	PatientID      *uuid.UUID
	Status         *AppointmentStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	Limit          int
	Offset         int
}

// StatusCount is one row of an appointment count grouped by status.
type StatusCount struct {
	Status AppointmentStatus
	Count  int64
}
