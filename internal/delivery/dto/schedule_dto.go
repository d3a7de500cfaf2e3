package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateScheduleRequest struct {
	ProviderID   uuid.UUID `json:"provider_id" validate:"required"`
	Weekday      *int      `json:"weekday" validate:"required,min=0,max=6"` // 0 = Monday
	StartTime    string    `json:"start_time" validate:"required,timeofday"`
	EndTime      string    `json:"end_time" validate:"required,timeofday"`
	BreakStart   *string   `json:"break_start" validate:"omitempty,timeofday"`
	BreakEnd     *string   `json:"break_end" validate:"omitempty,timeofday"`
	SlotDuration *int      `json:"slot_duration" validate:"omitempty,min=5,max=480"`
	IsActive     *bool     `json:"is_active"`
}

type UpdateScheduleRequest struct {
	Weekday      *int    `json:"weekday" validate:"omitempty,min=0,max=6"`
	StartTime    *string `json:"start_time" validate:"omitempty,timeofday"`
	EndTime      *string `json:"end_time" validate:"omitempty,timeofday"`
	BreakStart   *string `json:"break_start" validate:"omitempty,timeofday"`
	BreakEnd     *string `json:"break_end" validate:"omitempty,timeofday"`
	ClearBreak   bool    `json:"clear_break"`
	SlotDuration *int    `json:"slot_duration" validate:"omitempty,min=5,max=480"`
	IsActive     *bool   `json:"is_active"`
}

// Response DTOs

type ScheduleResponse struct {
	ID           uuid.UUID  `json:"id"`
	ClinicID     *uuid.UUID `json:"clinic_id,omitempty"`
	UserID       uuid.UUID  `json:"user_id"`
	ProviderID   uuid.UUID  `json:"provider_id"`
	Weekday      int        `json:"weekday"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	BreakStart   *string    `json:"break_start,omitempty"`
	BreakEnd     *string    `json:"break_end,omitempty"`
	SlotDuration int        `json:"slot_duration"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type ScheduleListResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
	Total     int                `json:"total"`
}

// ProviderScheduleResponse is a provider's week plus everything on one date.
type ProviderScheduleResponse struct {
	ProviderID     uuid.UUID             `json:"provider_id"`
	Date           string                `json:"date"`
	Weekday        int                   `json:"weekday"`
	WeeklySchedule []ScheduleResponse    `json:"weekly_schedule"`
	DaySchedule    *ScheduleResponse     `json:"day_schedule,omitempty"`
	Blocks         []BlockResponse       `json:"blocks"`
	Appointments   []AppointmentResponse `json:"appointments"`
	AvailableSlots []SlotResponse        `json:"available_slots"`
}
