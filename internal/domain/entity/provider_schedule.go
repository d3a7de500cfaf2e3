package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrScheduleTimeRange   = errors.New("start time must be before end time")
	ErrScheduleBreakWindow = errors.New("break must lie within working hours and start before it ends")
	ErrScheduleBreakPair   = errors.New("break start and break end must be provided together")
	ErrSlotDurationRange   = errors.New("slot duration must be between 5 and 480 minutes")
	ErrWeekdayRange        = errors.New("weekday must be between 0 (Monday) and 6 (Sunday)")
)

const (
	DefaultSlotDuration = 30
	MinSlotDuration     = 5
	MaxSlotDuration     = 480
)

// ProviderSchedule is a weekly recurring availability window of a provider.
type ProviderSchedule struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Owner
	ProviderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"provider_id"`
	Weekday      int        `gorm:"not null" json:"weekday"`
	StartTime    TimeOfDay  `gorm:"type:time;not null" json:"start_time"`
	EndTime      TimeOfDay  `gorm:"type:time;not null" json:"end_time"`
	BreakStart   *TimeOfDay `gorm:"type:time" json:"break_start,omitempty"`
	BreakEnd     *TimeOfDay `gorm:"type:time" json:"break_end,omitempty"`
	SlotDuration int        `gorm:"not null;default:30" json:"slot_duration"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProviderSchedule) TableName() string {
	return "provider_schedules"
}

// HasBreak reports whether a break window is configured.
func (s *ProviderSchedule) HasBreak() bool {
	return s.BreakStart != nil && s.BreakEnd != nil
}

// Validate checks the schedule invariants.
func (s *ProviderSchedule) Validate() error {
	if s.Weekday < 0 || s.Weekday > 6 {
		return ErrWeekdayRange
	}
	if !s.StartTime.Before(s.EndTime) {
		return ErrScheduleTimeRange
	}
	if (s.BreakStart == nil) != (s.BreakEnd == nil) {
		return ErrScheduleBreakPair
	}
	if s.HasBreak() {
		if s.BreakStart.Before(s.StartTime) || s.BreakEnd.After(s.EndTime) || !s.BreakStart.Before(*s.BreakEnd) {
			return ErrScheduleBreakWindow
		}
	}
	if s.SlotDuration < MinSlotDuration || s.SlotDuration > MaxSlotDuration {
		return ErrSlotDurationRange
	}
	return nil
}

// ScheduleFilter is a domain-level filter for querying provider schedules.
type ScheduleFilter struct {
	ProviderID *uuid.UUID
	Weekday    *int
	ActiveOnly bool
}
