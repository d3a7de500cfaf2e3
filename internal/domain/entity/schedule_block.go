package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlockDateRange = errors.New("block start date must not be after end date")
	ErrBlockTimeRange = errors.New("timed blocks need a start time before the end time")
	ErrBlockType      = errors.New("invalid block type")
)

type BlockType string

const (
	BlockTypeVacation  BlockType = "vacation"
	BlockTypeHoliday   BlockType = "holiday"
	BlockTypeSickLeave BlockType = "sick_leave"
	BlockTypeTraining  BlockType = "training"
	BlockTypePersonal  BlockType = "personal"
	BlockTypeOther     BlockType = "other"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeVacation, BlockTypeHoliday, BlockTypeSickLeave, BlockTypeTraining, BlockTypePersonal, BlockTypeOther:
		return true
	}
	return false
}

// ScheduleBlock suspends a provider's normal availability over a date range,
// either for whole days or for a time window repeated on each day of the range.
type ScheduleBlock struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Owner
	ProviderID uuid.UUID  `gorm:"type:uuid;not null;index" json:"provider_id"`
	StartDate  time.Time  `gorm:"type:date;not null;index" json:"start_date"`
	EndDate    time.Time  `gorm:"type:date;not null;index" json:"end_date"`
	StartTime  *TimeOfDay `gorm:"type:time" json:"start_time,omitempty"`
	EndTime    *TimeOfDay `gorm:"type:time" json:"end_time,omitempty"`
	AllDay     bool       `gorm:"not null" json:"all_day"`
	BlockType  BlockType  `gorm:"type:varchar(20);not null;default:'other'" json:"block_type"`
	Reason     string     `gorm:"type:text" json:"reason,omitempty"`
	IsActive   bool       `gorm:"not null;index" json:"is_active"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ScheduleBlock) TableName() string {
	return "schedule_blocks"
}

// IsWholeDay reports whether the block removes every slot of the days it covers.
// A block without a time window is treated as whole-day.
func (b *ScheduleBlock) IsWholeDay() bool {
	return b.AllDay || b.StartTime == nil || b.EndTime == nil
}

// CoversDate reports whether date falls within [StartDate, EndDate].
func (b *ScheduleBlock) CoversDate(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(b.StartDate)) && !d.After(DateOf(b.EndDate))
}

func (b *ScheduleBlock) Validate() error {
	if DateOf(b.StartDate).After(DateOf(b.EndDate)) {
		return ErrBlockDateRange
	}
	if !b.BlockType.Valid() {
		return ErrBlockType
	}
	if !b.AllDay {
		if b.StartTime == nil || b.EndTime == nil || !b.StartTime.Before(*b.EndTime) {
			return ErrBlockTimeRange
		}
	}
	return nil
}

// BlockFilter is a domain-level filter for querying schedule blocks.
type BlockFilter struct {
	ProviderID *uuid.UUID
	From       *time.Time
	To         *time.Time
	ActiveOnly bool
}
