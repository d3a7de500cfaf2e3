package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateBlockRequest struct {
	ProviderID uuid.UUID `json:"provider_id" validate:"required"`
	StartDate  string    `json:"start_date" validate:"required,date"`
	EndDate    string    `json:"end_date" validate:"required,date"`
	StartTime  *string   `json:"start_time" validate:"omitempty,timeofday"`
	EndTime    *string   `json:"end_time" validate:"omitempty,timeofday"`
	AllDay     bool      `json:"all_day"`
	BlockType  string    `json:"block_type" validate:"required,oneof=vacation holiday sick_leave training personal other"`
	Reason     string    `json:"reason" validate:"max=500"`
}

type UpdateBlockRequest struct {
	StartDate *string `json:"start_date" validate:"omitempty,date"`
	EndDate   *string `json:"end_date" validate:"omitempty,date"`
	StartTime *string `json:"start_time" validate:"omitempty,timeofday"`
	EndTime   *string `json:"end_time" validate:"omitempty,timeofday"`
	AllDay    *bool   `json:"all_day"`
	BlockType *string `json:"block_type" validate:"omitempty,oneof=vacation holiday sick_leave training personal other"`
	Reason    *string `json:"reason" validate:"omitempty,max=500"`
	IsActive  *bool   `json:"is_active"`
}

type BlockResponse struct {
	ID         uuid.UUID  `json:"id"`
	ClinicID   *uuid.UUID `json:"clinic_id,omitempty"`
	UserID     uuid.UUID  `json:"user_id"`
	ProviderID uuid.UUID  `json:"provider_id"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	StartTime  *string    `json:"start_time,omitempty"`
	EndTime    *string    `json:"end_time,omitempty"`
	AllDay     bool       `json:"all_day"`
	BlockType  string     `json:"block_type"`
	Reason     string     `json:"reason,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type BlockListResponse struct {
	Blocks []BlockResponse `json:"blocks"`
	Total  int             `json:"total"`
}

// BlockListRequest carries the optional list filters taken from the query string.
type BlockListRequest struct {
	ProviderID *uuid.UUID
	From       string
	To         string
	ActiveOnly bool
}
