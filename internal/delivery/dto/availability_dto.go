package dto

import "github.com/google/uuid"

type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilityResponse struct {
	ProviderID uuid.UUID      `json:"provider_id"`
	Date       string         `json:"date"`
	Duration   int            `json:"duration,omitempty"`
	Slots      []SlotResponse `json:"slots"`
	Total      int            `json:"total"`
}

type AvailabilityRangeResponse struct {
	ProviderID uuid.UUID              `json:"provider_id"`
	From       string                 `json:"from"`
	To         string                 `json:"to"`
	Duration   int                    `json:"duration,omitempty"`
	Days       []AvailabilityResponse `json:"days"`
	TotalSlots int                    `json:"total_slots"`
}
