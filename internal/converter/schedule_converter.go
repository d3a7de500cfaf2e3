package converter

import (
	"time"

	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
)

// ScheduleToResponse converts a ProviderSchedule entity to ScheduleResponse DTO
func ScheduleToResponse(s *entity.ProviderSchedule) *dto.ScheduleResponse {
	if s == nil {
		return nil
	}

	return &dto.ScheduleResponse{
		ID:           s.ID,
		ClinicID:     s.ClinicID,
		UserID:       s.UserID,
		ProviderID:   s.ProviderID,
		Weekday:      s.Weekday,
		StartTime:    s.StartTime.String(),
		EndTime:      s.EndTime.String(),
		BreakStart:   timeOfDayPtr(s.BreakStart),
		BreakEnd:     timeOfDayPtr(s.BreakEnd),
		SlotDuration: s.SlotDuration,
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func SchedulesToResponses(schedules []entity.ProviderSchedule) []dto.ScheduleResponse {
	responses := make([]dto.ScheduleResponse, len(schedules))
	for i := range schedules {
		responses[i] = *ScheduleToResponse(&schedules[i])
	}
	return responses
}

func timeOfDayPtr(t *entity.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func datePtr(t time.Time) *string {
	s := t.Format(entity.DateLayout)
	return &s
}
