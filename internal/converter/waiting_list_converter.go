package converter

import (
	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
)

func WaitingListToResponse(w *entity.WaitingList) *dto.WaitingListResponse {
	if w == nil {
		return nil
	}

	resp := &dto.WaitingListResponse{
		ID:                 w.ID,
		ClinicID:           w.ClinicID,
		UserID:             w.UserID,
		PatientID:          w.PatientID,
		ProviderID:         w.ProviderID,
		PreferredStartTime: timeOfDayPtr(w.PreferredStartTime),
		PreferredEndTime:   timeOfDayPtr(w.PreferredEndTime),
		PreferredWeekdays:  []int(w.PreferredWeekdays),
		Priority:           string(w.Priority),
		Status:             string(w.Status),
		Notes:              w.Notes,
		AppointmentID:      w.AppointmentID,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
	if resp.PreferredWeekdays == nil {
		resp.PreferredWeekdays = []int{}
	}
	if w.PreferredDateFrom != nil {
		resp.PreferredDateFrom = datePtr(*w.PreferredDateFrom)
	}
	if w.PreferredDateTo != nil {
		resp.PreferredDateTo = datePtr(*w.PreferredDateTo)
	}
	return resp
}

func WaitingListsToResponses(entries []entity.WaitingList) []dto.WaitingListResponse {
	responses := make([]dto.WaitingListResponse, len(entries))
	for i := range entries {
		responses[i] = *WaitingListToResponse(&entries[i])
	}
	return responses
}
