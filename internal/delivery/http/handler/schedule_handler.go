package handler

import (
	"net/http"

	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/usecase"
	"go-clinic-agenda/pkg/response"
	"go-clinic-agenda/pkg/validator"
)

type ScheduleHandler struct {
	scheduleUsecase usecase.ProviderScheduleUsecase
	validator       *validator.CustomValidator
}

func NewScheduleHandler(scheduleUsecase usecase.ProviderScheduleUsecase, validator *validator.CustomValidator) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleUsecase: scheduleUsecase,
		validator:       validator,
	}
}

func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateScheduleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	schedule, err := h.scheduleUsecase.CreateSchedule(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create schedule")
		return
	}

	response.Success(w, http.StatusCreated, "Schedule created successfully", schedule)
}

func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "schedule")
	if !ok {
		return
	}

	schedule, err := h.scheduleUsecase.GetSchedule(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get schedule")
		return
	}

	response.Success(w, http.StatusOK, "Schedule retrieved successfully", schedule)
}

func (h *ScheduleHandler) GetSchedules(w http.ResponseWriter, r *http.Request) {
	providerID, err := queryUUID(r, "provider_id")
	if err != nil {
		response.BadRequest(w, "Invalid provider ID")
		return
	}

	schedules, err := h.scheduleUsecase.GetSchedules(r.Context(), providerID)
	if err != nil {
		writeError(w, err, "Failed to get schedules")
		return
	}

	response.Success(w, http.StatusOK, "Schedules retrieved successfully", schedules)
}

func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "schedule")
	if !ok {
		return
	}

	var req dto.UpdateScheduleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	schedule, err := h.scheduleUsecase.UpdateSchedule(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update schedule")
		return
	}

	response.Success(w, http.StatusOK, "Schedule updated successfully", schedule)
}

func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "schedule")
	if !ok {
		return
	}

	if err := h.scheduleUsecase.DeleteSchedule(r.Context(), id); err != nil {
		writeError(w, err, "Failed to delete schedule")
		return
	}

	response.Success(w, http.StatusOK, "Schedule deleted successfully", nil)
}

// GetProviderSchedule serves the day view of one provider: weekly hours,
// blocks, appointments and free slots.
func (h *ScheduleHandler) GetProviderSchedule(w http.ResponseWriter, r *http.Request) {
	providerID, err := queryUUID(r, "provider_id")
	if err != nil || providerID == nil {
		response.BadRequest(w, "provider_id is required")
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "date is required")
		return
	}

	view, err := h.scheduleUsecase.GetProviderSchedule(r.Context(), *providerID, date)
	if err != nil {
		writeError(w, err, "Failed to get provider schedule")
		return
	}

	response.Success(w, http.StatusOK, "Provider schedule retrieved successfully", view)
}
