package handler

import (
	"net/http"

	"go-clinic-agenda/internal/usecase"
	"go-clinic-agenda/pkg/response"

	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
	}
}

func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	providerID, duration, ok := availabilityParams(w, r)
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "date is required")
		return
	}

	slots, err := h.availabilityUsecase.GetAvailability(r.Context(), providerID, date, duration)
	if err != nil {
		writeError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", slots)
}

func (h *AvailabilityHandler) GetAvailabilityRange(w http.ResponseWriter, r *http.Request) {
	providerID, duration, ok := availabilityParams(w, r)
	if !ok {
		return
	}
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		response.BadRequest(w, "from and to are required")
		return
	}

	days, err := h.availabilityUsecase.GetAvailabilityRange(r.Context(), providerID, from, to, duration)
	if err != nil {
		writeError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", days)
}

func availabilityParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, int, bool) {
	providerID, err := queryUUID(r, "provider_id")
	if err != nil || providerID == nil {
		response.BadRequest(w, "provider_id is required")
		return uuid.Nil, 0, false
	}
	duration, err := queryInt(r, "duration", 0)
	if err != nil || duration < 0 || duration > 480 {
		response.BadRequest(w, "duration must be between 1 and 480 minutes")
		return uuid.Nil, 0, false
	}
	return *providerID, duration, true
}
