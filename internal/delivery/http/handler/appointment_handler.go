package handler

import (
	"net/http"

	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/usecase"
	"go-clinic-agenda/pkg/response"
	"go-clinic-agenda/pkg/validator"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

func (h *AppointmentHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckConflictsRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.appointmentUsecase.CheckConflicts(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to check conflicts")
		return
	}

	response.Success(w, http.StatusOK, "Conflict check completed", result)
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.CreateAppointment(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "appointment")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

func (h *AppointmentHandler) GetAppointments(w http.ResponseWriter, r *http.Request) {
	professionalID, err := queryUUID(r, "professional_id")
	if err != nil {
		response.BadRequest(w, "Invalid professional ID")
		return
	}
	patientID, err := queryUUID(r, "patient_id")
	if err != nil {
		response.BadRequest(w, "Invalid patient ID")
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		response.BadRequest(w, "Invalid page")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		response.BadRequest(w, "Invalid limit")
		return
	}

	q := r.URL.Query()
	result, err := h.appointmentUsecase.GetAppointments(r.Context(), &dto.AppointmentListRequest{
		ProfessionalID: professionalID,
		PatientID:      patientID,
		Status:         q.Get("status"),
		DateFrom:       q.Get("date_from"),
		DateTo:         q.Get("date_to"),
		Page:           page,
		Limit:          limit,
	})
	if err != nil {
		writeError(w, err, "Failed to get appointments")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Appointments retrieved successfully", result,
		response.NewMeta(result.Page, result.Limit, result.Total))
}

func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "appointment")
	if !ok {
		return
	}

	var req dto.UpdateAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.UpdateAppointment(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

func (h *AppointmentHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "appointment")
	if !ok {
		return
	}

	if err := h.appointmentUsecase.DeleteAppointment(r.Context(), id); err != nil {
		writeError(w, err, "Failed to delete appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment deleted successfully", nil)
}

func (h *AppointmentHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "appointment")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.ConfirmAppointment(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to confirm appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment confirmed successfully", appointment)
}

func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "appointment")
	if !ok {
		return
	}

	var req dto.CancelAppointmentRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.CancelAppointment(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appointment)
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "appointment")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update appointment status")
		return
	}

	response.Success(w, http.StatusOK, "Appointment status updated successfully", appointment)
}

func (h *AppointmentHandler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "appointment")
	if !ok {
		return
	}

	var req dto.RescheduleAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.RescheduleAppointment(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to reschedule appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment rescheduled successfully", appointment)
}

func (h *AppointmentHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", usecase.DefaultUpcomingDays)
	if err != nil || days < 1 {
		response.BadRequest(w, "days must be a positive number")
		return
	}
	professionalID, err := queryUUID(r, "professional_id")
	if err != nil {
		response.BadRequest(w, "Invalid professional ID")
		return
	}

	result, err := h.appointmentUsecase.GetUpcoming(r.Context(), days, professionalID)
	if err != nil {
		writeError(w, err, "Failed to get upcoming appointments")
		return
	}

	response.Success(w, http.StatusOK, "Upcoming appointments retrieved successfully", result)
}

func (h *AppointmentHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	professionalID, err := queryUUID(r, "professional_id")
	if err != nil {
		response.BadRequest(w, "Invalid professional ID")
		return
	}

	q := r.URL.Query()
	stats, err := h.appointmentUsecase.GetStats(r.Context(), &dto.AppointmentStatsRequest{
		From:           q.Get("from"),
		To:             q.Get("to"),
		Period:         q.Get("period"),
		ProfessionalID: professionalID,
	})
	if err != nil {
		writeError(w, err, "Failed to get appointment stats")
		return
	}

	response.Success(w, http.StatusOK, "Appointment stats retrieved successfully", stats)
}
