package handler

import (
	"net/http"

	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/usecase"
	"go-clinic-agenda/pkg/response"
	"go-clinic-agenda/pkg/validator"
)

type WaitingListHandler struct {
	waitingListUsecase usecase.WaitingListUsecase
	validator          *validator.CustomValidator
}

func NewWaitingListHandler(waitingListUsecase usecase.WaitingListUsecase, validator *validator.CustomValidator) *WaitingListHandler {
	return &WaitingListHandler{
		waitingListUsecase: waitingListUsecase,
		validator:          validator,
	}
}

func (h *WaitingListHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWaitingListRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	entry, err := h.waitingListUsecase.CreateEntry(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create waiting list entry")
		return
	}

	response.Success(w, http.StatusCreated, "Waiting list entry created successfully", entry)
}

func (h *WaitingListHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "waiting list entry")
	if !ok {
		return
	}

	entry, err := h.waitingListUsecase.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get waiting list entry")
		return
	}

	response.Success(w, http.StatusOK, "Waiting list entry retrieved successfully", entry)
}

func (h *WaitingListHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	providerID, err := queryUUID(r, "provider_id")
	if err != nil {
		response.BadRequest(w, "Invalid provider ID")
		return
	}
	patientID, err := queryUUID(r, "patient_id")
	if err != nil {
		response.BadRequest(w, "Invalid patient ID")
		return
	}

	entries, err := h.waitingListUsecase.GetEntries(r.Context(), &dto.WaitingListListRequest{
		ProviderID: providerID,
		PatientID:  patientID,
		Status:     r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, err, "Failed to get waiting list")
		return
	}

	response.Success(w, http.StatusOK, "Waiting list retrieved successfully", entries)
}

func (h *WaitingListHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "waiting list entry")
	if !ok {
		return
	}

	var req dto.UpdateWaitingListRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	entry, err := h.waitingListUsecase.UpdateEntry(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update waiting list entry")
		return
	}

	response.Success(w, http.StatusOK, "Waiting list entry updated successfully", entry)
}

func (h *WaitingListHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "waiting list entry")
	if !ok {
		return
	}

	if err := h.waitingListUsecase.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, err, "Failed to delete waiting list entry")
		return
	}

	response.Success(w, http.StatusOK, "Waiting list entry deleted successfully", nil)
}

func (h *WaitingListHandler) ScheduleEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "waiting list entry")
	if !ok {
		return
	}

	var req dto.ScheduleWaitingListRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.waitingListUsecase.ScheduleEntry(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to schedule waiting list entry")
		return
	}

	response.Success(w, http.StatusCreated, "Waiting list entry scheduled successfully", result)
}
