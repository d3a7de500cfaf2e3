package handler

import (
	"net/http"

	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/usecase"
	"go-clinic-agenda/pkg/response"
	"go-clinic-agenda/pkg/validator"
)

type BlockHandler struct {
	blockUsecase usecase.ScheduleBlockUsecase
	validator    *validator.CustomValidator
}

func NewBlockHandler(blockUsecase usecase.ScheduleBlockUsecase, validator *validator.CustomValidator) *BlockHandler {
	return &BlockHandler{
		blockUsecase: blockUsecase,
		validator:    validator,
	}
}

func (h *BlockHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBlockRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	block, err := h.blockUsecase.CreateBlock(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create block")
		return
	}

	response.Success(w, http.StatusCreated, "Block created successfully", block)
}

func (h *BlockHandler) GetBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "block")
	if !ok {
		return
	}

	block, err := h.blockUsecase.GetBlock(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get block")
		return
	}

	response.Success(w, http.StatusOK, "Block retrieved successfully", block)
}

func (h *BlockHandler) GetBlocks(w http.ResponseWriter, r *http.Request) {
	providerID, err := queryUUID(r, "provider_id")
	if err != nil {
		response.BadRequest(w, "Invalid provider ID")
		return
	}

	q := r.URL.Query()
	blocks, err := h.blockUsecase.GetBlocks(r.Context(), &dto.BlockListRequest{
		ProviderID: providerID,
		From:       q.Get("from"),
		To:         q.Get("to"),
		ActiveOnly: q.Get("active_only") == "true",
	})
	if err != nil {
		writeError(w, err, "Failed to get blocks")
		return
	}

	response.Success(w, http.StatusOK, "Blocks retrieved successfully", blocks)
}

func (h *BlockHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "block")
	if !ok {
		return
	}

	var req dto.UpdateBlockRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	block, err := h.blockUsecase.UpdateBlock(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update block")
		return
	}

	response.Success(w, http.StatusOK, "Block updated successfully", block)
}

func (h *BlockHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "block")
	if !ok {
		return
	}

	if err := h.blockUsecase.DeleteBlock(r.Context(), id); err != nil {
		writeError(w, err, "Failed to delete block")
		return
	}

	response.Success(w, http.StatusOK, "Block deleted successfully", nil)
}
