package handler

import (
	"net/http"
	"strconv"

	"go-clinic-agenda/internal/usecase"
	"go-clinic-agenda/pkg/response"

	"github.com/gorilla/mux"
)

const maxAuditPageSize = 100

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auditLogID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid audit log ID", nil)
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		writeError(w, err, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

func (h *AuditLogHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		response.BadRequest(w, "Invalid page")
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil || limit < 1 {
		response.BadRequest(w, "Invalid limit")
		return
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	auditLogs, err := h.auditLogUsecase.GetAuditLogs(r.Context(), page, limit)
	if err != nil {
		writeError(w, err, "Failed to get audit logs")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Audit logs retrieved successfully", auditLogs,
		response.NewMeta(page, limit, auditLogs.Total))
}
