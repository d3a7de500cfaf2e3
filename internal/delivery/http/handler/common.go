package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/service"
	"go-clinic-agenda/internal/usecase"
	"go-clinic-agenda/pkg/response"
	"go-clinic-agenda/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var notFoundErrors = []error{
	usecase.ErrScheduleNotFound,
	usecase.ErrBlockNotFound,
	usecase.ErrAppointmentNotFound,
	usecase.ErrWaitingListNotFound,
	usecase.ErrAuditLogNotFound,
}

var conflictErrors = []error{
	usecase.ErrScheduleExists,
	usecase.ErrInvalidStatusTransition,
	usecase.ErrAppointmentNotEditable,
	usecase.ErrAppointmentChanged,
	usecase.ErrWaitingListClosed,
	usecase.ErrSlotTaken,
	usecase.ErrDuplicateResource,
	service.ErrLockNotAcquired,
}

var badRequestErrors = []error{
	usecase.ErrInvalidDate,
	usecase.ErrInvalidTime,
	usecase.ErrInvalidDateRange,
	usecase.ErrDateRangeTooLong,
	usecase.ErrInvalidStatus,
	usecase.ErrNegativePrice,
	usecase.ErrInvalidTimeWindow,
	usecase.ErrUseReschedule,
	usecase.ErrProfessionalRequired,
	usecase.ErrInvalidWaitingStatus,
	usecase.ErrInvalidPreferredWindow,
	entity.ErrScheduleTimeRange,
	entity.ErrScheduleBreakWindow,
	entity.ErrScheduleBreakPair,
	entity.ErrSlotDurationRange,
	entity.ErrWeekdayRange,
	entity.ErrBlockDateRange,
	entity.ErrBlockTimeRange,
	entity.ErrBlockType,
}

// writeError maps a usecase error onto the response envelope. Unknown errors
// become a 500 carrying fallback.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var conflict *usecase.ConflictError
	switch {
	case errors.As(err, &conflict):
		response.Conflict(w, "Scheduling conflict", conflict)
	case errors.Is(err, usecase.ErrUnauthenticated):
		response.Unauthorized(w, "")
	case matchesAny(err, notFoundErrors):
		response.NotFound(w, sentence(err))
	case matchesAny(err, conflictErrors):
		response.Conflict(w, sentence(err), nil)
	case matchesAny(err, badRequestErrors):
		response.BadRequest(w, sentence(err))
	default:
		response.InternalServerError(w, fallback)
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func sentence(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// decodeAndValidate reads a JSON body into req. It writes the error response
// itself and reports false when the request must stop.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}

// decodeOptional is decodeAndValidate for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
