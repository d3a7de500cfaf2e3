package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-clinic-agenda/internal/delivery/http/middleware"
	"go-clinic-agenda/internal/domain/entity"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUnauthenticated   = errors.New("user not found in context")
	ErrInvalidDate       = entity.ErrInvalidDate
	ErrInvalidTime       = entity.ErrInvalidTimeOfDay
	ErrInvalidDateRange  = errors.New("end date must not be before start date")
	ErrDateRangeTooLong  = errors.New("date range is too long")
	ErrSlotTaken         = errors.New("time slot was taken by another booking")
	ErrDuplicateResource = errors.New("resource already exists")
)

// ConflictError is returned when a booking fails the conflict check.
type ConflictError struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (e *ConflictError) Error() string {
	return "scheduling conflict: " + strings.Join(e.Errors, "; ")
}

// Clock returns the current wall-clock time.
type Clock func() time.Time

// LocalClock returns the server's local wall clock expressed as a naive UTC
// value, matching how dates and times of day are stored.
func LocalClock() time.Time {
	n := time.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, time.UTC)
}

func ownerFromContext(ctx context.Context) (*middleware.Principal, entity.Owner, error) {
	p, ok := middleware.GetPrincipalFromContext(ctx)
	if !ok {
		return nil, entity.Owner{}, ErrUnauthenticated
	}
	return p, p.Owner(), nil
}

func parseTimeWindow(start, end string) (entity.TimeOfDay, entity.TimeOfDay, error) {
	s, err := entity.ParseTimeOfDay(start)
	if err != nil {
		return 0, 0, ErrInvalidTime
	}
	e, err := entity.ParseTimeOfDay(end)
	if err != nil {
		return 0, 0, ErrInvalidTime
	}
	return s, e, nil
}

func parseOptionalTime(s *string) (*entity.TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := entity.ParseTimeOfDay(*s)
	if err != nil {
		return nil, ErrInvalidTime
	}
	return &t, nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := entity.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isExclusionViolation matches the appointments no-overlap constraint.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}
