package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-clinic-agenda/internal/domain/entity"
)

// Result carries the outcome of a conflict check. Errors block the booking,
// warnings are informational and travel with the created appointment.
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r Result) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Rules configures the soft checks of the conflict checker.
type Rules struct {
	BusinessStart entity.TimeOfDay
	BusinessEnd   entity.TimeOfDay
}

// DefaultRules flags bookings before 06:00 or after 22:00.
func DefaultRules() Rules {
	return Rules{
		BusinessStart: entity.NewTimeOfDay(6, 0),
		BusinessEnd:   entity.NewTimeOfDay(22, 0),
	}
}

// Proposal is a booking candidate together with everything already on the
// calendar of the same day.
type Proposal struct {
	ProfessionalID uuid.UUID
	PatientID      uuid.UUID
	Date           time.Time
	Start          entity.TimeOfDay
	End            entity.TimeOfDay
	// ExcludeID skips the appointment being edited.
	ExcludeID *uuid.UUID

	ProfessionalAppointments []entity.Appointment
	PatientAppointments      []entity.Appointment
	Blocks                   []entity.ScheduleBlock
	// Schedule is the professional's schedule for the proposal's weekday, nil when none.
	Schedule *entity.ProviderSchedule
	Now      time.Time
}

// CheckConflicts validates a proposal. Overlaps with the professional's or the
// patient's active appointments and with active blocks are errors; bookings
// outside business hours, on weekends, outside the professional's schedule or
// in the past are warnings.
func CheckConflicts(p Proposal, rules Rules) Result {
	result := Result{Errors: []string{}, Warnings: []string{}}

	window := Interval{Start: p.Start, End: p.End}
	if !window.Valid() {
		result.addError("end time must be after start time")
		return result
	}

	for i := range p.ProfessionalAppointments {
		a := &p.ProfessionalAppointments[i]
		if skipAppointment(a, p) || a.ProfessionalID != p.ProfessionalID {
			continue
		}
		if window.Overlaps(AppointmentInterval(a)) {
			result.addError("professional already has an appointment from %s to %s", a.StartTime, a.EndTime)
		}
	}

	for i := range p.PatientAppointments {
		a := &p.PatientAppointments[i]
		if skipAppointment(a, p) || a.PatientID != p.PatientID {
			continue
		}
		if window.Overlaps(AppointmentInterval(a)) {
			result.addError("patient already has an appointment from %s to %s", a.StartTime, a.EndTime)
		}
	}

	for i := range p.Blocks {
		b := &p.Blocks[i]
		if !b.IsActive || !b.CoversDate(p.Date) || b.ProviderID != p.ProfessionalID {
			continue
		}
		if b.IsWholeDay() {
			result.addError("professional is unavailable on %s (%s)", p.Date.Format(entity.DateLayout), b.BlockType)
			continue
		}
		if window.Overlaps(Interval{Start: *b.StartTime, End: *b.EndTime}) {
			result.addError("professional is unavailable from %s to %s (%s)", *b.StartTime, *b.EndTime, b.BlockType)
		}
	}

	if p.Start.Before(rules.BusinessStart) || p.End.After(rules.BusinessEnd) {
		result.addWarning("appointment is outside business hours (%s-%s)", rules.BusinessStart, rules.BusinessEnd)
	}

	if entity.IsWeekend(p.Date) {
		result.addWarning("appointment is scheduled on a weekend")
	}

	checkSchedule(&result, window, p.Schedule)

	if !p.Now.IsZero() && window.Start.On(p.Date).Before(p.Now) {
		result.addWarning("appointment starts in the past")
	}

	return result
}

func checkSchedule(result *Result, window Interval, schedule *entity.ProviderSchedule) {
	if schedule == nil || !schedule.IsActive {
		result.addWarning("professional has no working hours configured for this weekday")
		return
	}
	working := WorkingInterval(schedule)
	if !window.Within(working) {
		result.addWarning("appointment is outside the professional's working hours (%s)", working)
	}
	if br, ok := BreakInterval(schedule); ok && window.Overlaps(br) {
		result.addWarning("appointment overlaps the professional's break (%s)", br)
	}
}

func skipAppointment(a *entity.Appointment, p Proposal) bool {
	if p.ExcludeID != nil && a.ID == *p.ExcludeID {
		return true
	}
	return !a.IsActive() || !entity.SameDate(a.AppointmentDate, p.Date)
}
