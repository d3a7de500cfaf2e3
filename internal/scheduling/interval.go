// Package scheduling holds the agenda rules that do not touch storage:
// interval overlap, availability slot generation and booking conflict checks.
package scheduling

import "go-clinic-agenda/internal/domain/entity"

// Interval is a half-open time window [Start, End) within one day.
type Interval struct {
	Start entity.TimeOfDay
	End   entity.TimeOfDay
}

func NewInterval(start, end entity.TimeOfDay) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether the interval has positive length.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps is the half-open overlap test: touching endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Within reports whether i lies entirely inside o.
func (i Interval) Within(o Interval) bool {
	return !i.Start.Before(o.Start) && !i.End.After(o.End)
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

func overlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// AppointmentInterval returns the time window an appointment occupies.
func AppointmentInterval(a *entity.Appointment) Interval {
	return Interval{Start: a.StartTime, End: a.EndTime}
}

// BreakInterval returns the schedule's break window, if configured.
func BreakInterval(s *entity.ProviderSchedule) (Interval, bool) {
	if !s.HasBreak() {
		return Interval{}, false
	}
	return Interval{Start: *s.BreakStart, End: *s.BreakEnd}, true
}

// WorkingInterval returns the schedule's working hours.
func WorkingInterval(s *entity.ProviderSchedule) Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}
