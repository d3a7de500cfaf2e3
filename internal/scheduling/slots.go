package scheduling

import (
	"time"

	"go-clinic-agenda/internal/domain/entity"
)

// Slot is a bookable candidate interval.
type Slot struct {
	Start entity.TimeOfDay `json:"start_time"`
	End   entity.TimeOfDay `json:"end_time"`
}

// GenerateSlots walks a provider's working hours for date and returns the
// slots of length duration that are free.
//
// The cursor starts at the schedule start and advances by the schedule's
// slot duration. A candidate that overlaps the break realigns the cursor to
// the end of the break. Candidates overlapping an active block covering date
// or an appointment that still occupies its window are skipped. A whole-day
// block, an inactive schedule or a schedule for another weekday yields no slots.
// A non-positive duration falls back to the schedule's slot duration.
func GenerateSlots(
	date time.Time,
	schedule *entity.ProviderSchedule,
	blocks []entity.ScheduleBlock,
	booked []entity.Appointment,
	duration int,
) []Slot {
	slots := []Slot{}
	if schedule == nil || !schedule.IsActive || schedule.Weekday != entity.WeekdayOf(date) {
		return slots
	}

	step := schedule.SlotDuration
	if step <= 0 {
		step = entity.DefaultSlotDuration
	}
	if duration <= 0 {
		duration = step
	}

	busy, wholeDay := busyIntervals(date, blocks, booked)
	if wholeDay {
		return slots
	}
	breakWindow, hasBreak := BreakInterval(schedule)

	for cursor := schedule.StartTime; !cursor.Add(duration).After(schedule.EndTime); {
		candidate := Interval{Start: cursor, End: cursor.Add(duration)}

		if hasBreak && candidate.Overlaps(breakWindow) {
			cursor = breakWindow.End
			continue
		}

		if !overlapsAny(candidate, busy) {
			slots = append(slots, Slot{Start: candidate.Start, End: candidate.End})
		}
		cursor = cursor.Add(step)
	}

	return slots
}

// busyIntervals collects the windows removed from availability on date.
// The second result is true when an active block removes the whole day.
func busyIntervals(date time.Time, blocks []entity.ScheduleBlock, booked []entity.Appointment) ([]Interval, bool) {
	var busy []Interval
	for i := range blocks {
		b := &blocks[i]
		if !b.IsActive || !b.CoversDate(date) {
			continue
		}
		if b.IsWholeDay() {
			return nil, true
		}
		busy = append(busy, Interval{Start: *b.StartTime, End: *b.EndTime})
	}
	for i := range booked {
		a := &booked[i]
		if !a.IsActive() || !entity.SameDate(a.AppointmentDate, date) {
			continue
		}
		busy = append(busy, AppointmentInterval(a))
	}
	return busy, false
}
