package service

import (
	"strconv"
	"strings"
	"time"

	"myvaillant2mqtt/internal/core/domain"
)

// ScopeThisAndFuture is the only recurrence edit scope supported on weekly
// schedule events.
const ScopeThisAndFuture = "THISANDFUTURE"

// Schedule edits work on a clone of the program and validate before
// returning, so a failing edit never leaves a half-modified schedule behind.

// CreateScheduleEvent inserts a new slot on every weekday listed in the
// event's recurrence rule. hasSetpoints tells whether the target program
// carries temperatures, in which case the summary must parse as "<float>°C".
func CreateScheduleEvent(
	tp domain.TimeProgram, ev domain.CalendarEventWrite, hasSetpoints bool,
) (domain.TimeProgram, error) {
	days, err := domain.ParseWeeklyRule(ev.RRule)
	if err != nil {
		return domain.TimeProgram{}, err
	}
	slot, err := slotFromEvent(ev, hasSetpoints)
	if err != nil {
		return domain.TimeProgram{}, err
	}

	out := tp.Clone()
	for _, day := range days {
		out.Days[day] = append(out.Days[day], slot)
	}
	out.Reindex()
	if err := out.CheckOverlap(); err != nil {
		return domain.TimeProgram{}, err
	}
	return out, nil
}

// UpdateScheduleEvent rewrites every occurrence of the targeted slot. The
// original slot (identified by the recurrence id) is deep-copied as the
// comparison key; on each weekday of the new rule an equal slot is mutated in
// place, otherwise the new value is appended.
func UpdateScheduleEvent(
	tp domain.TimeProgram, ev domain.CalendarEventWrite, hasSetpoints bool,
) (domain.TimeProgram, error) {
	if err := requireThisAndFuture(ev); err != nil {
		return domain.TimeProgram{}, err
	}
	day, index, _, err := domain.ParseSlotUID(ev.RecurrenceID)
	if err != nil {
		return domain.TimeProgram{}, err
	}
	days, err := domain.ParseWeeklyRule(ev.RRule)
	if err != nil {
		return domain.TimeProgram{}, err
	}
	newSlot, err := slotFromEvent(ev, hasSetpoints)
	if err != nil {
		return domain.TimeProgram{}, err
	}

	target, ok := tp.Slot(day, index)
	if !ok {
		return domain.TimeProgram{}, domain.NewValidationError(
			"schedule has no slot %d on %s", index, day)
	}
	key := target // comparison key, value semantics via SameValue

	out := tp.Clone()
	for _, d := range days {
		mutated := false
		for i, candidate := range out.Days[d] {
			if candidate.SameValue(key) {
				s := newSlot
				if candidate.Setpoint != nil && s.Setpoint == nil {
					v := *candidate.Setpoint
					s.Setpoint = &v
				}
				out.Days[d][i] = s
				mutated = true
				break
			}
		}
		if !mutated {
			out.Days[d] = append(out.Days[d], newSlot)
		}
	}
	out.Reindex()
	if err := out.CheckOverlap(); err != nil {
		return domain.TimeProgram{}, err
	}
	return out, nil
}

// DeleteScheduleEvent removes the slot the event's recurrence id points at.
func DeleteScheduleEvent(
	tp domain.TimeProgram, ev domain.CalendarEventWrite,
) (domain.TimeProgram, error) {
	if err := requireThisAndFuture(ev); err != nil {
		return domain.TimeProgram{}, err
	}
	day, index, _, err := domain.ParseSlotUID(ev.RecurrenceID)
	if err != nil {
		return domain.TimeProgram{}, err
	}
	if _, ok := tp.Slot(day, index); !ok {
		return domain.TimeProgram{}, domain.NewValidationError(
			"schedule has no slot %d on %s", index, day)
	}
	out := tp.Clone()
	out.Days[day] = append(out.Days[day][:index], out.Days[day][index+1:]...)
	out.Reindex()
	return out, nil
}

func requireThisAndFuture(ev domain.CalendarEventWrite) error {
	if ev.RecurrenceID == "" {
		return domain.NewValidationError(
			"editing a single occurrence is not supported, a recurrence id is required")
	}
	if ev.Scope != ScopeThisAndFuture {
		return domain.NewValidationError(
			"unsupported recurrence scope %q, only %s edits are supported", ev.Scope, ScopeThisAndFuture)
	}
	return nil
}

// slotFromEvent converts the event's zoned window into a same-day slot. An
// end exactly on the following midnight encodes as end-of-day.
func slotFromEvent(ev domain.CalendarEventWrite, hasSetpoints bool) (domain.Slot, error) {
	start := ev.Start
	end := ev.End.In(start.Location())
	sameDay := start.Year() == end.Year() && start.YearDay() == end.YearDay()
	nextMidnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()).AddDate(0, 0, 1)
	if !sameDay && !end.Equal(nextMidnight) {
		return domain.Slot{}, domain.NewValidationError(
			"event must start and end on the same day, got %s .. %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	slot := domain.Slot{
		StartMinute: start.Hour()*60 + start.Minute(),
	}
	if end.Equal(nextMidnight) {
		slot.EndMinute = 1440
	} else {
		slot.EndMinute = end.Hour()*60 + end.Minute()
	}
	if slot.EndMinute < slot.StartMinute {
		return domain.Slot{}, domain.NewValidationError(
			"event end %s precedes its start %s", end.Format("15:04"), start.Format("15:04"))
	}
	if !hasSetpoints {
		return slot, nil
	}
	setpoint, err := parseSummarySetpoint(ev.Summary)
	if err != nil {
		return domain.Slot{}, err
	}
	slot.Setpoint = &setpoint
	return slot, nil
}

// parseSummarySetpoint reads the temperature from an event summary of the
// form "21.5°C", taking only the text up to the first space.
func parseSummarySetpoint(summary string) (float64, error) {
	text, _, _ := strings.Cut(strings.TrimSpace(summary), " ")
	text = strings.TrimSuffix(text, "°C")
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, domain.NewValidationError(
			"event summary %q does not contain a temperature like \"21.5°C\"", summary)
	}
	return value, nil
}
