package domain

import (
	"fmt"
	"sort"
	"time"
)

// CalendarEvent is one slot materialized into a concrete time window, with
// zoned start/end and the weekly recurrence rule that covers all weekdays
// holding an identical slot.
type CalendarEvent struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	RRule   string
	Slot    Slot
}

// EventsInWindow materializes the program's slots over [start, end) in the
// given timezone, in chronological order. A slot ending at minute 0 with a
// positive start spans to the following midnight.
func EventsInWindow(tp TimeProgram, prefix string, loc *time.Location, start, end time.Time) []CalendarEvent {
	var events []CalendarEvent
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for day.Before(end) {
		weekday := WeekdayOf(day)
		for _, slot := range tp.Days[weekday] {
			eventStart := day.Add(time.Duration(slot.StartMinute) * time.Minute)
			eventEnd := day.Add(time.Duration(slot.EffectiveEndMinute()) * time.Minute)
			if !eventStart.Before(end) || !eventEnd.After(start) {
				continue
			}
			events = append(events, CalendarEvent{
				UID:     SlotUID(prefix, slot, day),
				Summary: slotSummary(slot),
				Start:   eventStart,
				End:     eventEnd,
				RRule:   WeeklyRule(tp.MatchingWeekdays(slot)),
				Slot:    slot,
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

// CurrentEvent picks the representative event for "now": the event whose
// [start, end) contains now, else the next upcoming one, else the first in
// the window. Returns nil for an empty window.
func CurrentEvent(events []CalendarEvent, now time.Time) *CalendarEvent {
	for i := range events {
		if !events[i].Start.After(now) && events[i].End.After(now) {
			return &events[i]
		}
	}
	for i := range events {
		if events[i].Start.After(now) {
			return &events[i]
		}
	}
	if len(events) > 0 {
		return &events[0]
	}
	return nil
}

func slotSummary(slot Slot) string {
	if slot.Setpoint != nil {
		return fmt.Sprintf("%g°C", *slot.Setpoint)
	}
	return "on"
}
