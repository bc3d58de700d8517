package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"myvaillant2mqtt/internal/core/domain"
)

func testProgram() domain.TimeProgram {
	s21 := 21.0
	s20 := 20.0
	tp := domain.NewTimeProgram()
	tp.Days[domain.MONDAY] = []domain.Slot{
		{Index: 0, Weekday: domain.MONDAY, StartMinute: 300, EndMinute: 600, Setpoint: &s21},
		{Index: 1, Weekday: domain.MONDAY, StartMinute: 900, EndMinute: 1440, Setpoint: &s20},
	}
	tp.Days[domain.TUESDAY] = []domain.Slot{
		{Index: 0, Weekday: domain.TUESDAY, StartMinute: 300, EndMinute: 600, Setpoint: &s21},
	}
	return tp
}

func berlin(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	assert.NoError(t, err)
	return loc
}

func TestCreateScheduleEvent(t *testing.T) {
	tp := testProgram()
	loc := berlin(t)
	ev := domain.CalendarEventWrite{
		Summary: "22.5°C heating",
		RRule:   "FREQ=WEEKLY;INTERVAL=1;BYDAY=WE,TH",
		Start:   time.Date(2023, 1, 4, 6, 0, 0, 0, loc),
		End:     time.Date(2023, 1, 4, 8, 30, 0, 0, loc),
	}

	out, err := CreateScheduleEvent(tp, ev, true)
	assert.NoError(t, err)
	assert.Len(t, out.Days[domain.WEDNESDAY], 1)
	assert.Len(t, out.Days[domain.THURSDAY], 1)
	created := out.Days[domain.WEDNESDAY][0]
	assert.Equal(t, 360, created.StartMinute)
	assert.Equal(t, 510, created.EndMinute)
	assert.Equal(t, 22.5, *created.Setpoint)
	assert.Equal(t, domain.WEDNESDAY, created.Weekday)
	// source program untouched
	assert.Empty(t, tp.Days[domain.WEDNESDAY])
}

func TestCreateScheduleEventRejectsNonWeeklyRule(t *testing.T) {
	tp := testProgram()
	loc := berlin(t)
	ev := domain.CalendarEventWrite{
		Summary: "21°C",
		RRule:   "FREQ=DAILY;INTERVAL=1",
		Start:   time.Date(2023, 1, 4, 6, 0, 0, 0, loc),
		End:     time.Date(2023, 1, 4, 8, 0, 0, 0, loc),
	}

	_, err := CreateScheduleEvent(tp, ev, true)
	assert.True(t, domain.IsValidationError(err))
	// in-memory program unchanged
	assert.Len(t, tp.Days[domain.MONDAY], 2)
	assert.Empty(t, tp.Days[domain.WEDNESDAY])
}

func TestCreateScheduleEventValidation(t *testing.T) {
	tp := testProgram()
	loc := berlin(t)
	base := domain.CalendarEventWrite{
		Summary: "21°C",
		RRule:   "FREQ=WEEKLY;INTERVAL=1;BYDAY=MO",
		Start:   time.Date(2023, 1, 2, 6, 0, 0, 0, loc),
		End:     time.Date(2023, 1, 2, 8, 0, 0, 0, loc),
	}

	// overlapping the 05:00-10:00 monday slot
	_, err := CreateScheduleEvent(tp, base, true)
	assert.True(t, domain.IsValidationError(err))

	// crossing a day boundary
	ev := base
	ev.Start = time.Date(2023, 1, 4, 22, 0, 0, 0, loc)
	ev.End = time.Date(2023, 1, 5, 2, 0, 0, 0, loc)
	ev.RRule = "FREQ=WEEKLY;INTERVAL=1;BYDAY=WE"
	_, err = CreateScheduleEvent(tp, ev, true)
	assert.True(t, domain.IsValidationError(err))

	// end before start on the same day
	ev = base
	ev.Start = time.Date(2023, 1, 4, 8, 0, 0, 0, loc)
	ev.End = time.Date(2023, 1, 4, 6, 0, 0, 0, loc)
	ev.RRule = "FREQ=WEEKLY;INTERVAL=1;BYDAY=WE"
	_, err = CreateScheduleEvent(tp, ev, true)
	assert.True(t, domain.IsValidationError(err))

	// malformed temperature summary
	ev = base
	ev.Start = time.Date(2023, 1, 4, 6, 0, 0, 0, loc)
	ev.End = time.Date(2023, 1, 4, 8, 0, 0, 0, loc)
	ev.RRule = "FREQ=WEEKLY;INTERVAL=1;BYDAY=WE"
	ev.Summary = "warm please"
	_, err = CreateScheduleEvent(tp, ev, true)
	assert.True(t, domain.IsValidationError(err))
}

func TestCreateScheduleEventEndOfDay(t *testing.T) {
	tp := domain.NewTimeProgram()
	loc := berlin(t)
	ev := domain.CalendarEventWrite{
		Summary: "19°C",
		RRule:   "FREQ=WEEKLY;INTERVAL=1;BYDAY=FR",
		Start:   time.Date(2023, 1, 6, 22, 0, 0, 0, loc),
		End:     time.Date(2023, 1, 7, 0, 0, 0, 0, loc),
	}

	out, err := CreateScheduleEvent(tp, ev, false)
	assert.NoError(t, err)
	created := out.Days[domain.FRIDAY][0]
	assert.Equal(t, 1320, created.StartMinute)
	assert.Equal(t, 1440, created.EndMinute)
	assert.Nil(t, created.Setpoint)
}

func TestUpdateScheduleEventMutatesEqualSlots(t *testing.T) {
	tp := testProgram()
	loc := berlin(t)
	// target the monday 05:00-10:00 slot; tuesday holds an equal one
	slot, _ := tp.Slot(domain.MONDAY, 0)
	ev := domain.CalendarEventWrite{
		RecurrenceID: domain.SlotUID("zone_heating_0", slot, time.Date(2023, 1, 2, 0, 0, 0, 0, loc)),
		Scope:        ScopeThisAndFuture,
		Summary:      "18°C",
		RRule:        "FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,TU,WE",
		Start:        time.Date(2023, 1, 2, 6, 0, 0, 0, loc),
		End:          time.Date(2023, 1, 2, 9, 0, 0, 0, loc),
	}

	out, err := UpdateScheduleEvent(tp, ev, true)
	assert.NoError(t, err)

	// monday and tuesday slots mutated in place, wednesday appended
	monday := out.Days[domain.MONDAY]
	assert.Len(t, monday, 2)
	assert.Equal(t, 360, monday[0].StartMinute)
	assert.Equal(t, 540, monday[0].EndMinute)
	assert.Equal(t, 18.0, *monday[0].Setpoint)
	assert.Equal(t, 900, monday[1].StartMinute)

	tuesday := out.Days[domain.TUESDAY]
	assert.Len(t, tuesday, 1)
	assert.Equal(t, 360, tuesday[0].StartMinute)

	wednesday := out.Days[domain.WEDNESDAY]
	assert.Len(t, wednesday, 1)
	assert.Equal(t, 18.0, *wednesday[0].Setpoint)

	// source program untouched
	assert.Equal(t, 300, tp.Days[domain.MONDAY][0].StartMinute)
	assert.Equal(t, 21.0, *tp.Days[domain.MONDAY][0].Setpoint)
}

func TestUpdateScheduleEventScope(t *testing.T) {
	tp := testProgram()
	loc := berlin(t)
	slot, _ := tp.Slot(domain.MONDAY, 0)
	ev := domain.CalendarEventWrite{
		RecurrenceID: domain.SlotUID("zone_heating_0", slot, time.Date(2023, 1, 2, 0, 0, 0, 0, loc)),
		Scope:        "THISONE",
		Summary:      "18°C",
		RRule:        "FREQ=WEEKLY;INTERVAL=1;BYDAY=MO",
		Start:        time.Date(2023, 1, 2, 6, 0, 0, 0, loc),
		End:          time.Date(2023, 1, 2, 9, 0, 0, 0, loc),
	}

	_, err := UpdateScheduleEvent(tp, ev, true)
	assert.True(t, domain.IsValidationError(err))

	ev.Scope = ScopeThisAndFuture
	ev.RecurrenceID = ""
	_, err = UpdateScheduleEvent(tp, ev, true)
	assert.True(t, domain.IsValidationError(err))
}

func TestUpdateScheduleEventOverlapRollsBack(t *testing.T) {
	tp := testProgram()
	loc := berlin(t)
	slot, _ := tp.Slot(domain.MONDAY, 0)
	ev := domain.CalendarEventWrite{
		RecurrenceID: domain.SlotUID("zone_heating_0", slot, time.Date(2023, 1, 2, 0, 0, 0, 0, loc)),
		Scope:        ScopeThisAndFuture,
		Summary:      "18°C",
		RRule:        "FREQ=WEEKLY;INTERVAL=1;BYDAY=MO",
		// stretches into the 15:00 slot
		Start: time.Date(2023, 1, 2, 6, 0, 0, 0, loc),
		End:   time.Date(2023, 1, 2, 16, 0, 0, 0, loc),
	}

	_, err := UpdateScheduleEvent(tp, ev, true)
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, 600, tp.Days[domain.MONDAY][0].EndMinute)
}

func TestDeleteScheduleEvent(t *testing.T) {
	tp := testProgram()
	loc := berlin(t)
	slot, _ := tp.Slot(domain.MONDAY, 0)
	ev := domain.CalendarEventWrite{
		RecurrenceID: domain.SlotUID("zone_heating_0", slot, time.Date(2023, 1, 2, 0, 0, 0, 0, loc)),
		Scope:        ScopeThisAndFuture,
	}

	out, err := DeleteScheduleEvent(tp, ev)
	assert.NoError(t, err)
	assert.Len(t, out.Days[domain.MONDAY], 1)
	assert.Equal(t, 900, out.Days[domain.MONDAY][0].StartMinute)
	assert.Equal(t, 0, out.Days[domain.MONDAY][0].Index)
	// tuesday untouched, source untouched
	assert.Len(t, out.Days[domain.TUESDAY], 1)
	assert.Len(t, tp.Days[domain.MONDAY], 2)

	ev.Scope = "ALL"
	_, err = DeleteScheduleEvent(tp, ev)
	assert.True(t, domain.IsValidationError(err))

	// a bare UID does not stand in for the recurrence id
	ev.Scope = ScopeThisAndFuture
	ev.UID = ev.RecurrenceID
	ev.RecurrenceID = ""
	_, err = DeleteScheduleEvent(tp, ev)
	assert.True(t, domain.IsValidationError(err))
}
