package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func weeklyTestProgram() TimeProgram {
	tp := NewTimeProgram()
	tp.Days[MONDAY] = []Slot{
		{Index: 0, Weekday: MONDAY, StartMinute: 300, EndMinute: 600, Setpoint: setpoint(21)},
		{Index: 1, Weekday: MONDAY, StartMinute: 900, EndMinute: 0, Setpoint: setpoint(20)},
	}
	tp.Days[TUESDAY] = []Slot{
		{Index: 0, Weekday: TUESDAY, StartMinute: 300, EndMinute: 600, Setpoint: setpoint(21)},
	}
	return tp
}

func TestEventsInWindow(t *testing.T) {

	assert := assert.New(t)

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	// 2023-01-02 is a Monday
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 7)

	events := EventsInWindow(weeklyTestProgram(), "zone_heating_0", loc, start, end)
	if !assert.Len(events, 3) {
		return
	}

	assert.Equal("zone_heating_0_monday_0_2023-01-02", events[0].UID)
	assert.Equal("21°C", events[0].Summary)
	assert.Equal(time.Date(2023, 1, 2, 5, 0, 0, 0, loc), events[0].Start)
	assert.Equal(time.Date(2023, 1, 2, 10, 0, 0, 0, loc), events[0].End)
	assert.Equal("FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,TU", events[0].RRule, "identical slot repeats on tuesday")

	// end minute 0 spans to the next midnight
	assert.Equal("zone_heating_0_monday_1_2023-01-02", events[1].UID)
	assert.Equal(time.Date(2023, 1, 2, 15, 0, 0, 0, loc), events[1].Start)
	assert.Equal(time.Date(2023, 1, 3, 0, 0, 0, 0, loc), events[1].End)
	assert.Equal("FREQ=WEEKLY;INTERVAL=1;BYDAY=MO", events[1].RRule)

	assert.Equal("zone_heating_0_tuesday_0_2023-01-03", events[2].UID)
	assert.Equal(time.Date(2023, 1, 3, 5, 0, 0, 0, loc), events[2].Start)
}

func TestEventsInWindowClipsToWindow(t *testing.T) {

	assert := assert.New(t)

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	// window covers monday afternoon only: the morning slot is already over,
	// the evening slot still intersects
	start := time.Date(2023, 1, 2, 12, 0, 0, 0, loc)
	end := time.Date(2023, 1, 2, 23, 0, 0, 0, loc)

	events := EventsInWindow(weeklyTestProgram(), "zone_heating_0", loc, start, end)
	if !assert.Len(events, 1) {
		return
	}
	assert.Equal("zone_heating_0_monday_1_2023-01-02", events[0].UID)
}

func TestEventsInWindowSlotWithoutSetpoint(t *testing.T) {

	assert := assert.New(t)

	loc := time.UTC
	tp := NewTimeProgram()
	tp.Days[MONDAY] = []Slot{
		{Index: 0, Weekday: MONDAY, StartMinute: 360, EndMinute: 480},
	}

	start := time.Date(2023, 1, 2, 0, 0, 0, 0, loc)
	events := EventsInWindow(tp, "dhw_255", loc, start, start.AddDate(0, 0, 1))
	if !assert.Len(events, 1) {
		return
	}
	assert.Equal("on", events[0].Summary)
}

func TestCurrentEvent(t *testing.T) {

	assert := assert.New(t)

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2023, 1, 2, 0, 0, 0, 0, loc)
	events := EventsInWindow(weeklyTestProgram(), "zone_heating_0", loc, start, start.AddDate(0, 0, 7))

	// inside the first slot
	current := CurrentEvent(events, time.Date(2023, 1, 2, 6, 0, 0, 0, loc))
	if assert.NotNil(current) {
		assert.Equal("zone_heating_0_monday_0_2023-01-02", current.UID)
	}

	// between slots, the next upcoming one wins
	current = CurrentEvent(events, time.Date(2023, 1, 2, 12, 0, 0, 0, loc))
	if assert.NotNil(current) {
		assert.Equal("zone_heating_0_monday_1_2023-01-02", current.UID)
	}

	// past the whole window, fall back to the first event
	current = CurrentEvent(events, time.Date(2023, 1, 10, 0, 0, 0, 0, loc))
	if assert.NotNil(current) {
		assert.Equal(events[0].UID, current.UID)
	}

	assert.Nil(CurrentEvent(nil, time.Now()))
}
