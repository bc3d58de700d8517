package domain

import (
	"testing"
	"time"

	"myvaillant2mqtt/pkg/vaillant"

	"github.com/stretchr/testify/assert"
)

func setpoint(v float64) *float64 {
	return &v
}

func TestTimeProgramFromAPI(t *testing.T) {

	assert := assert.New(t)

	tp := TimeProgramFromAPI(vaillant.TimeProgram{
		Monday: []vaillant.TimePeriod{
			{StartTime: 300, EndTime: 600, Setpoint: setpoint(21)},
			{StartTime: 900, EndTime: 1440, Setpoint: setpoint(20)},
		},
		Tuesday: []vaillant.TimePeriod{
			{StartTime: 300, EndTime: 1320, Setpoint: setpoint(21)},
		},
	})

	assert.Len(tp.Days[MONDAY], 2)
	assert.Len(tp.Days[TUESDAY], 1)
	assert.Empty(tp.Days[WEDNESDAY])

	slot, ok := tp.Slot(MONDAY, 1)
	assert.True(ok)
	assert.Equal(1, slot.Index)
	assert.Equal(MONDAY, slot.Weekday)
	assert.Equal(900, slot.StartMinute)
	assert.Equal(1440, slot.EndMinute)
	if assert.NotNil(slot.Setpoint) {
		assert.Equal(20.0, *slot.Setpoint)
	}

	_, ok = tp.Slot(MONDAY, 2)
	assert.False(ok)

	assert.True(tp.HasSetpoints())
}

func TestTimeProgramCheckOverlap(t *testing.T) {

	assert := assert.New(t)

	tp := NewTimeProgram()
	tp.Days[MONDAY] = []Slot{
		{StartMinute: 300, EndMinute: 600},
		{StartMinute: 600, EndMinute: 900},
	}
	// back-to-back slots do not overlap
	assert.NoError(tp.CheckOverlap())

	tp.Days[MONDAY] = []Slot{
		{StartMinute: 300, EndMinute: 700},
		{StartMinute: 600, EndMinute: 900},
	}
	err := tp.CheckOverlap()
	assert.Error(err)
	assert.True(IsValidationError(err))

	// same window on different weekdays is fine
	tp = NewTimeProgram()
	tp.Days[MONDAY] = []Slot{{StartMinute: 300, EndMinute: 600}}
	tp.Days[TUESDAY] = []Slot{{StartMinute: 300, EndMinute: 600}}
	assert.NoError(tp.CheckOverlap())
}

func TestSlotEffectiveEndMinute(t *testing.T) {

	assert := assert.New(t)

	// end minute 0 with a positive start spans to the next midnight
	assert.Equal(1440, Slot{StartMinute: 900, EndMinute: 0}.EffectiveEndMinute())
	assert.Equal(600, Slot{StartMinute: 300, EndMinute: 600}.EffectiveEndMinute())
	assert.Equal(0, Slot{StartMinute: 0, EndMinute: 0}.EffectiveEndMinute())
}

func TestSlotSameValue(t *testing.T) {

	assert := assert.New(t)

	a := Slot{Index: 0, Weekday: MONDAY, StartMinute: 300, EndMinute: 600, Setpoint: setpoint(21)}
	b := Slot{Index: 2, Weekday: FRIDAY, StartMinute: 300, EndMinute: 600, Setpoint: setpoint(21)}
	assert.True(a.SameValue(b), "index and weekday are ignored")

	c := b
	c.Setpoint = setpoint(20)
	assert.False(a.SameValue(c))

	d := b
	d.Setpoint = nil
	assert.False(a.SameValue(d))

	e := Slot{StartMinute: 300, EndMinute: 600}
	f := Slot{StartMinute: 300, EndMinute: 600}
	assert.True(e.SameValue(f))
}

func TestTimeProgramMatchingWeekdays(t *testing.T) {

	assert := assert.New(t)

	tp := NewTimeProgram()
	tp.Days[MONDAY] = []Slot{{Index: 0, Weekday: MONDAY, StartMinute: 300, EndMinute: 600, Setpoint: setpoint(21)}}
	tp.Days[WEDNESDAY] = []Slot{{Index: 0, Weekday: WEDNESDAY, StartMinute: 300, EndMinute: 600, Setpoint: setpoint(21)}}
	tp.Days[FRIDAY] = []Slot{{Index: 0, Weekday: FRIDAY, StartMinute: 300, EndMinute: 600, Setpoint: setpoint(19)}}

	days := tp.MatchingWeekdays(Slot{StartMinute: 300, EndMinute: 600, Setpoint: setpoint(21)})
	assert.Equal([]Weekday{MONDAY, WEDNESDAY}, days)
}

func TestTimeProgramCloneIsIndependent(t *testing.T) {

	assert := assert.New(t)

	tp := NewTimeProgram()
	tp.Days[MONDAY] = []Slot{{Index: 0, Weekday: MONDAY, StartMinute: 300, EndMinute: 600, Setpoint: setpoint(21)}}

	clone := tp.Clone()
	clone.Days[MONDAY][0].StartMinute = 0
	*clone.Days[MONDAY][0].Setpoint = 15

	assert.Equal(300, tp.Days[MONDAY][0].StartMinute)
	assert.Equal(21.0, *tp.Days[MONDAY][0].Setpoint)
}

func TestTimeProgramReindex(t *testing.T) {

	assert := assert.New(t)

	tp := NewTimeProgram()
	tp.Days[MONDAY] = []Slot{
		{Index: 7, Weekday: SUNDAY, StartMinute: 300, EndMinute: 600},
		{Index: 7, Weekday: SUNDAY, StartMinute: 900, EndMinute: 1200},
	}
	tp.Reindex()

	assert.Equal(0, tp.Days[MONDAY][0].Index)
	assert.Equal(MONDAY, tp.Days[MONDAY][0].Weekday)
	assert.Equal(1, tp.Days[MONDAY][1].Index)
	assert.Equal(MONDAY, tp.Days[MONDAY][1].Weekday)
}

func TestWeeklyRuleRoundTrip(t *testing.T) {

	assert := assert.New(t)

	rule := WeeklyRule([]Weekday{MONDAY, WEDNESDAY, SUNDAY})
	assert.Equal("FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,WE,SU", rule)

	days, err := ParseWeeklyRule(rule)
	assert.NoError(err)
	assert.Equal([]Weekday{MONDAY, WEDNESDAY, SUNDAY}, days)
}

func TestParseWeeklyRuleErrors(t *testing.T) {

	assert := assert.New(t)

	_, err := ParseWeeklyRule("FREQ=DAILY;INTERVAL=1")
	assert.True(IsValidationError(err), "missing BYDAY")

	_, err = ParseWeeklyRule("FREQ=WEEKLY;BYDAY=MO,XX")
	assert.True(IsValidationError(err), "unknown weekday code")
}

func TestSlotUIDRoundTrip(t *testing.T) {

	assert := assert.New(t)

	date := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	slot := Slot{Index: 1, Weekday: MONDAY}

	// the prefix itself carries underscores, parsing has to split in reverse
	uid := SlotUID("zone_heating_0", slot, date)
	assert.Equal("zone_heating_0_monday_1_2023-01-02", uid)

	day, index, parsed, err := ParseSlotUID(uid)
	assert.NoError(err)
	assert.Equal(MONDAY, day)
	assert.Equal(1, index)
	assert.Equal("2023-01-02", parsed.Format(time.DateOnly))
}

func TestParseSlotUIDErrors(t *testing.T) {

	assert := assert.New(t)

	_, _, _, err := ParseSlotUID("garbage")
	assert.True(IsValidationError(err))

	_, _, _, err = ParseSlotUID("dhw_255_monday_x_2023-01-02")
	assert.True(IsValidationError(err), "bad index")

	_, _, _, err = ParseSlotUID("dhw_255_moonday_1_2023-01-02")
	assert.True(IsValidationError(err), "bad weekday")

	_, _, _, err = ParseSlotUID("dhw_255_monday_1_someday")
	assert.True(IsValidationError(err), "bad date")
}
