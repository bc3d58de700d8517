package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"myvaillant2mqtt/pkg/vaillant"
)

type Weekday string

const (
	MONDAY    Weekday = "monday"
	TUESDAY   Weekday = "tuesday"
	WEDNESDAY Weekday = "wednesday"
	THURSDAY  Weekday = "thursday"
	FRIDAY    Weekday = "friday"
	SATURDAY  Weekday = "saturday"
	SUNDAY    Weekday = "sunday"
)

// Weekdays in schedule order. All per-weekday iteration uses this order so
// programs render deterministically.
var Weekdays = []Weekday{MONDAY, TUESDAY, WEDNESDAY, THURSDAY, FRIDAY, SATURDAY, SUNDAY}

var weekdayToByDay = map[Weekday]string{
	MONDAY:    "MO",
	TUESDAY:   "TU",
	WEDNESDAY: "WE",
	THURSDAY:  "TH",
	FRIDAY:    "FR",
	SATURDAY:  "SA",
	SUNDAY:    "SU",
}

var byDayToWeekday = map[string]Weekday{
	"MO": MONDAY, "TU": TUESDAY, "WE": WEDNESDAY, "TH": THURSDAY,
	"FR": FRIDAY, "SA": SATURDAY, "SU": SUNDAY,
}

// WeekdayOf maps a calendar date to the schedule weekday.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return MONDAY
	case time.Tuesday:
		return TUESDAY
	case time.Wednesday:
		return WEDNESDAY
	case time.Thursday:
		return THURSDAY
	case time.Friday:
		return FRIDAY
	case time.Saturday:
		return SATURDAY
	}
	return SUNDAY
}

// Slot is one on-period within a weekday's program. Times are minute-of-day
// in [0, 1440]. EndMinute == 0 with StartMinute > 0 means the slot spans to
// the following midnight when rendered to calendar events.
type Slot struct {
	Index       int
	Weekday     Weekday
	StartMinute int
	EndMinute   int
	Setpoint    *float64
}

// SameValue is the deliberate value-based slot equality: index and weekday
// are ignored so a single weekly recurrence can cover identical slots
// across weekdays.
func (s Slot) SameValue(other Slot) bool {
	if s.StartMinute != other.StartMinute || s.EndMinute != other.EndMinute {
		return false
	}
	if (s.Setpoint == nil) != (other.Setpoint == nil) {
		return false
	}
	return s.Setpoint == nil || *s.Setpoint == *other.Setpoint
}

// EffectiveEndMinute resolves the end-of-day encoding for rendering.
func (s Slot) EffectiveEndMinute() int {
	if s.EndMinute == 0 && s.StartMinute > 0 {
		return 1440
	}
	return s.EndMinute
}

func (s Slot) clone() Slot {
	out := s
	if s.Setpoint != nil {
		v := *s.Setpoint
		out.Setpoint = &v
	}
	return out
}

// TimeProgram is a weekly repeating schedule: seven ordered slot sequences
// keyed by weekday.
type TimeProgram struct {
	Days map[Weekday][]Slot
}

func NewTimeProgram() TimeProgram {
	return TimeProgram{Days: map[Weekday][]Slot{}}
}

// TimeProgramFromAPI converts the wire shape into the slot table.
func TimeProgramFromAPI(api vaillant.TimeProgram) TimeProgram {
	tp := NewTimeProgram()
	wire := map[Weekday][]vaillant.TimePeriod{
		MONDAY: api.Monday, TUESDAY: api.Tuesday, WEDNESDAY: api.Wednesday,
		THURSDAY: api.Thursday, FRIDAY: api.Friday, SATURDAY: api.Saturday,
		SUNDAY: api.Sunday,
	}
	for _, day := range Weekdays {
		for i, period := range wire[day] {
			slot := Slot{
				Index:       i,
				Weekday:     day,
				StartMinute: period.StartTime,
				EndMinute:   period.EndTime,
			}
			if period.Setpoint != nil {
				v := *period.Setpoint
				slot.Setpoint = &v
			}
			tp.Days[day] = append(tp.Days[day], slot)
		}
	}
	return tp
}

// ToAPI converts back to the wire shape for a time-program write.
func (tp TimeProgram) ToAPI() vaillant.TimeProgram {
	periods := func(day Weekday) []vaillant.TimePeriod {
		var out []vaillant.TimePeriod
		for _, slot := range tp.Days[day] {
			period := vaillant.TimePeriod{StartTime: slot.StartMinute, EndTime: slot.EndMinute}
			if slot.Setpoint != nil {
				v := *slot.Setpoint
				period.Setpoint = &v
			}
			out = append(out, period)
		}
		return out
	}
	return vaillant.TimeProgram{
		Monday:    periods(MONDAY),
		Tuesday:   periods(TUESDAY),
		Wednesday: periods(WEDNESDAY),
		Thursday:  periods(THURSDAY),
		Friday:    periods(FRIDAY),
		Saturday:  periods(SATURDAY),
		Sunday:    periods(SUNDAY),
	}
}

// Clone deep-copies the program. Edits operate on a clone so a failing
// validation leaves the published model untouched.
func (tp TimeProgram) Clone() TimeProgram {
	out := NewTimeProgram()
	for day, slots := range tp.Days {
		cloned := make([]Slot, 0, len(slots))
		for _, slot := range slots {
			cloned = append(cloned, slot.clone())
		}
		out.Days[day] = cloned
	}
	return out
}

// Reindex rewrites Index and Weekday on every slot to match its position.
func (tp *TimeProgram) Reindex() {
	for _, day := range Weekdays {
		for i := range tp.Days[day] {
			tp.Days[day][i].Index = i
			tp.Days[day][i].Weekday = day
		}
	}
}

// CheckOverlap verifies that no two slots on the same weekday overlap.
func (tp TimeProgram) CheckOverlap() error {
	for _, day := range Weekdays {
		slots := tp.Days[day]
		for a := 0; a < len(slots); a++ {
			for b := a + 1; b < len(slots); b++ {
				if slots[a].EndMinute <= slots[b].StartMinute || slots[b].EndMinute <= slots[a].StartMinute {
					continue
				}
				return NewValidationError(
					"schedule slots overlap on %s: [%d, %d] and [%d, %d]",
					day, slots[a].StartMinute, slots[a].EndMinute,
					slots[b].StartMinute, slots[b].EndMinute)
			}
		}
	}
	return nil
}

// MatchingWeekdays returns the weekdays whose sequence contains a slot
// value-equal to the given one.
func (tp TimeProgram) MatchingWeekdays(slot Slot) []Weekday {
	var out []Weekday
	for _, day := range Weekdays {
		for _, candidate := range tp.Days[day] {
			if candidate.SameValue(slot) {
				out = append(out, day)
				break
			}
		}
	}
	return out
}

// HasSetpoints reports whether any slot of the program carries a setpoint.
// Zone heating programs do, DHW and circulation programs do not.
func (tp TimeProgram) HasSetpoints() bool {
	for _, slots := range tp.Days {
		for _, slot := range slots {
			if slot.Setpoint != nil {
				return true
			}
		}
	}
	return false
}

func (tp TimeProgram) Slot(day Weekday, index int) (Slot, bool) {
	slots := tp.Days[day]
	if index < 0 || index >= len(slots) {
		return Slot{}, false
	}
	return slots[index], true
}

// WeeklyRule renders the weekdays as an iCalendar weekly recurrence rule.
func WeeklyRule(days []Weekday) string {
	codes := make([]string, 0, len(days))
	for _, day := range days {
		codes = append(codes, weekdayToByDay[day])
	}
	return fmt.Sprintf("FREQ=WEEKLY;INTERVAL=1;BYDAY=%s", strings.Join(codes, ","))
}

// ParseWeeklyRule extracts the weekday set from a recurrence rule. A rule
// without a BYDAY component is a user-visible validation error.
func ParseWeeklyRule(rule string) ([]Weekday, error) {
	var byday string
	for _, part := range strings.Split(rule, ";") {
		if rest, found := strings.CutPrefix(part, "BYDAY="); found {
			byday = rest
		}
	}
	if byday == "" {
		return nil, NewValidationError("recurrence rule %q has no BYDAY component, only weekly schedules are supported", rule)
	}
	var out []Weekday
	for _, code := range strings.Split(byday, ",") {
		day, ok := byDayToWeekday[strings.TrimSpace(code)]
		if !ok {
			return nil, NewValidationError("unknown BYDAY code %q in recurrence rule", code)
		}
		out = append(out, day)
	}
	return out, nil
}

// SlotUID builds the stable per-instance event UID:
// <prefix>_<weekday>_<index>_<date>. The prefix is component-specific
// (zone_heating_0, dhw_255, ...) and may itself contain underscores, so
// parsing splits in reverse.
func SlotUID(prefix string, slot Slot, date time.Time) string {
	return fmt.Sprintf("%s_%s_%d_%s", prefix, slot.Weekday, slot.Index, date.Format(time.DateOnly))
}

// ParseSlotUID recovers (weekday, index, date) from a UID.
func ParseSlotUID(uid string) (Weekday, int, time.Time, error) {
	parts := strings.Split(uid, "_")
	if len(parts) < 4 {
		return "", 0, time.Time{}, NewValidationError("malformed event uid %q", uid)
	}
	date, err := time.Parse(time.DateOnly, parts[len(parts)-1])
	if err != nil {
		return "", 0, time.Time{}, NewValidationError("malformed date in event uid %q", uid)
	}
	index, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return "", 0, time.Time{}, NewValidationError("malformed slot index in event uid %q", uid)
	}
	day := Weekday(parts[len(parts)-3])
	if _, ok := weekdayToByDay[day]; !ok {
		return "", 0, time.Time{}, NewValidationError("unknown weekday in event uid %q", uid)
	}
	return day, index, date, nil
}
