package builtins

import (
	"math"
	"time"

	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"
)

// Points in time are numbers of milliseconds since the Unix epoch. Calendar
// parts are arrays of [year, month, day, hour, minute, second, millisecond]
// with months counted from 1.

const timeStringLayout = "2006-01-02T15:04:05.000Z07:00"

// timeStringLayouts are tried in order when parsing.
var timeStringLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// maxMillis is the largest distance from the epoch a time value may have.
const maxMillis = 8.64e15

func toTime(v object.Value, loc *time.Location) (time.Time, bool) {
	ms := toNumber(v)
	if math.IsNaN(ms) || math.Abs(ms) > maxMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).In(loc), true
}

func calendarParts(loc func() *time.Location) *function.Definition {
	return function.New(
		func(args ...object.Value) object.Value {
			t, ok := toTime(args[0], loc())
			if !ok {
				return nil
			}
			parts := []int{
				t.Year(), int(t.Month()), t.Day(),
				t.Hour(), t.Minute(), t.Second(), t.Nanosecond() / int(time.Millisecond),
			}
			elements := make([]object.Value, len(parts))
			for i, p := range parts {
				elements[i] = object.Number{Value: float64(p)}
			}
			return object.Array{Elements: elements}
		},
		types.TypeArray, []types.Type{types.TypeNumber},
		independent,
	)
}

func fromCalendarParts(loc func() *time.Location) *function.Definition {
	return function.New(
		func(args ...object.Value) object.Value {
			a, _ := args[0].(object.Array)
			parts := [7]int{1970, 1, 1}
			for i := 0; i < len(parts) && i < len(a.Elements); i++ {
				n := toNumber(a.Elements[i])
				if math.IsNaN(n) || math.IsInf(n, 0) {
					return nil
				}
				parts[i] = int(n)
			}
			t := time.Date(parts[0], time.Month(parts[1]), parts[2],
				parts[3], parts[4], parts[5], parts[6]*int(time.Millisecond), loc())
			return object.Number{Value: millis(t)}
		},
		types.TypeNumber, []types.Type{types.TypeArray},
		independent,
	)
}

func utc() *time.Location   { return time.UTC }
func local() *time.Location { return time.Local }

var (
	FuncToUniversalTime   = calendarParts(utc)
	FuncFromUniversalTime = fromCalendarParts(utc)
	FuncToLocalTime       = calendarParts(local)
	FuncFromLocalTime     = fromCalendarParts(local)
)

func calendarIndex(loc func() *time.Location, part func(time.Time) int) *function.Definition {
	return function.New(
		func(args ...object.Value) object.Value {
			t, ok := toTime(args[0], loc())
			if !ok {
				return nil
			}
			return object.Number{Value: float64(part(t))}
		},
		types.TypeNumber, []types.Type{types.TypeNumber},
	)
}

func monthIndex(t time.Time) int   { return int(t.Month()) - 1 }
func weekdayIndex(t time.Time) int { return int(t.Weekday()) }

var (
	FuncToUniversalTimeMonthIndex   = calendarIndex(utc, monthIndex)
	FuncToLocalTimeMonthIndex       = calendarIndex(local, monthIndex)
	FuncToUniversalTimeWeekdayIndex = calendarIndex(utc, weekdayIndex)
	FuncToLocalTimeWeekdayIndex     = calendarIndex(local, weekdayIndex)
)

// FuncToTimeString formats a time as ISO 8601 in UTC with milliseconds.
var FuncToTimeString = function.New(
	func(args ...object.Value) object.Value {
		t, ok := toTime(args[0], time.UTC)
		if !ok {
			return nil
		}
		return object.String{Value: t.Format(timeStringLayout)}
	},
	types.TypeString, []types.Type{types.TypeNumber},
	independent,
)

// FuncFromTimeString parses an ISO 8601 time. Strings without a zone are read
// as UTC. Unparseable input yields NaN.
var FuncFromTimeString = function.New(
	func(args ...object.Value) object.Value {
		s, _ := toString(args[0])
		for _, layout := range timeStringLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return object.Number{Value: millis(t)}
			}
		}
		return nil
	},
	types.TypeNumber, []types.Type{types.TypeString},
	independent,
)
