package temporal

import (
	"time"
)

// Mode selects how the time of day and the zone offset are encoded.
type Mode int

const (
	UTCTime Mode = iota
	LocalTime
	NonZeroTime
)

// Value is a possibly partial calendar value.
type Value struct {
	Year  int // 0 = unknown
	Month int // 0 = unknown
	Day   int // 0 = unknown

	Hour       int
	Minute     int
	Second     int
	Nanosecond int
	HasTime    bool

	// Offset is the zone offset in seconds east of UTC; meaningful only
	// when HasOffset is set.
	Offset    int
	HasOffset bool
}

// Date returns a date-only value.
func Date(year, month, day int) Value {
	return Value{Year: year, Month: month, Day: day}
}

// FromTime returns the full value of t, keeping its zone offset.
func FromTime(t time.Time) Value {
	_, offset := t.Zone()

	return Value{
		Year:       t.Year(),
		Month:      int(t.Month()),
		Day:        t.Day(),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
		HasTime:    true,
		Offset:     offset,
		HasOffset:  true,
	}
}

// HasDate reports whether any date field is known.
func (v Value) HasDate() bool {
	return v.Year != 0 || v.Month != 0 || v.Day != 0
}

// IsFullDate reports whether year, month and day are all known.
func (v Value) IsFullDate() bool {
	return v.Year != 0 && v.Month != 0 && v.Day != 0
}

// IsPartial reports whether the value has a date with at least one unknown field.
func (v Value) IsPartial() bool {
	return v.HasDate() && !v.IsFullDate()
}

// IsFloating reports whether v has a time of day but no zone offset.
func (v Value) IsFloating() bool {
	return v.HasTime && !v.HasOffset
}

// IsMidnight reports whether hour, minute, second and fraction are all zero.
func (v Value) IsMidnight() bool {
	return v.Hour == 0 && v.Minute == 0 && v.Second == 0 && v.Nanosecond == 0
}

// Time returns the instant described by v. Floating values are read as UTC.
// It fails for partial values.
func (v Value) Time() (time.Time, bool) {
	if !v.IsFullDate() {
		return time.Time{}, false
	}

	loc := time.UTC
	if v.HasOffset && v.Offset != 0 {
		loc = time.FixedZone("", v.Offset)
	}

	return time.Date(v.Year, time.Month(v.Month), v.Day,
		v.Hour, v.Minute, v.Second, v.Nanosecond, loc), true
}

// UTC returns v moved to offset zero. Values without a full date only have
// their clock shifted.
func (v Value) UTC() Value {
	if !v.HasOffset || v.Offset == 0 || !v.HasTime {
		v.Offset = 0

		return v
	}

	if t, ok := v.Time(); ok {
		return FromTime(t.UTC())
	}

	const day = 24 * 60 * 60

	secs := ((v.Hour*3600+v.Minute*60+v.Second-v.Offset)%day + day) % day
	v.Hour, v.Minute, v.Second = secs/3600, secs%3600/60, secs%60
	v.Offset = 0

	return v
}
