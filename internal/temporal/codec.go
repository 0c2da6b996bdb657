package temporal

import (
	"fmt"
	"strings"
	"time"

	"cardbridge/internal/diagnostic"
	"cardbridge/utils"
)

// ParseError reports text that no supported date/time form accepts.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as date/time: %s", e.Text, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return diagnostic.ErrTemporalParse
}

// Encode returns the extended ISO 8601 text of v.
func Encode(v Value, mode Mode) string {
	return format(v, mode, false)
}

// EncodeBasic returns the vCard 4.0 basic-format text of v.
func EncodeBasic(v Value, mode Mode) string {
	return format(v, mode, true)
}

// EncodePartial returns v as exactly "YYYY-MM-DD", writing zeros for
// unknown fields.
func EncodePartial(v Value) string {
	return fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day)
}

func format(v Value, mode Mode, basic bool) string {
	showTime := v.HasTime

	switch mode {
	case UTCTime:
		if v.IsFullDate() {
			showTime = true
		}

		v = v.UTC()
	case NonZeroTime:
		if v.IsMidnight() {
			showTime = false
		}
	case LocalTime:
	}

	var b strings.Builder

	b.WriteString(formatDate(v, basic))

	if showTime {
		b.WriteString(formatClock(v, basic))

		switch mode {
		case UTCTime:
			b.WriteByte('Z')
		case NonZeroTime:
			if v.HasOffset && v.Offset != 0 {
				b.WriteString(formatOffset(v.Offset, basic))
			}
		case LocalTime:
		}
	}

	return b.String()
}

func formatDate(v Value, basic bool) string {
	y, m, d := v.Year != 0, v.Month != 0, v.Day != 0

	switch {
	case y && m && d:
		if basic {
			return fmt.Sprintf("%04d%02d%02d", v.Year, v.Month, v.Day)
		}

		return fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day)
	case y && m:
		return fmt.Sprintf("%04d-%02d", v.Year, v.Month)
	case y && d:
		// No reduced form exists for year and day without month.
		return EncodePartial(v)
	case y:
		return fmt.Sprintf("%04d", v.Year)
	case m && d:
		if basic {
			return fmt.Sprintf("--%02d%02d", v.Month, v.Day)
		}

		return fmt.Sprintf("--%02d-%02d", v.Month, v.Day)
	case m:
		return fmt.Sprintf("--%02d", v.Month)
	case d:
		return fmt.Sprintf("---%02d", v.Day)
	default:
		return ""
	}
}

func formatClock(v Value, basic bool) string {
	var s string
	if basic {
		s = fmt.Sprintf("T%02d%02d%02d", v.Hour, v.Minute, v.Second)
	} else {
		s = fmt.Sprintf("T%02d:%02d:%02d", v.Hour, v.Minute, v.Second)
	}

	if v.Nanosecond != 0 {
		s += "." + strings.TrimRight(fmt.Sprintf("%09d", v.Nanosecond), "0")
	}

	return s
}

func formatOffset(offset int, basic bool) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}

	h, m := offset/3600, offset%3600/60
	if basic {
		return fmt.Sprintf("%c%02d%02d", sign, h, m)
	}

	return fmt.Sprintf("%c%02d:%02d", sign, h, m)
}

// FormatOffset returns a zone offset in seconds as "+hhmm".
func FormatOffset(offset int) string {
	return formatOffset(offset, true)
}

// ParseOffset parses "Z", "+hh", "+hhmm" or "+hh:mm" into seconds east of UTC.
func ParseOffset(s string) (int, error) {
	if s == "Z" || s == "z" {
		return 0, nil
	}

	if len(s) < 3 || (s[0] != '+' && s[0] != '-') {
		return 0, &ParseError{Text: s, Reason: "invalid zone offset"}
	}

	body := strings.ReplaceAll(s[1:], ":", "")

	var h, m int

	var ok bool

	switch len(body) {
	case 2:
		h, ok = digits(body)
	case 4:
		h, ok = digits(body[:2])
		if ok {
			m, ok = digits(body[2:])
		}
	}

	if !ok || !utils.IsInRange(0, h, 23) || !utils.IsInRange(0, m, 59) {
		return 0, &ParseError{Text: s, Reason: "invalid zone offset"}
	}

	offset := h*3600 + m*60
	if s[0] == '-' {
		offset = -offset
	}

	return offset, nil
}

// Decode parses any supported date, date-time, partial date or time text.
func Decode(text string) (Value, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Value{}, &ParseError{Text: text, Reason: "empty"}
	}

	datePart, timePart := s, ""
	if i := strings.IndexAny(s, "Tt"); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
		if timePart == "" {
			return Value{}, &ParseError{Text: text, Reason: "empty time of day"}
		}
	}

	var v Value

	if datePart != "" {
		if err := parseDate(datePart, &v); err != nil {
			return Value{}, &ParseError{Text: text, Reason: err.Error()}
		}
	}

	if timePart != "" {
		if err := parseTime(timePart, &v); err != nil {
			return Value{}, &ParseError{Text: text, Reason: err.Error()}
		}
	}

	return v, nil
}

func parseDate(s string, v *Value) error {
	var ok bool

	switch {
	case strings.HasPrefix(s, "---"):
		v.Day, ok = digits2(s[3:])
	case strings.HasPrefix(s, "--"):
		rest := s[2:]

		switch {
		case len(rest) == 2:
			v.Month, ok = digits2(rest)
		case len(rest) == 4:
			v.Month, ok = digits2(rest[:2])
			if ok {
				v.Day, ok = digits2(rest[2:])
			}
		case len(rest) == 5 && rest[2] == '-':
			v.Month, ok = digits2(rest[:2])
			if ok {
				v.Day, ok = digits2(rest[3:])
			}
		}
	case strings.Contains(s, "-"):
		parts := strings.Split(s, "-")
		if len(parts) > 3 || len(parts[0]) != 4 {
			break
		}

		v.Year, ok = digits(parts[0])
		if ok {
			v.Month, ok = digits2(parts[1])
		}

		if ok && len(parts) == 3 {
			v.Day, ok = digits2(parts[2])
		}
	case len(s) == 8:
		v.Year, ok = digits(s[:4])
		if ok {
			v.Month, ok = digits2(s[4:6])
		}

		if ok {
			v.Day, ok = digits2(s[6:])
		}
	case len(s) == 4:
		v.Year, ok = digits(s)
	}

	if !ok {
		return fmt.Errorf("unrecognized date %q", s)
	}

	if !utils.IsInRange(0, v.Month, 12) || !utils.IsInRange(0, v.Day, 31) {
		return fmt.Errorf("date %q out of range", s)
	}

	if v.IsFullDate() {
		t := time.Date(v.Year, time.Month(v.Month), v.Day, 0, 0, 0, 0, time.UTC)
		if t.Day() != v.Day {
			return fmt.Errorf("no such day %q", s)
		}
	}

	return nil
}

func parseTime(s string, v *Value) error {
	switch {
	case strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z"):
		v.HasOffset = true
		s = s[:len(s)-1]
	default:
		if i := strings.LastIndexAny(s, "+-"); i > 0 {
			offset, err := ParseOffset(s[i:])
			if err != nil {
				return err
			}

			v.Offset, v.HasOffset = offset, true
			s = s[:i]
		} else if i == 0 {
			return fmt.Errorf("truncated time %q is not supported", s)
		}
	}

	if i := strings.IndexAny(s, ".,"); i >= 0 {
		frac := s[i+1:]
		if frac == "" || len(frac) > 9 {
			return fmt.Errorf("invalid fraction in %q", s)
		}

		ns, ok := digits(frac + strings.Repeat("0", 9-len(frac)))
		if !ok {
			return fmt.Errorf("invalid fraction in %q", s)
		}

		v.Nanosecond = ns
		s = s[:i]
	}

	clock := strings.ReplaceAll(s, ":", "")

	var ok bool

	switch len(clock) {
	case 2:
		v.Hour, ok = digits2(clock)
	case 4:
		v.Hour, ok = digits2(clock[:2])
		if ok {
			v.Minute, ok = digits2(clock[2:])
		}
	case 6:
		v.Hour, ok = digits2(clock[:2])
		if ok {
			v.Minute, ok = digits2(clock[2:4])
		}

		if ok {
			v.Second, ok = digits2(clock[4:])
		}
	}

	if !ok {
		return fmt.Errorf("unrecognized time %q", s)
	}

	if !utils.IsInRange(0, v.Hour, 23) || !utils.IsInRange(0, v.Minute, 59) || !utils.IsInRange(0, v.Second, 60) {
		return fmt.Errorf("time %q out of range", s)
	}

	v.HasTime = true

	return nil
}

func digits2(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}

	return digits(s)
}

func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	n := 0

	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}

		n = n*10 + int(r-'0')
	}

	return n, true
}
