package convert

import (
	"strconv"
	"strings"

	"cardbridge/internal/temporal"
)

const (
	tzUTC       = "Etc/UTC"
	tzEtcGMT    = "Etc/GMT"
	valueOffset = "utc-offset"
)

// timeZoneFromVCard maps a vCard TZ value to a JSContact time zone id. UTC
// offsets in whole hours become Etc/GMT zones (whose sign is inverted), zero
// becomes Etc/UTC, and any other offset becomes prefix followed by "+hhmm".
// Anything that is not an offset is returned unchanged.
func timeZoneFromVCard(value, prefix string) string {
	offset, err := temporal.ParseOffset(strings.TrimSpace(value))
	if err != nil || strings.EqualFold(value, "z") {
		return value
	}

	switch {
	case offset == 0:
		return tzUTC
	case offset%3600 == 0:
		// Etc/GMT+5 is five hours behind UTC
		h := -offset / 3600
		if h > 0 {
			return tzEtcGMT + "+" + strconv.Itoa(h)
		}

		return tzEtcGMT + strconv.Itoa(h)
	default:
		return prefix + temporal.FormatOffset(offset)
	}
}

// offsetFromTimeZone reverses timeZoneFromVCard. It reports false for time
// zones that do not denote a fixed offset.
func offsetFromTimeZone(tz, prefix string) (int, bool) {
	switch {
	case tz == tzUTC || tz == "Etc/GMT" || tz == "UTC":
		return 0, true
	case strings.HasPrefix(tz, tzEtcGMT+"+") || strings.HasPrefix(tz, tzEtcGMT+"-"):
		h, err := strconv.Atoi(tz[len(tzEtcGMT):])
		if err != nil || h < -14 || h > 12 {
			return 0, false
		}

		return -h * 3600, true
	case prefix != "" && strings.HasPrefix(tz, prefix):
		offset, err := temporal.ParseOffset(tz[len(prefix):])
		if err != nil {
			return 0, false
		}

		return offset, true
	}

	return 0, false
}

// formatOffset writes an offset the way version v expects: "-0500" for 4.0
// and "-05:00" for older versions.
func formatOffset(offset int, extended bool) string {
	s := temporal.FormatOffset(offset)
	if extended {
		return s[:3] + ":" + s[3:]
	}

	return s
}
