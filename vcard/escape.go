package vcard

import (
	"strings"
)

// EscapeText escapes a TEXT value. Commas are left alone in 2.1, which has
// no comma escape.
func EscapeText(s string, v Version) string {
	var b strings.Builder

	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		case ';':
			b.WriteString(`\;`)
		case ',':
			if v == V21 {
				b.WriteByte(',')
			} else {
				b.WriteString(`\,`)
			}
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// EscapeTextKeepCommas escapes a TEXT value whose commas separate list items.
func EscapeTextKeepCommas(s string) string {
	return EscapeText(s, V21)
}

// UnescapeText reverses EscapeText.
func UnescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder

	escaped := false

	for _, r := range s {
		if escaped {
			switch r {
			case 'n', 'N':
				b.WriteByte('\n')
			default:
				b.WriteRune(r)
			}

			escaped = false

			continue
		}

		if r == '\\' {
			escaped = true

			continue
		}

		b.WriteRune(r)
	}

	if escaped {
		b.WriteByte('\\')
	}

	return b.String()
}

// SplitUnescaped splits s at every sep that is not backslash-escaped. The
// pieces keep their escapes.
func SplitUnescaped(s string, sep byte) []string {
	var parts []string

	start := 0
	escaped := false

	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}

// SplitStructured splits a structured value into its semicolon-separated
// slots and each slot into its comma-separated, unescaped values.
func SplitStructured(value string) [][]string {
	slots := SplitUnescaped(value, ';')
	out := make([][]string, len(slots))

	for i, slot := range slots {
		if slot == "" {
			continue
		}

		for _, item := range SplitUnescaped(slot, ',') {
			out[i] = append(out[i], UnescapeText(item))
		}
	}

	return out
}

// JoinStructured is the inverse of SplitStructured.
func JoinStructured(slots [][]string, v Version) string {
	parts := make([]string, len(slots))

	for i, values := range slots {
		escaped := make([]string, len(values))
		for j, s := range values {
			escaped[j] = EscapeText(s, v)
		}

		parts[i] = strings.Join(escaped, ",")
	}

	return strings.Join(parts, ";")
}

// SplitTextList splits a comma-separated TEXT list and unescapes each item.
func SplitTextList(value string) []string {
	var out []string

	for _, item := range SplitUnescaped(value, ',') {
		out = append(out, UnescapeText(item))
	}

	return out
}

// JoinTextList is the inverse of SplitTextList.
func JoinTextList(items []string, v Version) string {
	escaped := make([]string, len(items))
	for i, s := range items {
		escaped[i] = EscapeText(s, v)
	}

	return strings.Join(escaped, ",")
}

// encodeParamValue applies RFC 6868 caret encoding.
func encodeParamValue(s string) string {
	r := strings.NewReplacer("^", "^^", "\n", "^n", `"`, "^'")

	return r.Replace(s)
}

// decodeParamValue reverses RFC 6868 caret encoding.
func decodeParamValue(s string) string {
	if !strings.Contains(s, "^") {
		return s
	}

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '^' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++

				continue
			case '^':
				b.WriteByte('^')
				i++

				continue
			case '\'':
				b.WriteByte('"')
				i++

				continue
			}
		}

		b.WriteByte(s[i])
	}

	return b.String()
}
