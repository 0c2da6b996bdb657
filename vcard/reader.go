package vcard

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime/quotedprintable"
	"strings"
)

// ErrSyntax is wrapped by every error returned from Parse.
var ErrSyntax = errors.New("vcard syntax error")

// listParams are split at every comma, quoted or not.
var listParams = map[string]bool{
	ParamType:   true,
	ParamSortAs: true,
	"pid":       true,
}

// bareEncodings are 2.1 parameters given without a name that set ENCODING.
var bareEncodings = map[string]bool{
	"quoted-printable": true,
	"base64":           true,
	"b":                true,
	"8bit":             true,
	"7bit":             true,
}

// Parse reads every vCard in r.
func Parse(r io.Reader) ([]*Card, error) {
	lines, err := logicalLines(r)
	if err != nil {
		return nil, err
	}

	var (
		cards []*Card
		cur   *Card
		depth int
	)

	for _, ln := range lines {
		if strings.TrimSpace(ln.text) == "" {
			continue
		}

		prop, err := parseLine(ln.text)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrSyntax, ln.number, err)
		}

		switch {
		case prop.Name == "BEGIN" && strings.EqualFold(prop.Value, "VCARD"):
			depth++
			if depth == 1 {
				cur = &Card{Version: V40}
			}

			continue
		case prop.Name == "END" && strings.EqualFold(prop.Value, "VCARD"):
			if depth == 0 {
				return nil, fmt.Errorf("%w: line %d: END without BEGIN", ErrSyntax, ln.number)
			}

			depth--
			if depth == 0 {
				cards = append(cards, cur)
				cur = nil
			}

			continue
		}

		switch {
		case depth == 0:
			return nil, fmt.Errorf("%w: line %d: property %s outside of a vCard", ErrSyntax, ln.number, prop.Name)
		case depth > 1:
			// nested 2.1 AGENT cards are not modelled
			continue
		case prop.Name == "VERSION":
			cur.Version = Version(strings.TrimSpace(prop.Value))
			if !cur.Version.IsValid() {
				return nil, fmt.Errorf("%w: line %d: unsupported version %q", ErrSyntax, ln.number, prop.Value)
			}
		default:
			if err := decodeValue(prop); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrSyntax, ln.number, err)
			}

			cur.Add(prop)
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("%w: unterminated vCard", ErrSyntax)
	}

	return cards, nil
}

// ParseString reads every vCard in s.
func ParseString(s string) ([]*Card, error) {
	return Parse(strings.NewReader(s))
}

type line struct {
	number int
	text   string
}

// logicalLines unfolds continuation lines and 2.1 quoted-printable soft breaks.
func logicalLines(r io.Reader) ([]line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []line

	n := 0

	for sc.Scan() {
		n++
		text := strings.TrimSuffix(sc.Text(), "\r")

		if len(out) > 0 {
			last := &out[len(out)-1]

			switch {
			case strings.HasPrefix(text, " ") || strings.HasPrefix(text, "\t"):
				last.text += text[1:]

				continue
			case isQuotedPrintable(last.text) && strings.HasSuffix(last.text, "="):
				last.text += "\n" + text

				continue
			}
		}

		out = append(out, line{number: n, text: text})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vcard: %w", err)
	}

	return out, nil
}

func isQuotedPrintable(text string) bool {
	head, _, found := strings.Cut(text, ":")
	if !found {
		return false
	}

	return strings.Contains(strings.ToUpper(head), "QUOTED-PRINTABLE")
}

// parseLine parses "[group.]name *(;param) : value".
func parseLine(text string) (*Property, error) {
	i := strings.IndexAny(text, ";:")
	if i <= 0 {
		return nil, fmt.Errorf("missing property name or value in %q", text)
	}

	prop := &Property{}

	name := text[:i]
	if g, n, ok := strings.Cut(name, "."); ok {
		prop.Group, name = g, n
	}

	if name == "" {
		return nil, fmt.Errorf("empty property name in %q", text)
	}

	prop.Name = strings.ToUpper(name)

	rest := text[i:]
	for strings.HasPrefix(rest, ";") {
		var (
			param Param
			err   error
		)

		param, rest, err = parseParam(rest[1:])
		if err != nil {
			return nil, err
		}

		if len(param.Values) > 0 {
			prop.Params.Add(param.Name, param.Values...)
		}
	}

	if !strings.HasPrefix(rest, ":") {
		return nil, fmt.Errorf("missing ':' in %q", text)
	}

	prop.Value = rest[1:]

	return prop, nil
}

// parseParam parses one parameter and returns the unconsumed remainder, which
// starts with ';' or ':'.
func parseParam(s string) (Param, string, error) {
	i := strings.IndexAny(s, "=;:")
	if i < 0 {
		return Param{}, "", fmt.Errorf("unterminated parameter %q", s)
	}

	name := strings.ToLower(strings.TrimSpace(s[:i]))
	if name == "" {
		return Param{}, "", fmt.Errorf("empty parameter name in %q", s)
	}

	if s[i] != '=' {
		// 2.1 bare parameter
		if bareEncodings[name] {
			return Param{Name: ParamEncoding, Values: []string{name}}, s[i:], nil
		}

		return Param{Name: ParamType, Values: []string{name}}, s[i:], nil
	}

	s = s[i+1:]

	var values []string

	for {
		var v string

		if strings.HasPrefix(s, `"`) {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				return Param{}, "", fmt.Errorf("unterminated quoted value for %s", name)
			}

			v, s = s[1:end+1], s[end+2:]
			if listParams[name] {
				values = append(values, splitList(decodeParamValue(v))...)
			} else {
				values = append(values, decodeParamValue(v))
			}
		} else {
			end := strings.IndexAny(s, ",;:")
			if end < 0 {
				return Param{}, "", fmt.Errorf("unterminated value for %s", name)
			}

			v, s = s[:end], s[end:]
			values = append(values, decodeParamValue(v))
		}

		if !strings.HasPrefix(s, ",") {
			break
		}

		s = s[1:]
	}

	if name == ParamType {
		for j, v := range values {
			values[j] = strings.ToLower(v)
		}
	}

	return Param{Name: name, Values: values}, s, nil
}

func splitList(s string) []string {
	return strings.Split(s, ",")
}

// decodeValue resolves 2.1 quoted-printable values to plain text.
func decodeValue(p *Property) error {
	if !strings.EqualFold(p.Params.Get(ParamEncoding), "quoted-printable") {
		return nil
	}

	raw := strings.ReplaceAll(p.Value, "=\n", "")

	b, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(raw)))
	if err != nil {
		return fmt.Errorf("%s: quoted-printable: %w", p.Name, err)
	}

	text := strings.ReplaceAll(string(b), "\r\n", "\n")
	p.Value = strings.ReplaceAll(text, "\n", `\n`)
	p.Params.Del(ParamEncoding)
	p.Params.Del(ParamCharset)

	return nil
}
