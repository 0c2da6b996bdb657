package vcard

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxLineOctets is the folding limit of RFC 6350 §3.2, excluding CRLF.
const maxLineOctets = 75

// Write writes cards in text form with CRLF line endings and folded lines.
func Write(w io.Writer, cards ...*Card) error {
	bw := bufio.NewWriter(w)

	for _, c := range cards {
		version := c.Version
		if version == "" {
			version = V40
		}

		writeLine(bw, "BEGIN:VCARD")
		writeLine(bw, "VERSION:"+string(version))

		for _, p := range c.Properties {
			writeLine(bw, formatProperty(p, version))
		}

		writeLine(bw, "END:VCARD")
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write vcard: %w", err)
	}

	return nil
}

// Marshal returns the text form of cards.
func Marshal(cards ...*Card) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, cards...); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func formatProperty(p *Property, v Version) string {
	var b strings.Builder

	if p.Group != "" {
		b.WriteString(p.Group)
		b.WriteByte('.')
	}

	b.WriteString(strings.ToUpper(p.Name))

	for _, param := range p.Params {
		if len(param.Values) == 0 {
			continue
		}

		if v == V21 && param.Name == ParamType {
			for _, t := range param.Values {
				b.WriteByte(';')
				b.WriteString(strings.ToUpper(t))
			}

			continue
		}

		b.WriteByte(';')
		b.WriteString(strings.ToUpper(param.Name))
		b.WriteByte('=')

		for i, val := range param.Values {
			if i > 0 {
				b.WriteByte(',')
			}

			b.WriteString(formatParamValue(val, v))
		}
	}

	b.WriteByte(':')
	b.WriteString(strings.NewReplacer("\r\n", `\n`, "\n", `\n`).Replace(p.Value))

	return b.String()
}

func formatParamValue(s string, v Version) string {
	if v == V40 {
		s = encodeParamValue(s)
	}

	if strings.ContainsAny(s, ":;,") || strings.TrimSpace(s) != s {
		return `"` + s + `"`
	}

	return s
}

// writeLine folds s into lines of at most maxLineOctets octets without
// splitting a UTF-8 sequence.
func writeLine(w *bufio.Writer, s string) {
	limit := maxLineOctets

	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}

		w.WriteString(s[:cut])
		w.WriteString("\r\n ")

		s = s[cut:]
		limit = maxLineOctets - 1
	}

	w.WriteString(s)
	w.WriteString("\r\n")
}
