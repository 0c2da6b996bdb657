// Package extension encodes arbitrary JSON values as single vCard text
// values addressed by a path into the JSContact card, and decodes them back.
package extension

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"cardbridge/internal/diagnostic"
)

// Envelope prefixes values that are carried as base64 JSON text.
const Envelope = "data:application/json;base64,"

// Property is the name of the reserved extension property, without prefix.
const Property = "JSPROP"

// Binding is one encoded extension value and its destination.
type Binding struct {
	Path Path
	Text string
}

// Encode encodes value for path. Strings are written as JSON quoted
// strings, booleans and numbers as their literal text, and every other value
// as base64 JSON behind Envelope. Values JSON cannot represent fail with
// diagnostic.ErrExtensionEncoding.
func Encode(path Path, value any) (Binding, error) {
	text, err := encodeValue(value)
	if err != nil {
		return Binding{}, fmt.Errorf("extension %s: %w: %w", path, diagnostic.ErrExtensionEncoding, err)
	}

	return Binding{Path: path, Text: text}, nil
}

// EncodeJSON encodes a raw JSON value for path.
func EncodeJSON(path Path, raw json.RawMessage) (Binding, error) {
	var v any

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := dec.Decode(&v); err != nil {
		return Binding{}, fmt.Errorf("extension %s: %w: %w", path, diagnostic.ErrExtensionEncoding, err)
	}

	return Encode(path, v)
}

func encodeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		b, err := json.Marshal(v)

		return string(b), err
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	return Envelope + base64.StdEncoding.EncodeToString(b), nil
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("unsupported number %v", f)
	}

	return strconv.FormatFloat(f, 'g', -1, bits), nil
}

// Decode returns the value carried by b.Text. The envelope is tried first,
// then a quoted string, a boolean and a JSON number; text matching none of
// them is returned as a plain string. Numbers decode as json.Number holding
// their exact text.
func Decode(b Binding) (any, error) {
	text := b.Text

	if payload, ok := strings.CutPrefix(text, Envelope); ok {
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("extension %s: envelope: %w: %w", b.Path, diagnostic.ErrExtensionEncoding, err)
		}

		var v any

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()

		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("extension %s: envelope: %w: %w", b.Path, diagnostic.ErrExtensionEncoding, err)
		}

		return v, nil
	}

	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			return s, nil
		}
	}

	if v, err := strconv.ParseBool(text); err == nil && (text == "true" || text == "false") {
		return v, nil
	}

	if n, ok := jsonNumber(text); ok {
		return n, nil
	}

	return text, nil
}

// jsonNumber reports whether text is exactly one JSON number.
func jsonNumber(text string) (json.Number, bool) {
	if text == "" || text != strings.TrimSpace(text) || !json.Valid([]byte(text)) {
		return "", false
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}

	n, ok := v.(json.Number)

	return n, ok
}

// DecodeJSON returns the value carried by b.Text as raw JSON.
func DecodeJSON(b Binding) (json.RawMessage, error) {
	v, err := Decode(b)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("extension %s: %w: %w", b.Path, diagnostic.ErrExtensionEncoding, err)
	}

	return raw, nil
}
