package jscontact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"cardbridge/internal/common"
	"cardbridge/internal/extension"
)

// ExtensionsMember is the top-level member that holds extension values
// whose path cannot be materialized in place.
const ExtensionsMember = "extensions"

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// Marshal returns the JSON form of c. Each extension is written at its path
// when the path's parent is an object already present in the document and
// its last segment names no modelled member. The rest are written under the
// top-level "extensions" member, keyed by their path.
func Marshal(c *Card) ([]byte, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal card %s: %w", c.UID, err)
	}

	leftover := make(map[string]json.RawMessage)

	for _, key := range common.SortedKeys(c.Extensions) {
		raw := c.Extensions[key]
		if !json.Valid(raw) {
			return nil, fmt.Errorf("marshal card %s: extension %s is not valid JSON", c.UID, key)
		}

		if p, perr := extension.ParsePath(key); perr == nil && addressable(doc, p) {
			doc, err = sjson.SetRawBytes(doc, jsonPath(p.Segments...), raw)
			if err != nil {
				return nil, fmt.Errorf("marshal card %s: extension %s: %w", c.UID, key, err)
			}

			continue
		}

		leftover[key] = raw
	}

	if len(leftover) > 0 {
		obj, err := json.Marshal(leftover)
		if err != nil {
			return nil, fmt.Errorf("marshal card %s: extensions: %w", c.UID, err)
		}

		doc, err = sjson.SetRawBytes(doc, ExtensionsMember, obj)
		if err != nil {
			return nil, fmt.Errorf("marshal card %s: extensions: %w", c.UID, err)
		}
	}

	return doc, nil
}

// MarshalCards returns the cards as one JSON array, indented when indent is
// set. Nil cards are written as null.
func MarshalCards(cards []*Card, indent bool) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('[')

	for i, c := range cards {
		if i > 0 {
			buf.WriteByte(',')
		}

		if c == nil {
			buf.WriteString("null")

			continue
		}

		b, err := Marshal(c)
		if err != nil {
			return nil, err
		}

		buf.Write(b)
	}

	buf.WriteByte(']')

	if indent {
		return pretty.Pretty(buf.Bytes()), nil
	}

	return buf.Bytes(), nil
}

// Unmarshal parses one card. Members this package does not model are
// collected into Card.Extensions.
func Unmarshal(data []byte) (*Card, error) {
	var c Card
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal card: %w", err)
	}

	ext := make(map[string]json.RawMessage)
	collect(gjson.ParseBytes(data), reflect.TypeFor[Card](), nil, ext)

	if len(ext) > 0 {
		c.Extensions = ext
	}

	return &c, nil
}

// UnmarshalCards parses a single card, an array of cards, or an object
// whose "cards" member is an array of cards.
func UnmarshalCards(data []byte) ([]*Card, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("unmarshal cards: invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() && root.Get("cards").IsArray() && !root.Get("uid").Exists() {
		root = root.Get("cards")
	}

	if !root.IsArray() {
		c, err := Unmarshal(data)
		if err != nil {
			return nil, err
		}

		return []*Card{c}, nil
	}

	var cards []*Card

	for i, item := range root.Array() {
		c, err := Unmarshal([]byte(item.Raw))
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}

		cards = append(cards, c)
	}

	return cards, nil
}

func collect(r gjson.Result, t reflect.Type, path []string, out map[string]json.RawMessage) {
	t = deref(t)
	if opaque(t) || !r.IsObject() {
		return
	}

	switch t.Kind() {
	case reflect.Struct:
		known := members(t)

		r.ForEach(func(k, v gjson.Result) bool {
			key := k.String()

			switch {
			case key == "@type":
			case len(path) == 0 && key == ExtensionsMember:
				v.ForEach(func(ek, ev gjson.Result) bool {
					out[ek.String()] = json.RawMessage(ev.Raw)

					return true
				})
			default:
				sub := slices.Concat(path, []string{key})
				if ft, ok := known[key]; ok {
					collect(v, ft, sub, out)
				} else {
					out[extension.NewPath(sub...).String()] = json.RawMessage(v.Raw)
				}
			}

			return true
		})
	case reflect.Map:
		r.ForEach(func(k, v gjson.Result) bool {
			collect(v, t.Elem(), slices.Concat(path, []string{k.String()}), out)

			return true
		})
	}
}

// addressable reports whether an extension at p can be written in place
// and would be read back as the same extension.
func addressable(doc []byte, p extension.Path) bool {
	for _, seg := range p.Segments {
		if isDigits(seg) {
			return false
		}
	}

	leaf := p.Leaf()
	if leaf == "@type" || (len(p.Segments) == 1 && leaf == ExtensionsMember) {
		return false
	}

	parent, ok := typeAt(p.Parent().Segments)
	if !ok || parent.Kind() != reflect.Struct || opaque(parent) {
		return false
	}

	if _, known := members(parent)[leaf]; known {
		return false
	}

	if len(p.Segments) > 1 && !gjson.GetBytes(doc, jsonPath(p.Parent().Segments...)).IsObject() {
		return false
	}

	return !gjson.GetBytes(doc, jsonPath(p.Segments...)).Exists()
}

func typeAt(segments []string) (reflect.Type, bool) {
	t := reflect.TypeFor[Card]()

	for _, seg := range segments {
		t = deref(t)
		if opaque(t) {
			return nil, false
		}

		switch t.Kind() {
		case reflect.Struct:
			ft, ok := members(t)[seg]
			if !ok {
				return nil, false
			}

			t = ft
		case reflect.Map:
			t = t.Elem()
		default:
			return nil, false
		}
	}

	return deref(t), true
}

// members maps the JSON member names of struct t to their types. Members of
// embedded structs are included unless shadowed.
func members(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type)

	var embedded []reflect.Type

	for i := range t.NumField() {
		f := t.Field(i)

		tag := f.Tag.Get("json")
		if f.Anonymous && tag == "" {
			embedded = append(embedded, deref(f.Type))

			continue
		}

		if !f.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}

		if name == "" {
			name = f.Name
		}

		out[name] = f.Type
	}

	for _, e := range embedded {
		for name, ft := range members(e) {
			if _, ok := out[name]; !ok {
				out[name] = ft
			}
		}
	}

	return out
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

func opaque(t reflect.Type) bool {
	return t.Implements(unmarshalerType) || reflect.PointerTo(t).Implements(unmarshalerType)
}

// jsonPath joins raw segments into a gjson/sjson path.
func jsonPath(segments ...string) string {
	var sb strings.Builder

	for i, seg := range segments {
		if i > 0 {
			sb.WriteByte('.')
		}

		for j := 0; j < len(seg); j++ {
			c := seg[j]
			if !isPlainPathByte(c) {
				sb.WriteByte('\\')
			}

			sb.WriteByte(c)
		}
	}

	return sb.String()
}

func isPlainPathByte(c byte) bool {
	return c >= 0x80 || c == '-' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
