package vcard

import (
	"slices"
	"strconv"
	"strings"
)

// Version is a vCard format revision.
type Version string

const (
	V21 Version = "2.1"
	V30 Version = "3.0"
	V40 Version = "4.0"
)

// IsValid reports whether v is a supported revision.
func (v Version) IsValid() bool {
	return v == V21 || v == V30 || v == V40
}

// Parameter names, lower case as stored.
const (
	ParamAltID        = "altid"
	ParamLanguage     = "language"
	ParamPref         = "pref"
	ParamType         = "type"
	ParamPropID       = "prop-id"
	ParamValue        = "value"
	ParamEncoding     = "encoding"
	ParamCharset      = "charset"
	ParamLabel        = "label"
	ParamGeo          = "geo"
	ParamTZ           = "tz"
	ParamCC           = "cc"
	ParamSortAs       = "sort-as"
	ParamMediaType    = "mediatype"
	ParamCalScale     = "calscale"
	ParamLevel        = "level"
	ParamCreated      = "created"
	ParamAuthor       = "author"
	ParamAuthorName   = "author-name"
	ParamServiceType  = "service-type"
	ParamXServiceType = "x-service-type"
	ParamUsername     = "username"
	ParamIndex        = "index"
	ParamJSPtr        = "jsptr"
)

// Param is one named parameter with one or more values.
type Param struct {
	Name   string
	Values []string
}

// Params is an ordered parameter list. Names are matched case-insensitively.
type Params []Param

func normName(name string) string {
	return strings.ToLower(name)
}

// Get returns the first value of the named parameter, or "".
func (ps Params) Get(name string) string {
	if vs := ps.Values(name); len(vs) > 0 {
		return vs[0]
	}

	return ""
}

// Values returns all values of the named parameter in order.
func (ps Params) Values(name string) []string {
	name = normName(name)

	var out []string

	for _, p := range ps {
		if p.Name == name {
			out = append(out, p.Values...)
		}
	}

	return out
}

// Has reports whether the named parameter is present.
func (ps Params) Has(name string) bool {
	name = normName(name)

	return slices.ContainsFunc(ps, func(p Param) bool { return p.Name == name })
}

// Set replaces the values of the named parameter, keeping its position.
func (ps *Params) Set(name string, values ...string) {
	name = normName(name)

	for i, p := range *ps {
		if p.Name == name {
			(*ps)[i].Values = slices.Clone(values)
			*ps = slices.Concat((*ps)[:i+1], dropNamed((*ps)[i+1:], name))

			return
		}
	}

	*ps = append(*ps, Param{Name: name, Values: slices.Clone(values)})
}

// Add appends values to the named parameter, creating it when missing.
func (ps *Params) Add(name string, values ...string) {
	name = normName(name)

	for i, p := range *ps {
		if p.Name == name {
			(*ps)[i].Values = append((*ps)[i].Values, values...)

			return
		}
	}

	*ps = append(*ps, Param{Name: name, Values: slices.Clone(values)})
}

// Del removes the named parameter.
func (ps *Params) Del(name string) {
	*ps = dropNamed(*ps, normName(name))
}

// Clone returns a deep copy.
func (ps Params) Clone() Params {
	if ps == nil {
		return nil
	}

	out := make(Params, len(ps))
	for i, p := range ps {
		out[i] = Param{Name: p.Name, Values: slices.Clone(p.Values)}
	}

	return out
}

func dropNamed(ps Params, name string) Params {
	return slices.DeleteFunc(slices.Clone(ps), func(p Param) bool { return p.Name == name })
}

// Property is one content line.
type Property struct {
	Group  string
	Name   string
	Params Params
	Value  string
}

// NewProperty returns a property with an upper-cased name.
func NewProperty(name, value string) *Property {
	return &Property{Name: strings.ToUpper(name), Value: value}
}

// Language returns the LANGUAGE parameter.
func (p *Property) Language() string {
	return p.Params.Get(ParamLanguage)
}

// AltID returns the ALTID parameter.
func (p *Property) AltID() string {
	return p.Params.Get(ParamAltID)
}

// Types returns the lower-cased TYPE values.
func (p *Property) Types() []string {
	vs := p.Params.Values(ParamType)
	out := make([]string, 0, len(vs))

	for _, v := range vs {
		out = append(out, strings.ToLower(v))
	}

	return out
}

// Pref returns the preference of the property: the PREF parameter when it is
// an integer, or 1 for a 3.0/2.1 style TYPE=pref.
func (p *Property) Pref() (int, bool) {
	if s := p.Params.Get(ParamPref); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}

	if slices.Contains(p.Types(), "pref") {
		return 1, true
	}

	return 0, false
}

// Clone returns a deep copy.
func (p *Property) Clone() *Property {
	c := *p
	c.Params = p.Params.Clone()

	return &c
}

// Card is one vCard: its version and its properties in document order.
// BEGIN, END and VERSION lines are not part of Properties.
type Card struct {
	Version    Version
	Properties []*Property
}

// NewCard returns an empty card of the given version.
func NewCard(v Version) *Card {
	return &Card{Version: v}
}

// Add appends properties.
func (c *Card) Add(props ...*Property) {
	c.Properties = append(c.Properties, props...)
}

// Get returns the properties with the given name in document order.
func (c *Card) Get(name string) []*Property {
	name = strings.ToUpper(name)

	var out []*Property

	for _, p := range c.Properties {
		if p.Name == name {
			out = append(out, p)
		}
	}

	return out
}

// First returns the first property with the given name, or nil.
func (c *Card) First(name string) *Property {
	if ps := c.Get(name); len(ps) > 0 {
		return ps[0]
	}

	return nil
}
