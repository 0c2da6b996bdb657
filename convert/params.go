package convert

import (
	"slices"
	"strconv"
	"strings"

	"cardbridge/internal/common"
	"cardbridge/internal/identity"
	"cardbridge/internal/preference"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

// Default TYPE value to context mapping.
var defaultContexts = map[string]string{
	"home": "private",
	"work": "work",
}

// Address TYPE value to context mapping.
var addressContexts = map[string]string{
	"home":     "private",
	"work":     "work",
	"billing":  "billing",
	"delivery": "delivery",
}

// paramSet tracks which parameters of one property a mapping consumed. The
// rest end up in vCardParams.
type paramSet struct {
	prop  *vcard.Property
	used  map[string]bool
	types []string
}

func newParamSet(p *vcard.Property) *paramSet {
	return &paramSet{
		prop:  p,
		used:  map[string]bool{vcard.ParamType: true},
		types: p.Types(),
	}
}

// get returns the first value of name without consuming it.
func (ps *paramSet) get(name string) string {
	if ps.used[name] {
		return ""
	}

	return ps.prop.Params.Get(name)
}

// take consumes name and returns its values.
func (ps *paramSet) take(name string) []string {
	if ps.used[name] {
		return nil
	}

	ps.used[name] = true

	return ps.prop.Params.Values(name)
}

// takeOne consumes name and returns its first value.
func (ps *paramSet) takeOne(name string) string {
	vs := ps.take(name)
	if len(vs) == 0 {
		return ""
	}

	return vs[0]
}

// takeType consumes the TYPE value t and reports whether it was present.
func (ps *paramSet) takeType(t string) bool {
	i := slices.Index(ps.types, t)
	if i < 0 {
		return false
	}

	ps.types = slices.Delete(ps.types, i, i+1)

	return true
}

// takeTypes consumes every TYPE value found in mapping and returns the
// mapped values.
func (ps *paramSet) takeTypes(mapping map[string]string) []string {
	var out []string

	kept := ps.types[:0]

	for _, t := range ps.types {
		if m, ok := mapping[t]; ok {
			out = append(out, m)

			continue
		}

		kept = append(kept, t)
	}

	ps.types = kept

	return out
}

// leftover returns the unconsumed parameters.
func (ps *paramSet) leftover() map[string]jscontact.ParamValue {
	out := make(map[string]jscontact.ParamValue)

	for _, p := range ps.prop.Params {
		if ps.used[p.Name] || len(p.Values) == 0 {
			continue
		}

		out[p.Name] = append(out[p.Name], p.Values...)
	}

	if len(ps.types) > 0 {
		out[vcard.ParamType] = slices.Clone(ps.types)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// metaRules describes how the shared members of a family are read and
// written.
type metaRules struct {
	contexts   map[string]string
	noLanguage bool
	noContexts bool
}

func (mr metaRules) contextMap() map[string]string {
	if mr.contexts != nil {
		return mr.contexts
	}

	return defaultContexts
}

// readMeta consumes the shared parameters of ps into m. The property group
// is kept unless it became the field id.
func readMeta(m *jscontact.Meta, ps *paramSet, id identity.Assignment, rules metaRules) {
	if s := ps.get(vcard.ParamPref); s != "" {
		if n, err := strconv.Atoi(s); err == nil && preference.IsValid(n) {
			m.Pref = n
			ps.take(vcard.ParamPref)
		}
	}

	if m.Pref == 0 && ps.takeType("pref") {
		m.Pref = 1
	}

	if !rules.noLanguage {
		m.Language = ps.takeOne(vcard.ParamLanguage)
	}

	if !rules.noContexts {
		for _, ctx := range ps.takeTypes(rules.contextMap()) {
			if m.Contexts == nil {
				m.Contexts = make(map[string]bool)
			}

			m.Contexts[ctx] = true
		}
	}

	ps.take(vcard.ParamAltID)

	if id.Source == identity.SourcePropID && ps.get(vcard.ParamPropID) == id.ID {
		ps.take(vcard.ParamPropID)
	}

	m.VCardParams = ps.leftover()

	group := ps.prop.Group
	if group != "" && (id.Source != identity.SourceGroup || group != id.ID) {
		if m.VCardParams == nil {
			m.VCardParams = make(map[string]jscontact.ParamValue)
		}

		m.VCardParams[jscontact.GroupParam] = jscontact.ParamValue{group}
	}
}

// writeMeta writes the shared members of m onto p. TYPE values already on
// p are kept after the context values.
func writeMeta(p *vcard.Property, m *jscontact.Meta, v vcard.Version, rules metaRules) {
	if g := m.VCardParams[jscontact.GroupParam]; len(g) > 0 {
		p.Group = g[0]
	}

	var types []string

	if !rules.noContexts {
		reverse := make(map[string]string, len(rules.contextMap()))
		for t, ctx := range rules.contextMap() {
			reverse[ctx] = t
		}

		for _, ctx := range common.SortedKeys(m.Contexts) {
			if !m.Contexts[ctx] {
				continue
			}

			if t, ok := reverse[ctx]; ok {
				types = append(types, t)
			} else {
				types = append(types, strings.ToLower(ctx))
			}
		}
	}

	types = append(types, p.Params.Values(vcard.ParamType)...)
	types = append(types, m.VCardParams[vcard.ParamType]...)

	if m.Pref > 0 && v != vcard.V40 && m.Pref == 1 {
		types = append(types, "pref")
	}

	if len(types) > 0 {
		p.Params.Set(vcard.ParamType, types...)
	}

	if m.Pref > 0 && (v == vcard.V40 || m.Pref != 1) {
		p.Params.Set(vcard.ParamPref, strconv.Itoa(m.Pref))
	}

	if !rules.noLanguage && m.Language != "" {
		p.Params.Set(vcard.ParamLanguage, m.Language)
	}

	writeParams(p, m.VCardParams)
}

// writeParams appends params in name order, skipping the group and TYPE.
func writeParams(p *vcard.Property, params map[string]jscontact.ParamValue) {
	for _, name := range common.SortedKeys(params) {
		if name == jscontact.GroupParam || name == vcard.ParamType {
			continue
		}

		p.Params.Add(name, params[name]...)
	}
}
