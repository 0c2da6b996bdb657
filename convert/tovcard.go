package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"cardbridge/internal/altid"
	"cardbridge/internal/common"
	"cardbridge/internal/diagnostic"
	"cardbridge/internal/extension"
	"cardbridge/internal/identity"
	"cardbridge/internal/preference"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

// ToVCard converts JSContact cards to vCards.
type ToVCard struct {
	cfg ToVCardConfig
}

// NewToVCard returns a converter using cfg. An invalid version falls back
// to 4.0.
func NewToVCard(cfg ToVCardConfig) *ToVCard {
	if !cfg.Version.IsValid() {
		cfg.Version = vcard.V40
	}

	return &ToVCard{cfg: cfg}
}

// Config returns the converter configuration.
func (c *ToVCard) Config() ToVCardConfig {
	return c.cfg
}

// toVCardPlan converts one field family.
type toVCardPlan interface {
	family() string
	group(w *toVCardRun)
	assign(w *toVCardRun)
	mapFields(w *toVCardRun)
}

// toVCardRun is the state of one conversion.
type toVCardRun struct {
	cfg   *ToVCardConfig
	src   *jscontact.Card
	out   *vcard.Card
	diags diagnostic.Diagnostics
	stage Stage
	alloc altid.Allocator
	// extensions holds values that have no property of their own, by path.
	extensions map[string]json.RawMessage
}

// Convert converts card. It never panics on malformed input; every problem
// is reported in the result.
func (c *ToVCard) Convert(card *jscontact.Card) VCardResult {
	if card == nil {
		var res VCardResult
		res.Diagnostics.AddError("card", "", fmt.Errorf("nil card: %w", diagnostic.ErrMissingRequiredField))
		res.Stage = StageFailed

		return res
	}

	w := &toVCardRun{
		cfg:        &c.cfg,
		src:        card,
		out:        vcard.NewCard(c.cfg.Version),
		extensions: maps.Clone(card.Extensions),
	}

	plans := toVCardPlans()

	w.stage = StageGroup
	for _, p := range plans {
		p.group(w)
	}

	w.stage = StageAssign
	for _, p := range plans {
		p.assign(w)
	}

	w.stage = StageMap
	for _, p := range plans {
		p.mapFields(w)
	}

	w.stage = StageExtensions
	w.emitVCardProps()
	w.emitExtensions()

	if w.cfg.ValidateBeforeEmit {
		if err := validateVCard(w.out); err != nil {
			w.fail("card", "", err)
		}
	}

	res := VCardResult{Diagnostics: w.diags}

	if w.diags.HasErrors() {
		res.Partial = w.out
		res.Stage = StageFailed

		log.Debugf("card %s failed in %s: %s", card.UID, w.diags.Families(), w.diags.Summary())

		return res
	}

	res.VCard = w.out
	res.Stage = StageDone

	return res
}

func (w *toVCardRun) version() vcard.Version {
	return w.cfg.Version
}

func (w *toVCardRun) fail(family, field string, err error) {
	w.diags.AddError(family, field, err)
}

// extension records a value to be written as an extension property.
func (w *toVCardRun) extension(path extension.Path, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("extension %s: %w: %w", path, diagnostic.ErrExtensionEncoding, err)
	}

	if w.extensions == nil {
		w.extensions = make(map[string]json.RawMessage)
	}

	w.extensions[path.String()] = raw

	return nil
}

func (w *toVCardRun) emitVCardProps() {
	for _, vp := range w.src.VCardProps {
		if vp.Name == "" {
			w.diags.AddWarning(diagnostic.CodeNormalized, "vCardProps entry without a name dropped", "vCardProps", "")

			continue
		}

		p := vcard.NewProperty(vp.Name, vp.Value)

		if vp.ValueType != "" && vp.ValueType != jscontact.ValueTypeUnknown {
			p.Params.Set(vcard.ParamValue, vp.ValueType)
		}

		for _, name := range common.SortedKeys(vp.Params) {
			if name == jscontact.GroupParam {
				if len(vp.Params[name]) > 0 {
					p.Group = vp.Params[name][0]
				}

				continue
			}

			p.Params.Add(name, vp.Params[name]...)
		}

		w.out.Add(p)
	}
}

func (w *toVCardRun) emitExtensions() {
	name := strings.ToUpper(w.cfg.ExtensionPropertyPrefix + extension.Property)

	for _, key := range common.SortedKeys(w.extensions) {
		path, err := extension.ParsePath(key)
		if err != nil {
			path = extension.NewPath(key)
		}

		b, err := extension.EncodeJSON(path, w.extensions[key])
		if err != nil {
			w.fail("extensions", key, err)

			continue
		}

		p := vcard.NewProperty(name, b.Text)
		p.Params.Set(vcard.ParamJSPtr, b.Path.String())
		w.out.Add(p)
	}
}

// validateVCard checks the properties a vCard of its version must have.
func validateVCard(c *vcard.Card) error {
	var errs []error

	if !c.Version.IsValid() {
		errs = append(errs, fmt.Errorf("unsupported version %q", c.Version))
	}

	if c.Version != vcard.V21 && c.First("FN") == nil {
		errs = append(errs, errors.New("FN is required"))
	}

	if c.Version != vcard.V40 && c.First("N") == nil {
		errs = append(errs, fmt.Errorf("N is required in %s", c.Version))
	}

	for i, p := range c.Properties {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("property %d has no name", i))
		}

		if s := p.Params.Get(vcard.ParamPref); s != "" {
			if pref, ok := p.Pref(); !ok || !preference.IsValid(pref) {
				errs = append(errs, fmt.Errorf("%s: invalid PREF %q", p.Name, s))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", diagnostic.ErrValidation, errors.Join(errs...))
}

// emitFamily writes one id-keyed family.
type emitFamily[T any, PT fieldPtr[T]] struct {
	name  string
	tag   string
	rules metaRules
	field func(c *jscontact.Card) map[string]PT
	// emit returns the main property of a field followed by any companion
	// properties.
	emit func(w *toVCardRun, key string, f PT) ([]*vcard.Property, error)
	// link gives companions the group of the main property, generating one
	// when the family has several fields.
	link bool
	// detach moves the members of a localization that would be written as
	// companion properties into extensions.
	detach func(w *toVCardRun, path extension.Path, alt PT) error

	keys    []string
	propIDs map[string]bool
}

func (f *emitFamily[T, PT]) family() string {
	return f.name
}

func (f *emitFamily[T, PT]) group(w *toVCardRun) {
	fields := f.field(w.src)

	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if fields[k] == nil {
			w.diags.AddWarning(diagnostic.CodeNormalized, "null field dropped", f.name, k)
		}
	}

	f.keys = slices.DeleteFunc(orderedKeys(fields), func(k string) bool { return fields[k] == nil })
}

// assign marks the keys that differ from the id the reverse conversion
// would generate; only those need a PROP-ID.
func (f *emitFamily[T, PT]) assign(w *toVCardRun) {
	f.propIDs = make(map[string]bool)

	if !w.cfg.EmitIDParameter {
		return
	}

	fields := f.field(w.src)
	in := make([]identity.Field, len(f.keys))

	for i, k := range f.keys {
		pref := fields[k].FieldMeta().Pref
		in[i] = identity.Field{Pref: pref, HasPref: pref > 0}
	}

	for i, a := range identity.Assign(f.tag, in, identity.Options{}) {
		if a.ID != f.keys[i] {
			f.propIDs[f.keys[i]] = true
		}
	}
}

func (f *emitFamily[T, PT]) mapFields(w *toVCardRun) {
	fields := f.field(w.src)

	for _, k := range f.keys {
		props, err := f.props(w, k, fields[k])
		if err != nil {
			w.fail(f.name, k, err)

			continue
		}

		w.out.Add(props...)
	}
}

func (f *emitFamily[T, PT]) props(w *toVCardRun, key string, field PT) ([]*vcard.Property, error) {
	out, err := f.emit(w, key, field)
	if err != nil {
		return nil, err
	}

	main := out[0]
	m := field.FieldMeta()
	writeMeta(main, m, w.version(), f.rules)

	if f.propIDs[key] {
		main.Params.Set(vcard.ParamPropID, key)
		w.diags.AddInfo(diagnostic.CodePropID, "PROP-ID written for "+key, f.name, key)
	}

	if f.link && common.IsMultiple(out) {
		if main.Group == "" && common.IsMultiple(f.keys) {
			main.Group = groupName(key, f.tag)
		}

		for _, p := range out[1:] {
			p.Group = main.Group
		}
	}

	if len(m.Localizations) == 0 {
		return out, nil
	}

	token := w.alloc.Next()
	main.Params.Set(vcard.ParamAltID, token)

	for _, lang := range common.SortedKeys(m.Localizations) {
		alt := PT(new(T))
		if err := json.Unmarshal(m.Localizations[lang], alt); err != nil {
			return nil, fmt.Errorf("localization %s: %w: %w", lang, diagnostic.ErrValidation, err)
		}

		if f.detach != nil {
			path := extension.NewPath(f.name, key, "localizations", lang)
			if err := f.detach(w, path, alt); err != nil {
				return nil, fmt.Errorf("localization %s: %w", lang, err)
			}
		}

		altProps, err := f.emit(w, key, alt)
		if err != nil {
			return nil, fmt.Errorf("localization %s: %w", lang, err)
		}

		if common.IsMultiple(altProps) {
			return nil, fmt.Errorf("localization %s: %d companion properties: %w",
				lang, len(altProps)-1, diagnostic.ErrExtensionEncoding)
		}

		ap := altProps[0]
		am := alt.FieldMeta()
		am.Language = ""
		writeMeta(ap, am, w.version(), f.rules)

		ap.Params.Set(vcard.ParamLanguage, lang)
		ap.Params.Set(vcard.ParamAltID, token)

		out = append(out, ap)
	}

	return out, nil
}

// groupName derives a property group from a field id.
func groupName(key, tag string) string {
	var b strings.Builder

	for _, r := range key {
		if r < 0x80 && (r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return tag
	}

	return b.String()
}
