package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"cardbridge/internal/altid"
	"cardbridge/internal/common"
	"cardbridge/internal/diagnostic"
	"cardbridge/internal/extension"
	"cardbridge/internal/identity"
	"cardbridge/internal/preference"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

var log = logging.Logger("cardbridge/convert")

// uidNamespace seeds the name-based UUIDs of cards without a UID.
var uidNamespace = uuid.MustParse("8d3a6f40-5c1e-4b8e-9f63-2a7e0c4d9b15")

// errKeep tells a family that a property cannot be mapped and must be kept
// verbatim in vCardProps.
var errKeep = errors.New("kept verbatim")

// ToJSContact converts vCards to JSContact cards.
type ToJSContact struct {
	cfg ToJSContactConfig
}

// NewToJSContact returns a converter using cfg.
func NewToJSContact(cfg ToJSContactConfig) *ToJSContact {
	cfg.IDProfile = slices.Clone(cfg.IDProfile)

	return &ToJSContact{cfg: cfg}
}

// Config returns the converter configuration.
func (c *ToJSContact) Config() ToJSContactConfig {
	cfg := c.cfg
	cfg.IDProfile = slices.Clone(cfg.IDProfile)

	return cfg
}

// toJSPlan converts one field family.
type toJSPlan interface {
	family() string
	group(r *toJSRun)
	assign(r *toJSRun)
	mapFields(r *toJSRun)
}

// toJSRun is the state of one conversion.
type toJSRun struct {
	cfg     *ToJSContactConfig
	src     *vcard.Card
	card    *jscontact.Card
	diags   diagnostic.Diagnostics
	stage   Stage
	index   map[*vcard.Property]int
	claimed map[*vcard.Property]bool
	kept    []*vcard.Property
	members []memberRef
}

type memberRef struct {
	uri     string
	pref    int
	hasPref bool
}

// Convert converts src. It never panics on malformed input; every problem is
// reported in the result.
func (c *ToJSContact) Convert(src *vcard.Card) Result {
	if src == nil {
		var res Result
		res.Diagnostics.AddError("card", "", fmt.Errorf("nil vCard: %w", diagnostic.ErrMissingRequiredField))
		res.Stage = StageFailed

		return res
	}

	r := &toJSRun{
		cfg:     &c.cfg,
		src:     src,
		card:    jscontact.NewCard(""),
		index:   make(map[*vcard.Property]int, len(src.Properties)),
		claimed: make(map[*vcard.Property]bool, len(src.Properties)),
	}

	for i, p := range src.Properties {
		r.index[p] = i
	}

	plans := toJSPlans()

	r.stage = StageGroup
	for _, p := range plans {
		p.group(r)
	}

	r.stage = StageAssign
	for _, p := range plans {
		p.assign(r)
	}

	r.stage = StageMap
	for _, p := range plans {
		p.mapFields(r)
	}

	r.stage = StageExtensions
	r.extensions()
	r.finish()

	res := Result{Diagnostics: r.diags, Members: r.memberOrder()}

	if r.diags.HasErrors() {
		res.Partial = r.card
		res.Stage = StageFailed

		log.Debugf("card %s failed in %s: %s", r.card.UID, r.diags.Families(), r.diags.Summary())

		return res
	}

	res.Card = r.card
	res.Stage = StageDone

	return res
}

func (r *toJSRun) version() vcard.Version {
	if r.src.Version == "" {
		return vcard.V40
	}

	return r.src.Version
}

// claim returns the unclaimed properties named names, in document order,
// and marks them claimed. accept may reject properties, which stay
// unclaimed.
func (r *toJSRun) claim(accept func(*vcard.Property) bool, names ...string) []*vcard.Property {
	var out []*vcard.Property

	for _, p := range r.src.Properties {
		if r.claimed[p] || !slices.Contains(names, p.Name) {
			continue
		}

		if accept != nil && !accept(p) {
			continue
		}

		r.claimed[p] = true
		out = append(out, p)
	}

	return out
}

// keep sends properties to vCardProps.
func (r *toJSRun) keep(props ...*vcard.Property) {
	for _, p := range props {
		r.claimed[p] = true
		r.kept = append(r.kept, p)
	}
}

func (r *toJSRun) fail(family, field string, err error) {
	r.diags.AddError(family, field, err)
}

func (r *toJSRun) idOptions(tag string) identity.Options {
	opts := identity.Options{
		HonorPropID: !r.cfg.IgnorePropID,
		UseGroup:    r.cfg.UseGroupAsID,
	}

	if r.cfg.AutoAssignIdsFromProfile {
		opts.Profile = r.cfg.IDProfile.For(tag)
	}

	return opts
}

// resolve groups props by ALTID and resolves each group. Groups that cannot
// be resolved are reported against family.
func (r *toJSRun) resolve(family string, props []*vcard.Property) []altid.Resolution {
	var out []altid.Resolution

	for _, g := range altid.GroupProperties(props, false) {
		res, err := altid.Resolve(g, r.cfg.DefaultLanguage)
		if err != nil {
			r.fail(family, "", err)

			continue
		}

		if common.IsSingle(g.Members) && g.Key != "" {
			r.diags.AddWarning(diagnostic.CodeNormalized,
				fmt.Sprintf("ALTID %q of a single %s dropped", g.Key, g.Members[0].Name), family, "")
		}

		out = append(out, res)
	}

	return out
}

// extensions decodes extension properties and collects everything nobody
// claimed into vCardProps.
func (r *toJSRun) extensions() {
	name := strings.ToUpper(r.cfg.ExtensionPropertyPrefix + extension.Property)

	for _, p := range r.src.Properties {
		if r.claimed[p] {
			continue
		}

		if p.Name != name {
			r.keep(p)

			continue
		}

		path, raw, err := decodeExtension(p)
		if err != nil {
			r.diags.AddWarning(diagnostic.CodeEscaped, err.Error(), "extensions", "")
			r.keep(p)

			continue
		}

		if r.restoreCompanion(path, raw) {
			r.claimed[p] = true

			continue
		}

		key := path.String()
		if _, dup := r.card.Extensions[key]; dup {
			r.diags.AddWarning(diagnostic.CodeEscaped, "duplicate extension "+key, "extensions", key)
			r.keep(p)

			continue
		}

		if r.card.Extensions == nil {
			r.card.Extensions = make(map[string]json.RawMessage)
		}

		r.claimed[p] = true
		r.card.Extensions[key] = raw
	}

	slices.SortStableFunc(r.kept, func(a, b *vcard.Property) int {
		return r.index[a] - r.index[b]
	})

	for _, p := range r.kept {
		r.card.VCardProps = append(r.card.VCardProps, vcardPropFrom(p))
	}
}

// companionMembers lists, per family, the members that are written as
// companion properties and come back as extensions when localized.
var companionMembers = map[string][]string{
	"addresses":     {"coordinates", "timeZone"},
	"anniversaries": {"place"},
}

// restoreCompanion puts a value written as an extension in place of a
// companion property back into its field: an anniversary place, or a member
// of a localized address or anniversary.
func (r *toJSRun) restoreCompanion(path extension.Path, raw json.RawMessage) bool {
	seg := path.Segments

	switch {
	case len(seg) == 3 && seg[0] == "anniversaries" && seg[2] == "place":
		return r.restorePlace(seg[1], raw)
	case len(seg) == 5 && seg[2] == "localizations" && slices.Contains(companionMembers[seg[0]], seg[4]):
		return r.restoreLocalized(seg[0], seg[1], seg[3], seg[4], raw)
	default:
		return false
	}
}

func (r *toJSRun) restorePlace(id string, raw json.RawMessage) bool {
	a := r.card.Anniversaries[id]
	if a == nil || a.Place != nil {
		return false
	}

	var place jscontact.Address
	if err := json.Unmarshal(raw, &place); err != nil {
		return false
	}

	a.Place = &place

	return true
}

func (r *toJSRun) restoreLocalized(family, id, lang, member string, raw json.RawMessage) bool {
	var m *jscontact.Meta

	switch family {
	case "addresses":
		if a := r.card.Addresses[id]; a != nil {
			m = a.FieldMeta()
		}
	case "anniversaries":
		if a := r.card.Anniversaries[id]; a != nil {
			m = a.FieldMeta()
		}
	}

	if m == nil {
		return false
	}

	loc, ok := m.Localizations[lang]
	if !ok || gjson.GetBytes(loc, member).Exists() {
		return false
	}

	want := gjson.String
	if member == "place" {
		want = gjson.JSON
	}

	if gjson.ParseBytes(raw).Type != want {
		return false
	}

	updated, err := sjson.SetRawBytes(loc, member, raw)
	if err != nil {
		return false
	}

	m.Localizations[lang] = updated

	return true
}

func decodeExtension(p *vcard.Property) (extension.Path, json.RawMessage, error) {
	for _, param := range p.Params {
		if param.Name != vcard.ParamJSPtr {
			return extension.Path{}, nil, fmt.Errorf("%s: unexpected parameter %s", p.Name, param.Name)
		}
	}

	if p.Group != "" {
		return extension.Path{}, nil, fmt.Errorf("%s: unexpected group %s", p.Name, p.Group)
	}

	path, err := extension.ParsePath(p.Params.Get(vcard.ParamJSPtr))
	if err != nil {
		return extension.Path{}, nil, fmt.Errorf("%s: %w", p.Name, err)
	}

	raw, err := extension.DecodeJSON(extension.Binding{Path: path, Text: p.Value})
	if err != nil {
		return extension.Path{}, nil, err
	}

	return path, raw, nil
}

func vcardPropFrom(p *vcard.Property) jscontact.VCardProp {
	out := jscontact.VCardProp{
		Name:      strings.ToLower(p.Name),
		ValueType: jscontact.ValueTypeUnknown,
		Value:     p.Value,
	}

	for _, param := range p.Params {
		if param.Name == vcard.ParamValue && len(param.Values) == 1 {
			out.ValueType = strings.ToLower(param.Values[0])

			continue
		}

		if out.Params == nil {
			out.Params = make(map[string]jscontact.ParamValue)
		}

		out.Params[param.Name] = append(out.Params[param.Name], param.Values...)
	}

	if p.Group != "" {
		if out.Params == nil {
			out.Params = make(map[string]jscontact.ParamValue)
		}

		out.Params[jscontact.GroupParam] = jscontact.ParamValue{p.Group}
	}

	return out
}

// finish generates a missing UID and validates the card.
func (r *toJSRun) finish() {
	if r.card.UID == "" {
		content, err := vcard.Marshal(r.src)
		if err != nil {
			r.fail("card", "uid", err)
		} else {
			r.card.UID = "urn:uuid:" + uuid.NewSHA1(uidNamespace, content).String()
			r.diags.AddWarning(diagnostic.CodeGenerated, "generated UID "+r.card.UID, "card", "uid")
		}
	}

	if r.cfg.ValidateBeforeEmit {
		if err := jscontact.Validate(r.card); err != nil {
			r.fail("card", "", err)
		}
	}
}

func (r *toJSRun) memberOrder() []string {
	ordered := preference.Order(r.members, func(m memberRef) (int, bool) { return m.pref, m.hasPref })

	out := make([]string, 0, len(ordered))
	for _, m := range ordered {
		out = append(out, m.uri)
	}

	return out
}

// fieldPtr is a pointer to a field type embedding jscontact.Meta.
type fieldPtr[T any] interface {
	*T
	FieldMeta() *jscontact.Meta
}

// mapFamily converts the properties of one id-keyed family.
type mapFamily[T any, PT fieldPtr[T]] struct {
	name   string
	tag    string
	props  []string
	rules  metaRules
	accept func(p *vcard.Property) bool
	build  func(r *toJSRun, p *vcard.Property, ps *paramSet) (PT, error)
	field  func(c *jscontact.Card) *map[string]PT
	// finish runs after the fields are mapped and may add fields.
	finish func(r *toJSRun, fields map[string]PT)

	groups []altid.Resolution
	ids    []identity.Assignment
}

func (f *mapFamily[T, PT]) family() string {
	return f.name
}

func (f *mapFamily[T, PT]) group(r *toJSRun) {
	f.groups = r.resolve(f.name, r.claim(f.accept, f.props...))
}

func (f *mapFamily[T, PT]) assign(r *toJSRun) {
	fields := make([]identity.Field, len(f.groups))
	for i, g := range f.groups {
		fields[i] = fieldOf(g.Primary)
	}

	f.ids = identity.Assign(f.tag, fields, r.idOptions(f.tag))
}

func (f *mapFamily[T, PT]) mapFields(r *toJSRun) {
	out := make(map[string]PT, len(f.groups))

	for i, g := range f.groups {
		id := f.ids[i]

		field, err := f.convert(r, g, id)
		if errors.Is(err, errKeep) {
			r.keep(groupMembers(g)...)

			continue
		}

		if err != nil {
			r.fail(f.name, id.ID, err)

			continue
		}

		out[id.ID] = field
	}

	if f.finish != nil {
		f.finish(r, out)
	}

	if len(out) > 0 {
		*f.field(r.card) = out
	}
}

func (f *mapFamily[T, PT]) convert(r *toJSRun, g altid.Resolution, id identity.Assignment) (PT, error) {
	field, err := f.one(r, g.Primary, id)
	if err != nil {
		return nil, err
	}

	for _, lang := range g.Languages {
		alt, err := f.one(r, g.Localizations[lang], id)
		if err != nil {
			return nil, fmt.Errorf("localization %s: %w", lang, err)
		}

		raw, err := localization(alt)
		if err != nil {
			return nil, err
		}

		m := field.FieldMeta()
		if m.Localizations == nil {
			m.Localizations = make(map[string]json.RawMessage)
		}

		m.Localizations[lang] = raw
	}

	return field, nil
}

func (f *mapFamily[T, PT]) one(r *toJSRun, p *vcard.Property, id identity.Assignment) (PT, error) {
	ps := newParamSet(p)

	field, err := f.build(r, p, ps)
	if err != nil {
		return nil, err
	}

	readMeta(field.FieldMeta(), ps, id, f.rules)

	return field, nil
}

// localization returns the JSON of an alternate field, without the members
// that only the primary carries.
func localization[T any, PT fieldPtr[T]](alt PT) (json.RawMessage, error) {
	m := alt.FieldMeta()
	m.Language = ""
	m.Localizations = nil

	raw, err := json.Marshal(alt)
	if err != nil {
		return nil, fmt.Errorf("localization: %w: %w", diagnostic.ErrValidation, err)
	}

	return raw, nil
}

func fieldOf(p *vcard.Property) identity.Field {
	pref, ok := p.Pref()

	return identity.Field{
		PropID:  p.Params.Get(vcard.ParamPropID),
		Group:   p.Group,
		Pref:    pref,
		HasPref: ok,
	}
}

func groupMembers(g altid.Resolution) []*vcard.Property {
	out := []*vcard.Property{g.Primary}
	for _, lang := range g.Languages {
		out = append(out, g.Localizations[lang])
	}

	return out
}
