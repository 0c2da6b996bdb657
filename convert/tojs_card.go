package convert

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"cardbridge/internal/altid"
	"cardbridge/internal/common"
	"cardbridge/internal/components"
	"cardbridge/internal/diagnostic"
	"cardbridge/internal/identity"
	"cardbridge/internal/temporal"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

// cardProps map to top-level card members. Only the first of each is mapped.
var cardProps = []string{"UID", "KIND", "PRODID", "LANGUAGE", "CREATED", "REV"}

type cardPlan struct {
	props   []*vcard.Property
	members []*vcard.Property
}

func (cp *cardPlan) family() string {
	return "card"
}

func (cp *cardPlan) group(r *toJSRun) {
	for _, name := range cardProps {
		props := r.claim(nil, name)
		if common.IsEmpty(props) {
			continue
		}

		cp.props = append(cp.props, props[0])
		r.keep(props[1:]...)
	}

	cp.members = r.claim(nil, "MEMBER")
}

func (cp *cardPlan) assign(*toJSRun) {}

func (cp *cardPlan) mapFields(r *toJSRun) {
	c := r.card

	for _, p := range cp.props {
		ps := newParamSet(p)
		ps.take(vcard.ParamValue)

		switch p.Name {
		case "UID":
			c.UID = p.Value
		case "KIND":
			c.Kind = strings.ToLower(text(p))
		case "PRODID":
			c.ProdID = text(p)
		case "LANGUAGE":
			c.Language = p.Value
		case "CREATED", "REV":
			member := "created"
			if p.Name == "REV" {
				member = "updated"
			}

			ts, floating, err := timestamp(p.Value)
			if err != nil {
				r.fail("card", member, err)

				continue
			}

			if floating {
				r.diags.AddWarning(diagnostic.CodeNormalized,
					fmt.Sprintf("%s without a zone read as UTC", p.Name), "card", member)
			}

			if p.Name == "REV" {
				c.Updated = ts
			} else {
				c.Created = ts
			}
		}

		r.dropParams("card", p, ps)
	}

	for _, p := range cp.members {
		if c.Members[p.Value] {
			r.keep(p)

			continue
		}

		ps := newParamSet(p)
		ps.take(vcard.ParamValue)
		ps.take(vcard.ParamPref)
		ps.takeType("pref")

		ref := memberRef{uri: p.Value}
		ref.pref, ref.hasPref = p.Pref()

		if c.Members == nil {
			c.Members = make(map[string]bool)
		}

		c.Members[p.Value] = true
		r.members = append(r.members, ref)
		r.dropParams("members", p, ps)
	}
}

// dropParams warns about parameters a top-level member has no room for.
func (r *toJSRun) dropParams(family string, p *vcard.Property, ps *paramSet) {
	if ps.leftover() == nil && p.Group == "" {
		return
	}

	r.diags.AddWarning(diagnostic.CodeNormalized,
		fmt.Sprintf("parameters of %s dropped", p.Name), family, strings.ToLower(p.Name))
}

// timestamp converts a vCard timestamp to an RFC 3339 UTC timestamp. It
// reports whether the value was floating.
func timestamp(text string) (string, bool, error) {
	v, err := temporal.Decode(text)
	if err != nil {
		return "", false, err
	}

	if !v.IsFullDate() {
		return "", false, fmt.Errorf("%q is not a full date: %w", text, diagnostic.ErrTemporalParse)
	}

	return temporal.Encode(v, temporal.UTCTime), v.IsFloating(), nil
}

// namePlan maps N and FN onto the single name of the card. Extra N or FN
// groups are kept verbatim.
type namePlan struct {
	n, fn  *altid.Resolution
	failed bool
}

func (np *namePlan) family() string {
	return "name"
}

func (np *namePlan) group(r *toJSRun) {
	np.n = np.first(r, "N")
	np.fn = np.first(r, "FN")
}

// first resolves the first ALTID group of the named property.
func (np *namePlan) first(r *toJSRun, name string) *altid.Resolution {
	groups := altid.GroupProperties(r.claim(nil, name), false)
	if len(groups) == 0 {
		return nil
	}

	for _, g := range groups[1:] {
		r.keep(g.Members...)
	}

	res := r.resolve("name", groups[0].Members)
	if len(res) == 0 {
		np.failed = true

		return nil
	}

	return &res[0]
}

func (np *namePlan) assign(*toJSRun) {}

func (np *namePlan) mapFields(r *toJSRun) {
	var name *jscontact.Name

	locals := make(map[string]*jscontact.Name)

	if np.n != nil {
		n, err := nameFromN(r, np.n.Primary)
		if err != nil {
			r.fail("name", "components", err)
		} else {
			name = n

			for _, lang := range np.n.Languages {
				alt, err := nameFromN(r, np.n.Localizations[lang])
				if err != nil {
					r.fail("name", "localizations/"+lang, err)

					continue
				}

				locals[lang] = alt
			}
		}
	}

	if np.fn != nil {
		mapped := true

		switch {
		case name == nil:
			name = &jscontact.Name{Full: text(np.fn.Primary)}
			readMeta(&name.Meta, newParamSet(np.fn.Primary), identity.Assignment{}, metaRules{})
		case !attachFull(name, np.n.Primary, np.fn.Primary):
			r.keep(groupMembers(*np.fn)...)

			mapped = false
		}

		if mapped {
			for _, lang := range np.fn.Languages {
				p := np.fn.Localizations[lang]

				if alt := locals[lang]; alt != nil {
					alt.Full = text(p)

					continue
				}

				alt := &jscontact.Name{Full: text(p)}
				readMeta(&alt.Meta, newParamSet(p), identity.Assignment{}, metaRules{})
				locals[lang] = alt
			}
		}
	}

	if name == nil {
		return
	}

	for _, lang := range common.SortedKeys(locals) {
		raw, err := localization(locals[lang])
		if err != nil {
			r.fail("name", "localizations/"+lang, err)

			continue
		}

		if name.Localizations == nil {
			name.Localizations = make(map[string]json.RawMessage)
		}

		name.Localizations[lang] = raw
	}

	r.card.Name = name
}

func nameFromN(r *toJSRun, p *vcard.Property) (*jscontact.Name, error) {
	cs, err := components.NameLayout.ToComponents(p.Value, r.version())
	if err != nil {
		return nil, err
	}

	name := &jscontact.Name{Components: cs}
	ps := newParamSet(p)

	// SORT-AS values follow the slot order of N
	if sortAs := p.Params.Values(vcard.ParamSortAs); len(sortAs) > 0 && len(sortAs) <= len(components.NameLayout.Slots) {
		ps.take(vcard.ParamSortAs)

		for i, s := range sortAs {
			if s == "" {
				continue
			}

			if name.SortAs == nil {
				name.SortAs = make(map[string]string)
			}

			name.SortAs[string(components.NameLayout.Slots[i])] = s
		}
	}

	readMeta(&name.Meta, ps, identity.Assignment{}, metaRules{})

	return name, nil
}

// attachFull sets the full name from fn unless fn carries parameters or a
// group that the name cannot hold next to those of n.
func attachFull(name *jscontact.Name, n, fn *vcard.Property) bool {
	if fn.Group != n.Group {
		return false
	}

	ps := newParamSet(fn)
	ps.take(vcard.ParamAltID)

	if lang := ps.get(vcard.ParamLanguage); lang != "" {
		switch {
		case name.Language == "":
			name.Language = lang
			ps.take(vcard.ParamLanguage)
		case strings.EqualFold(lang, name.Language):
			ps.take(vcard.ParamLanguage)
		}
	}

	if s := ps.get(vcard.ParamPref); s != "" {
		if pref, err := strconv.Atoi(s); err == nil && pref == name.Pref {
			ps.take(vcard.ParamPref)
		}
	}

	if name.Pref == 1 {
		ps.takeType("pref")
	}

	if ps.leftover() != nil {
		return false
	}

	name.Full = text(fn)

	return true
}

// genderPlan maps the first GRAMGENDER onto speakToAs.
type genderPlan struct {
	prop *vcard.Property
}

func (gp *genderPlan) family() string {
	return "speakToAs"
}

func (gp *genderPlan) group(r *toJSRun) {
	props := r.claim(nil, "GRAMGENDER")

	first, ok := common.First(props)
	if !ok {
		return
	}

	gp.prop = first
	r.keep(props[1:]...)
}

func (gp *genderPlan) assign(*toJSRun) {}

func (gp *genderPlan) mapFields(r *toJSRun) {
	if gp.prop == nil {
		return
	}

	if r.card.SpeakToAs == nil {
		r.card.SpeakToAs = &jscontact.SpeakToAs{}
	}

	st := r.card.SpeakToAs
	st.GrammaticalGender = strings.ToLower(text(gp.prop))
	readMeta(&st.Meta, newParamSet(gp.prop), identity.Assignment{}, metaRules{})
}

// keywordsPlan merges plain CATEGORIES into keywords. CATEGORIES with
// parameters or a group are kept verbatim.
type keywordsPlan struct {
	props []*vcard.Property
}

func (kp *keywordsPlan) family() string {
	return "keywords"
}

func (kp *keywordsPlan) group(r *toJSRun) {
	kp.props = r.claim(func(p *vcard.Property) bool {
		return len(p.Params) == 0 && p.Group == ""
	}, "CATEGORIES")
}

func (kp *keywordsPlan) assign(*toJSRun) {}

func (kp *keywordsPlan) mapFields(r *toJSRun) {
	for _, p := range kp.props {
		for _, item := range vcard.SplitTextList(p.Value) {
			if item == "" {
				continue
			}

			if r.card.Keywords == nil {
				r.card.Keywords = make(map[string]bool)
			}

			r.card.Keywords[item] = true
		}
	}
}

// relatedPlan maps RELATED onto relatedTo, keyed by the related URI or text.
// TYPE values become relation types.
type relatedPlan struct {
	props []*vcard.Property
}

func (rp *relatedPlan) family() string {
	return "relatedTo"
}

func (rp *relatedPlan) group(r *toJSRun) {
	rp.props = r.claim(func(p *vcard.Property) bool {
		return !p.Params.Has(vcard.ParamAltID)
	}, "RELATED")
}

func (rp *relatedPlan) assign(*toJSRun) {}

func (rp *relatedPlan) mapFields(r *toJSRun) {
	for _, p := range rp.props {
		if _, dup := r.card.RelatedTo[p.Value]; dup || p.Value == "" {
			r.keep(p)

			continue
		}

		ps := newParamSet(p)
		rel := &jscontact.Relation{}

		for _, t := range ps.types {
			if t == "pref" {
				continue
			}

			if rel.Relation == nil {
				rel.Relation = make(map[string]bool)
			}

			rel.Relation[t] = true
		}

		ps.types = slices.DeleteFunc(ps.types, func(t string) bool { return t != "pref" })

		if strings.EqualFold(ps.get(vcard.ParamValue), "uri") {
			ps.take(vcard.ParamValue)
		}

		readMeta(&rel.Meta, ps, identity.Assignment{}, metaRules{noContexts: true})

		if r.card.RelatedTo == nil {
			r.card.RelatedTo = make(map[string]*jscontact.Relation)
		}

		r.card.RelatedTo[p.Value] = rel
	}
}
