package convert

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"cardbridge/internal/common"
	"cardbridge/internal/components"
	"cardbridge/internal/diagnostic"
	"cardbridge/internal/extension"
	"cardbridge/internal/temporal"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

// toVCardPlans returns fresh plans in emission order.
func toVCardPlans() []toVCardPlan {
	return []toVCardPlan{
		&vcardCardPlan{},
		&vcardNamePlan{},
		&emitFamily[jscontact.Nickname, *jscontact.Nickname]{
			name: "nicknames", tag: tagNickname,
			field: func(c *jscontact.Card) map[string]*jscontact.Nickname { return c.Nicknames },
			emit:  emitNickname,
		},
		&emitFamily[jscontact.Organization, *jscontact.Organization]{
			name: "organizations", tag: tagOrganization,
			field: func(c *jscontact.Card) map[string]*jscontact.Organization { return c.Organizations },
			emit:  emitOrganization,
		},
		&emitFamily[jscontact.Title, *jscontact.Title]{
			name: "titles", tag: tagTitle,
			field: func(c *jscontact.Card) map[string]*jscontact.Title { return c.Titles },
			emit:  emitTitle,
		},
		&emitFamily[jscontact.EmailAddress, *jscontact.EmailAddress]{
			name: "emails", tag: tagEmail,
			field: func(c *jscontact.Card) map[string]*jscontact.EmailAddress { return c.Emails },
			emit:  emitEmail,
		},
		&emitFamily[jscontact.Phone, *jscontact.Phone]{
			name: "phones", tag: tagPhone,
			field: func(c *jscontact.Card) map[string]*jscontact.Phone { return c.Phones },
			emit:  emitPhone,
		},
		&emitFamily[jscontact.OnlineService, *jscontact.OnlineService]{
			name: "onlineServices", tag: tagOnline,
			field: func(c *jscontact.Card) map[string]*jscontact.OnlineService { return c.OnlineServices },
			emit:  emitOnlineService,
		},
		&emitFamily[jscontact.LanguagePref, *jscontact.LanguagePref]{
			name: "preferredLanguages", tag: tagLanguage,
			rules: metaRules{noLanguage: true},
			field: func(c *jscontact.Card) map[string]*jscontact.LanguagePref { return c.PreferredLanguages },
			emit:  emitLanguage,
		},
		&emitFamily[jscontact.Address, *jscontact.Address]{
			name: "addresses", tag: tagAddress,
			rules:  metaRules{contexts: addressContexts},
			field:  func(c *jscontact.Card) map[string]*jscontact.Address { return c.Addresses },
			emit:   emitAddress,
			detach: detachAddress,
			link:   true,
		},
		&emitFamily[jscontact.Calendar, *jscontact.Calendar]{
			name: "calendars", tag: tagCalendar,
			field: func(c *jscontact.Card) map[string]*jscontact.Calendar { return c.Calendars },
			emit:  emitCalendar,
		},
		&emitFamily[jscontact.SchedulingAddress, *jscontact.SchedulingAddress]{
			name: "schedulingAddresses", tag: tagScheduling,
			field: func(c *jscontact.Card) map[string]*jscontact.SchedulingAddress { return c.SchedulingAddresses },
			emit:  emitScheduling,
		},
		&emitFamily[jscontact.CryptoKey, *jscontact.CryptoKey]{
			name: "cryptoKeys", tag: tagCryptoKey,
			field: func(c *jscontact.Card) map[string]*jscontact.CryptoKey { return c.CryptoKeys },
			emit:  emitCryptoKey,
		},
		&emitFamily[jscontact.Directory, *jscontact.Directory]{
			name: "directories", tag: tagDirectory,
			field: func(c *jscontact.Card) map[string]*jscontact.Directory { return c.Directories },
			emit:  emitDirectory,
		},
		&emitFamily[jscontact.Link, *jscontact.Link]{
			name: "links", tag: tagLink,
			field: func(c *jscontact.Card) map[string]*jscontact.Link { return c.Links },
			emit:  emitLink,
		},
		&emitFamily[jscontact.Media, *jscontact.Media]{
			name: "media", tag: tagMedia,
			field: func(c *jscontact.Card) map[string]*jscontact.Media { return c.Media },
			emit:  emitMedia,
		},
		&emitFamily[jscontact.Anniversary, *jscontact.Anniversary]{
			name: "anniversaries", tag: tagAnniversary,
			field:  func(c *jscontact.Card) map[string]*jscontact.Anniversary { return c.Anniversaries },
			emit:   emitAnniversary,
			detach: detachAnniversary,
		},
		&emitFamily[jscontact.Note, *jscontact.Note]{
			name: "notes", tag: tagNote,
			field: func(c *jscontact.Card) map[string]*jscontact.Note { return c.Notes },
			emit:  emitNote,
		},
		&emitFamily[jscontact.PersonalInfo, *jscontact.PersonalInfo]{
			name: "personalInfo", tag: tagPersonalInfo,
			field: func(c *jscontact.Card) map[string]*jscontact.PersonalInfo { return c.PersonalInfo },
			emit:  emitPersonalInfo,
		},
		&vcardGenderPlan{},
		&emitFamily[jscontact.Pronouns, *jscontact.Pronouns]{
			name: "speakToAs", tag: tagPronouns,
			field: func(c *jscontact.Card) map[string]*jscontact.Pronouns {
				if c.SpeakToAs == nil {
					return nil
				}

				return c.SpeakToAs.Pronouns
			},
			emit: emitPronouns,
		},
		&vcardKeywordsPlan{},
		&vcardRelatedPlan{},
	}
}

func one(p *vcard.Property) []*vcard.Property {
	return []*vcard.Property{p}
}

func unknownKind(kind string) error {
	return fmt.Errorf("unknown kind %q: %w", kind, diagnostic.ErrValidation)
}

// propName returns the property name of kind, or def when kind is empty.
func propName(kinds map[string]string, kind, def string) (string, error) {
	if kind == "" {
		return def, nil
	}

	name, ok := reverse(kinds)[kind]
	if !ok {
		return "", unknownKind(kind)
	}

	return name, nil
}

func setParam(p *vcard.Property, name, value string) {
	if value != "" {
		p.Params.Set(name, value)
	}
}

func setIndex(p *vcard.Property, n int) {
	if n > 0 {
		p.Params.Set(vcard.ParamIndex, strconv.Itoa(n))
	}
}

func emitNickname(w *toVCardRun, _ string, n *jscontact.Nickname) ([]*vcard.Property, error) {
	return one(vcard.NewProperty("NICKNAME", vcard.EscapeText(n.Name, w.version()))), nil
}

func emitOrganization(w *toVCardRun, _ string, org *jscontact.Organization) ([]*vcard.Property, error) {
	v := w.version()

	parts := []string{vcard.EscapeText(org.Name, v)}
	sortAs := []string{org.SortAs}

	for _, u := range org.Units {
		parts = append(parts, vcard.EscapeText(u.Name, v))
		sortAs = append(sortAs, u.SortAs)
	}

	p := vcard.NewProperty("ORG", strings.Join(parts, ";"))

	for len(sortAs) > 0 && sortAs[len(sortAs)-1] == "" {
		sortAs = sortAs[:len(sortAs)-1]
	}

	if len(sortAs) > 0 {
		p.Params.Set(vcard.ParamSortAs, sortAs...)
	}

	return one(p), nil
}

func emitTitle(w *toVCardRun, _ string, t *jscontact.Title) ([]*vcard.Property, error) {
	name, err := propName(titleKinds, t.Kind, "TITLE")
	if err != nil {
		return nil, err
	}

	return one(vcard.NewProperty(name, vcard.EscapeText(t.Name, w.version()))), nil
}

func emitEmail(w *toVCardRun, _ string, e *jscontact.EmailAddress) ([]*vcard.Property, error) {
	return one(vcard.NewProperty("EMAIL", vcard.EscapeText(e.Address, w.version()))), nil
}

func emitPhone(w *toVCardRun, _ string, ph *jscontact.Phone) ([]*vcard.Property, error) {
	p := vcard.NewProperty("TEL", ph.Number)

	types := reverse(phoneFeatures)

	var features []string

	for _, f := range common.SortedKeys(ph.Features) {
		if !ph.Features[f] {
			continue
		}

		if t, ok := types[f]; ok {
			features = append(features, t)
		} else {
			features = append(features, strings.ToLower(f))
		}
	}

	if len(features) > 0 {
		p.Params.Set(vcard.ParamType, features...)
	}

	if w.version() == vcard.V40 && strings.Contains(ph.Number, ":") {
		p.Params.Set(vcard.ParamValue, "uri")
	}

	return one(p), nil
}

func emitOnlineService(_ *toVCardRun, _ string, s *jscontact.OnlineService) ([]*vcard.Property, error) {
	p := vcard.NewProperty("IMPP", s.URI)
	setParam(p, vcard.ParamServiceType, s.Service)
	setParam(p, vcard.ParamUsername, s.User)

	return one(p), nil
}

func emitLanguage(_ *toVCardRun, _ string, l *jscontact.LanguagePref) ([]*vcard.Property, error) {
	return one(vcard.NewProperty("LANG", l.Language)), nil
}

func emitAddress(w *toVCardRun, _ string, a *jscontact.Address) ([]*vcard.Property, error) {
	v := w.version()

	raw, err := components.AddressLayout.ToRawValue(a.Components, v)
	if err != nil {
		return nil, err
	}

	p := vcard.NewProperty("ADR", raw)
	out := one(p)

	label := a.Full
	if label == "" && w.cfg.AutoGenerateAddressLabel {
		label = components.Join(a.Components, ", ")
	}

	setParam(p, vcard.ParamLabel, label)
	setParam(p, vcard.ParamCC, a.CountryCode)

	if a.Coordinates != "" {
		if w.cfg.CoordinatesAsParam && v == vcard.V40 {
			p.Params.Set(vcard.ParamGeo, a.Coordinates)
		} else {
			out = append(out, geoProperty(a.Coordinates, v))
		}
	}

	if a.TimeZone != "" {
		if w.cfg.TimezoneAsParam && v == vcard.V40 {
			p.Params.Set(vcard.ParamTZ, w.timeZone(a.TimeZone))
		} else {
			out = append(out, w.timeZoneProperty(a.TimeZone))
		}
	}

	return out, nil
}

// detachAddress moves coordinates and time zone of a localized address into
// extensions unless they can be written as ADR parameters.
func detachAddress(w *toVCardRun, path extension.Path, a *jscontact.Address) error {
	asParam := w.version() == vcard.V40

	if a.Coordinates != "" && !(asParam && w.cfg.CoordinatesAsParam) {
		if err := w.extension(path.Child("coordinates"), a.Coordinates); err != nil {
			return err
		}

		a.Coordinates = ""
	}

	if a.TimeZone != "" && !(asParam && w.cfg.TimezoneAsParam) {
		if err := w.extension(path.Child("timeZone"), a.TimeZone); err != nil {
			return err
		}

		a.TimeZone = ""
	}

	return nil
}

// geoProperty writes a GEO property. 3.0 and 2.1 want "lat;lon".
func geoProperty(uri string, v vcard.Version) *vcard.Property {
	if v == vcard.V40 {
		return vcard.NewProperty("GEO", uri)
	}

	coords, _, _ := strings.Cut(strings.TrimPrefix(uri, "geo:"), ";")
	if lat, lon, ok := strings.Cut(coords, ","); ok && strings.HasPrefix(uri, "geo:") {
		return vcard.NewProperty("GEO", lat+";"+lon)
	}

	return vcard.NewProperty("GEO", uri)
}

// timeZone returns the parameter form of a time zone id.
func (w *toVCardRun) timeZone(tz string) string {
	if w.cfg.TimezoneAsOffset {
		if offset, ok := offsetFromTimeZone(tz, w.cfg.CustomTimezonePrefix); ok {
			return formatOffset(offset, w.version() != vcard.V40)
		}
	}

	return tz
}

func (w *toVCardRun) timeZoneProperty(tz string) *vcard.Property {
	v := w.version()

	if w.cfg.TimezoneAsOffset {
		if offset, ok := offsetFromTimeZone(tz, w.cfg.CustomTimezonePrefix); ok {
			p := vcard.NewProperty("TZ", formatOffset(offset, v != vcard.V40))
			if v == vcard.V40 {
				p.Params.Set(vcard.ParamValue, valueOffset)
			}

			return p
		}
	}

	p := vcard.NewProperty("TZ", vcard.EscapeText(tz, v))
	if v == vcard.V30 {
		p.Params.Set(vcard.ParamValue, "text")
	}

	return p
}

func emitCalendar(_ *toVCardRun, _ string, c *jscontact.Calendar) ([]*vcard.Property, error) {
	name, err := propName(calendarKinds, c.Kind, "CALURI")
	if err != nil {
		return nil, err
	}

	p := vcard.NewProperty(name, c.URI)
	setParam(p, vcard.ParamMediaType, c.MediaType)

	return one(p), nil
}

func emitScheduling(_ *toVCardRun, _ string, s *jscontact.SchedulingAddress) ([]*vcard.Property, error) {
	return one(vcard.NewProperty("CALADRURI", s.URI)), nil
}

func emitCryptoKey(_ *toVCardRun, _ string, k *jscontact.CryptoKey) ([]*vcard.Property, error) {
	p := vcard.NewProperty("KEY", k.URI)
	setParam(p, vcard.ParamMediaType, k.MediaType)

	return one(p), nil
}

func emitDirectory(_ *toVCardRun, _ string, d *jscontact.Directory) ([]*vcard.Property, error) {
	name, err := propName(directoryKinds, d.Kind, "SOURCE")
	if err != nil {
		return nil, err
	}

	p := vcard.NewProperty(name, d.URI)
	setParam(p, vcard.ParamMediaType, d.MediaType)
	setIndex(p, d.ListAs)

	return one(p), nil
}

func emitLink(_ *toVCardRun, _ string, l *jscontact.Link) ([]*vcard.Property, error) {
	p := vcard.NewProperty("URL", l.URI)
	setParam(p, vcard.ParamMediaType, l.MediaType)

	return one(p), nil
}

func emitMedia(_ *toVCardRun, _ string, m *jscontact.Media) ([]*vcard.Property, error) {
	name, err := propName(mediaKinds, m.Kind, "PHOTO")
	if err != nil {
		return nil, err
	}

	p := vcard.NewProperty(name, m.URI)
	setParam(p, vcard.ParamMediaType, m.MediaType)

	return one(p), nil
}

func emitAnniversary(w *toVCardRun, key string, a *jscontact.Anniversary) ([]*vcard.Property, error) {
	name, err := propName(anniversaryKinds, a.Kind, "")
	if err != nil {
		return nil, err
	}

	if name == "" {
		return nil, unknownKind(a.Kind)
	}

	value, err := dateText(a.Date, w.version())
	if err != nil {
		return nil, err
	}

	p := vcard.NewProperty(name, value)
	setParam(p, vcard.ParamCalScale, a.Date.CalendarScale)

	out := one(p)

	if a.Place == nil {
		return out, nil
	}

	placeName, ok := placeProps[a.Kind]
	if !ok || !placeFits(a.Place) {
		return out, w.extension(extension.NewPath("anniversaries", key, "place"), a.Place)
	}

	places, err := w.placeProperties(placeName, a.Place)
	if err != nil {
		return nil, err
	}

	return append(out, places...), nil
}

// detachAnniversary moves the place of a localized anniversary into an
// extension.
func detachAnniversary(w *toVCardRun, path extension.Path, a *jscontact.Anniversary) error {
	if a.Place == nil {
		return nil
	}

	if err := w.extension(path.Child("place"), a.Place); err != nil {
		return err
	}

	a.Place = nil

	return nil
}

// placeFits reports whether an address is a plain text or coordinates
// place.
func placeFits(a *jscontact.Address) bool {
	if len(a.Components) > 0 || a.CountryCode != "" || a.TimeZone != "" {
		return false
	}

	return (a.Full == "") != (a.Coordinates == "")
}

func placeProperty(name string, a *jscontact.Address, v vcard.Version) *vcard.Property {
	if a.Full == "" {
		p := vcard.NewProperty(name, a.Coordinates)
		p.Params.Set(vcard.ParamValue, "uri")

		return p
	}

	return vcard.NewProperty(name, vcard.EscapeText(a.Full, v))
}

func (w *toVCardRun) placeProperties(name string, place *jscontact.Address) ([]*vcard.Property, error) {
	v := w.version()
	rules := metaRules{contexts: addressContexts}

	p := placeProperty(name, place, v)
	writeMeta(p, &place.Meta, v, rules)

	out := one(p)

	if len(place.Localizations) == 0 {
		return out, nil
	}

	token := w.alloc.Next()
	p.Params.Set(vcard.ParamAltID, token)

	for _, lang := range common.SortedKeys(place.Localizations) {
		var alt jscontact.Address
		if err := json.Unmarshal(place.Localizations[lang], &alt); err != nil {
			return nil, fmt.Errorf("place localization %s: %w: %w", lang, diagnostic.ErrValidation, err)
		}

		alt.Language = ""

		ap := placeProperty(name, &alt, v)
		writeMeta(ap, &alt.Meta, v, rules)
		ap.Params.Set(vcard.ParamLanguage, lang)
		ap.Params.Set(vcard.ParamAltID, token)

		out = append(out, ap)
	}

	return out, nil
}

// dateText writes an anniversary date the way version v expects.
func dateText(d jscontact.DateValue, v vcard.Version) (string, error) {
	if d.IsTimestamp() {
		t, err := temporal.Decode(d.UTC)
		if err != nil {
			return "", err
		}

		if v == vcard.V40 {
			return temporal.EncodeBasic(t, temporal.UTCTime), nil
		}

		return temporal.Encode(t, temporal.UTCTime), nil
	}

	t := temporal.Value{Year: d.Year, Month: d.Month, Day: d.Day}
	if !t.HasDate() {
		return "", fmt.Errorf("empty partial date: %w", diagnostic.ErrTemporalParse)
	}

	switch {
	case v == vcard.V40:
		return temporal.EncodeBasic(t, temporal.NonZeroTime), nil
	case t.IsFullDate():
		return temporal.Encode(t, temporal.NonZeroTime), nil
	default:
		return temporal.EncodePartial(t), nil
	}
}

func emitNote(w *toVCardRun, _ string, n *jscontact.Note) ([]*vcard.Property, error) {
	p := vcard.NewProperty("NOTE", vcard.EscapeText(n.Note, w.version()))

	if n.Created != "" {
		created, err := w.timestamp(n.Created)
		if err != nil {
			return nil, fmt.Errorf("created: %w", err)
		}

		p.Params.Set(vcard.ParamCreated, created)
	}

	if n.Author != nil {
		setParam(p, vcard.ParamAuthor, n.Author.URI)
		setParam(p, vcard.ParamAuthorName, n.Author.Name)
	}

	return one(p), nil
}

func emitPersonalInfo(w *toVCardRun, _ string, info *jscontact.PersonalInfo) ([]*vcard.Property, error) {
	name, err := propName(personalInfoKinds, info.Kind, "")
	if err != nil {
		return nil, err
	}

	if name == "" {
		return nil, unknownKind(info.Kind)
	}

	p := vcard.NewProperty(name, vcard.EscapeText(info.Value, w.version()))

	level := info.Level
	if l, ok := reverse(expertiseLevels)[level]; ok && info.Kind == jscontact.PersonalInfoKindExpertise {
		level = l
	}

	setParam(p, vcard.ParamLevel, level)
	setIndex(p, info.ListAs)

	return one(p), nil
}

func emitPronouns(w *toVCardRun, _ string, pr *jscontact.Pronouns) ([]*vcard.Property, error) {
	return one(vcard.NewProperty("PRONOUNS", vcard.EscapeText(pr.Pronouns, w.version()))), nil
}

// timestamp writes an RFC 3339 timestamp the way the target version
// expects.
func (w *toVCardRun) timestamp(ts string) (string, error) {
	t, err := temporal.Decode(ts)
	if err != nil {
		return "", err
	}

	if w.version() == vcard.V40 {
		return temporal.EncodeBasic(t, temporal.UTCTime), nil
	}

	return temporal.Encode(t, temporal.UTCTime), nil
}

// vcardCardPlan writes the top-level card members.
type vcardCardPlan struct{}

func (vcardCardPlan) family() string {
	return "card"
}

func (vcardCardPlan) group(*toVCardRun) {}

func (vcardCardPlan) assign(*toVCardRun) {}

func (vcardCardPlan) mapFields(w *toVCardRun) {
	c := w.src
	v := w.version()

	add := func(name, value string) {
		if value != "" {
			w.out.Add(vcard.NewProperty(name, value))
		}
	}

	add("UID", c.UID)
	add("KIND", c.Kind)
	add("PRODID", vcard.EscapeText(c.ProdID, v))
	add("LANGUAGE", c.Language)

	for _, m := range []struct {
		name, member, value string
	}{
		{"CREATED", "created", c.Created},
		{"REV", "updated", c.Updated},
	} {
		if m.value == "" {
			continue
		}

		ts, err := w.timestamp(m.value)
		if err != nil {
			w.fail("card", m.member, err)

			continue
		}

		add(m.name, ts)
	}

	members := slices.SortedFunc(maps.Keys(c.Members), common.NaturalCompare)
	for _, uri := range members {
		if c.Members[uri] {
			add("MEMBER", uri)
		}
	}
}

// vcardNamePlan writes FN and N. FN is derived from the components when the
// name has no full text.
type vcardNamePlan struct{}

func (vcardNamePlan) family() string {
	return "name"
}

func (vcardNamePlan) group(*toVCardRun) {}

func (vcardNamePlan) assign(*toVCardRun) {}

func (vcardNamePlan) mapFields(w *toVCardRun) {
	v := w.version()
	name := w.src.Name

	var (
		hasParts bool
		full     string
	)

	if name != nil {
		hasParts = len(name.Components) > 0 || len(name.SortAs) > 0
		full = name.Full
	}

	if full == "" && hasParts {
		full = fullName(name.Components)
		if full != "" {
			w.diags.AddWarning(diagnostic.CodeGenerated, "FN derived from name components", "name", "full")
		}
	}

	if full == "" && !hasParts {
		if hasVCardProp(w.src, "fn") {
			return
		}

		w.fail("name", "", fmt.Errorf("card has no name: %w", diagnostic.ErrMissingRequiredField))

		return
	}

	fn := vcard.NewProperty("FN", vcard.EscapeText(full, v))

	var n *vcard.Property

	if hasParts || v != vcard.V40 {
		var cs []jscontact.Component
		if hasParts {
			cs = name.Components
		}

		var err error

		n, err = nameProperty(cs, name.SortAs, v)
		if err != nil {
			w.fail("name", "components", err)

			return
		}
	}

	if hasParts {
		writeMeta(n, &name.Meta, v, metaRules{})
		fn.Group = n.Group
		setParam(fn, vcard.ParamLanguage, name.Language)
	} else {
		writeMeta(fn, &name.Meta, v, metaRules{})
	}

	fns := one(fn)

	var ns []*vcard.Property
	if n != nil {
		ns = one(n)
	}

	if len(name.Localizations) > 0 {
		token := w.alloc.Next()
		fn.Params.Set(vcard.ParamAltID, token)

		if hasParts {
			n.Params.Set(vcard.ParamAltID, token)
		}

		for _, lang := range common.SortedKeys(name.Localizations) {
			var alt jscontact.Name
			if err := json.Unmarshal(name.Localizations[lang], &alt); err != nil {
				w.fail("name", "localizations/"+lang, fmt.Errorf("%w: %w", diagnostic.ErrValidation, err))

				continue
			}

			alt.Language = ""
			altHasParts := hasParts && (len(alt.Components) > 0 || len(alt.SortAs) > 0)

			if altHasParts {
				an, err := nameProperty(alt.Components, alt.SortAs, v)
				if err != nil {
					w.fail("name", "localizations/"+lang, err)

					continue
				}

				writeMeta(an, &alt.Meta, v, metaRules{})
				an.Params.Set(vcard.ParamLanguage, lang)
				an.Params.Set(vcard.ParamAltID, token)
				ns = append(ns, an)
			}

			if alt.Full == "" {
				continue
			}

			afn := vcard.NewProperty("FN", vcard.EscapeText(alt.Full, v))
			if !altHasParts {
				writeMeta(afn, &alt.Meta, v, metaRules{})
			}

			afn.Params.Set(vcard.ParamLanguage, lang)
			afn.Params.Set(vcard.ParamAltID, token)
			fns = append(fns, afn)
		}
	}

	w.out.Add(fns...)
	w.out.Add(ns...)
}

func nameProperty(cs []jscontact.Component, sortAs map[string]string, v vcard.Version) (*vcard.Property, error) {
	raw, err := components.NameLayout.ToRawValue(cs, v)
	if err != nil {
		return nil, err
	}

	p := vcard.NewProperty("N", raw)

	var values []string

	for _, k := range components.NameLayout.Slots {
		values = append(values, sortAs[string(k)])
	}

	for len(values) > 0 && values[len(values)-1] == "" {
		values = values[:len(values)-1]
	}

	if len(values) > 0 {
		p.Params.Set(vcard.ParamSortAs, values...)
	}

	return p, nil
}

// fullNameOrder is the order of components in a derived full name.
var fullNameOrder = []components.Kind{
	components.Title,
	components.Given,
	components.Given2,
	components.Surname,
	components.Surname2,
	components.Generation,
	components.Credential,
}

func fullName(cs []jscontact.Component) string {
	var parts []string

	for _, k := range fullNameOrder {
		parts = append(parts, components.Values(cs, k)...)
	}

	return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), " ")
}

func hasVCardProp(c *jscontact.Card, name string) bool {
	return slices.ContainsFunc(c.VCardProps, func(p jscontact.VCardProp) bool {
		return strings.EqualFold(p.Name, name)
	})
}

// vcardGenderPlan writes GRAMGENDER.
type vcardGenderPlan struct{}

func (vcardGenderPlan) family() string {
	return "speakToAs"
}

func (vcardGenderPlan) group(*toVCardRun) {}

func (vcardGenderPlan) assign(*toVCardRun) {}

func (vcardGenderPlan) mapFields(w *toVCardRun) {
	st := w.src.SpeakToAs
	if st == nil || st.GrammaticalGender == "" {
		return
	}

	p := vcard.NewProperty("GRAMGENDER", vcard.EscapeText(st.GrammaticalGender, w.version()))
	writeMeta(p, &st.Meta, w.version(), metaRules{})
	w.out.Add(p)
}

// vcardKeywordsPlan writes the keywords as one CATEGORIES property.
type vcardKeywordsPlan struct{}

func (vcardKeywordsPlan) family() string {
	return "keywords"
}

func (vcardKeywordsPlan) group(*toVCardRun) {}

func (vcardKeywordsPlan) assign(*toVCardRun) {}

func (vcardKeywordsPlan) mapFields(w *toVCardRun) {
	var items []string

	for _, k := range common.SortedKeys(w.src.Keywords) {
		if w.src.Keywords[k] && k != "" {
			items = append(items, k)
		}
	}

	if len(items) > 0 {
		w.out.Add(vcard.NewProperty("CATEGORIES", vcard.JoinTextList(items, w.version())))
	}
}

// vcardRelatedPlan writes one RELATED per relatedTo entry.
type vcardRelatedPlan struct{}

func (vcardRelatedPlan) family() string {
	return "relatedTo"
}

func (vcardRelatedPlan) group(*toVCardRun) {}

func (vcardRelatedPlan) assign(*toVCardRun) {}

func (vcardRelatedPlan) mapFields(w *toVCardRun) {
	related := w.src.RelatedTo

	for _, key := range slices.SortedFunc(maps.Keys(related), common.NaturalCompare) {
		rel := related[key]
		if rel == nil {
			continue
		}

		p := vcard.NewProperty("RELATED", key)

		var types []string

		for _, t := range common.SortedKeys(rel.Relation) {
			if rel.Relation[t] {
				types = append(types, t)
			}
		}

		if len(types) > 0 {
			p.Params.Set(vcard.ParamType, types...)
		}

		writeMeta(p, &rel.Meta, w.version(), metaRules{noContexts: true})
		w.out.Add(p)
	}
}
