package convert

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"cardbridge/internal/altid"
	"cardbridge/internal/common"
	"cardbridge/internal/components"
	"cardbridge/internal/identity"
	"cardbridge/internal/temporal"
	"cardbridge/jscontact"
	"cardbridge/utils"
	"cardbridge/vcard"
)

// dateValueTypes are the VALUE types a date property maps without loss.
var dateValueTypes = []string{"date", "date-time", "date-and-or-time", "timestamp"}

// toJSPlans returns fresh plans in conversion order.
func toJSPlans() []toJSPlan {
	return []toJSPlan{
		&cardPlan{},
		&namePlan{},
		&mapFamily[jscontact.Nickname, *jscontact.Nickname]{
			name: "nicknames", tag: tagNickname, props: []string{"NICKNAME"},
			build: buildNickname,
			field: func(c *jscontact.Card) *map[string]*jscontact.Nickname { return &c.Nicknames },
		},
		&mapFamily[jscontact.Organization, *jscontact.Organization]{
			name: "organizations", tag: tagOrganization, props: []string{"ORG"},
			build: buildOrganization,
			field: func(c *jscontact.Card) *map[string]*jscontact.Organization { return &c.Organizations },
		},
		&mapFamily[jscontact.Title, *jscontact.Title]{
			name: "titles", tag: tagTitle, props: propNames(titleKinds),
			build: buildTitle,
			field: func(c *jscontact.Card) *map[string]*jscontact.Title { return &c.Titles },
		},
		&mapFamily[jscontact.EmailAddress, *jscontact.EmailAddress]{
			name: "emails", tag: tagEmail, props: []string{"EMAIL"},
			build: buildEmail,
			field: func(c *jscontact.Card) *map[string]*jscontact.EmailAddress { return &c.Emails },
		},
		&mapFamily[jscontact.Phone, *jscontact.Phone]{
			name: "phones", tag: tagPhone, props: []string{"TEL"},
			build: buildPhone,
			field: func(c *jscontact.Card) *map[string]*jscontact.Phone { return &c.Phones },
		},
		&mapFamily[jscontact.OnlineService, *jscontact.OnlineService]{
			name: "onlineServices", tag: tagOnline, props: []string{"IMPP"},
			build: buildOnlineService,
			field: func(c *jscontact.Card) *map[string]*jscontact.OnlineService { return &c.OnlineServices },
		},
		&mapFamily[jscontact.LanguagePref, *jscontact.LanguagePref]{
			name: "preferredLanguages", tag: tagLanguage, props: []string{"LANG"},
			rules: metaRules{noLanguage: true},
			build: buildLanguage,
			field: func(c *jscontact.Card) *map[string]*jscontact.LanguagePref { return &c.PreferredLanguages },
		},
		&mapFamily[jscontact.Address, *jscontact.Address]{
			name: "addresses", tag: tagAddress, props: []string{"ADR"},
			rules:  metaRules{contexts: addressContexts},
			build:  buildAddress,
			field:  func(c *jscontact.Card) *map[string]*jscontact.Address { return &c.Addresses },
			finish: attachGeoTZ,
		},
		&mapFamily[jscontact.Calendar, *jscontact.Calendar]{
			name: "calendars", tag: tagCalendar, props: propNames(calendarKinds),
			build: buildCalendar,
			field: func(c *jscontact.Card) *map[string]*jscontact.Calendar { return &c.Calendars },
		},
		&mapFamily[jscontact.SchedulingAddress, *jscontact.SchedulingAddress]{
			name: "schedulingAddresses", tag: tagScheduling, props: []string{"CALADRURI"},
			build: buildScheduling,
			field: func(c *jscontact.Card) *map[string]*jscontact.SchedulingAddress { return &c.SchedulingAddresses },
		},
		&mapFamily[jscontact.CryptoKey, *jscontact.CryptoKey]{
			name: "cryptoKeys", tag: tagCryptoKey, props: []string{"KEY"},
			build: buildCryptoKey,
			field: func(c *jscontact.Card) *map[string]*jscontact.CryptoKey { return &c.CryptoKeys },
		},
		&mapFamily[jscontact.Directory, *jscontact.Directory]{
			name: "directories", tag: tagDirectory, props: propNames(directoryKinds),
			build: buildDirectory,
			field: func(c *jscontact.Card) *map[string]*jscontact.Directory { return &c.Directories },
		},
		&mapFamily[jscontact.Link, *jscontact.Link]{
			name: "links", tag: tagLink, props: []string{"URL"},
			build: buildLink,
			field: func(c *jscontact.Card) *map[string]*jscontact.Link { return &c.Links },
		},
		&mapFamily[jscontact.Media, *jscontact.Media]{
			name: "media", tag: tagMedia, props: propNames(mediaKinds),
			build: buildMedia,
			field: func(c *jscontact.Card) *map[string]*jscontact.Media { return &c.Media },
		},
		&mapFamily[jscontact.Anniversary, *jscontact.Anniversary]{
			name: "anniversaries", tag: tagAnniversary, props: propNames(anniversaryKinds),
			accept: func(p *vcard.Property) bool {
				return !strings.EqualFold(p.Params.Get(vcard.ParamValue), "text")
			},
			build:  buildAnniversary,
			field:  func(c *jscontact.Card) *map[string]*jscontact.Anniversary { return &c.Anniversaries },
			finish: attachPlaces,
		},
		&mapFamily[jscontact.Note, *jscontact.Note]{
			name: "notes", tag: tagNote, props: []string{"NOTE"},
			build: buildNote,
			field: func(c *jscontact.Card) *map[string]*jscontact.Note { return &c.Notes },
		},
		&mapFamily[jscontact.PersonalInfo, *jscontact.PersonalInfo]{
			name: "personalInfo", tag: tagPersonalInfo, props: propNames(personalInfoKinds),
			build: buildPersonalInfo,
			field: func(c *jscontact.Card) *map[string]*jscontact.PersonalInfo { return &c.PersonalInfo },
		},
		&genderPlan{},
		&mapFamily[jscontact.Pronouns, *jscontact.Pronouns]{
			name: "speakToAs", tag: tagPronouns, props: []string{"PRONOUNS"},
			build: buildPronouns,
			field: func(c *jscontact.Card) *map[string]*jscontact.Pronouns {
				if c.SpeakToAs == nil {
					c.SpeakToAs = &jscontact.SpeakToAs{}
				}

				return &c.SpeakToAs.Pronouns
			},
		},
		&keywordsPlan{},
		&relatedPlan{},
	}
}

func text(p *vcard.Property) string {
	return vcard.UnescapeText(p.Value)
}

func buildNickname(_ *toJSRun, p *vcard.Property, _ *paramSet) (*jscontact.Nickname, error) {
	return &jscontact.Nickname{Name: text(p)}, nil
}

func buildOrganization(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Organization, error) {
	parts := vcard.SplitUnescaped(p.Value, ';')

	org := &jscontact.Organization{Name: vcard.UnescapeText(parts[0])}
	for _, u := range parts[1:] {
		org.Units = append(org.Units, jscontact.OrgUnit{Name: vcard.UnescapeText(u)})
	}

	// SORT-AS lists the organization first, then its units
	if sortAs := p.Params.Values(vcard.ParamSortAs); len(sortAs) > 0 && len(sortAs) <= len(org.Units)+1 {
		ps.take(vcard.ParamSortAs)

		org.SortAs = sortAs[0]
		for i, s := range sortAs[1:] {
			org.Units[i].SortAs = s
		}
	}

	return org, nil
}

func buildTitle(_ *toJSRun, p *vcard.Property, _ *paramSet) (*jscontact.Title, error) {
	return &jscontact.Title{Name: text(p), Kind: titleKinds[p.Name]}, nil
}

func buildEmail(_ *toJSRun, p *vcard.Property, _ *paramSet) (*jscontact.EmailAddress, error) {
	return &jscontact.EmailAddress{Address: text(p)}, nil
}

func buildPhone(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Phone, error) {
	phone := &jscontact.Phone{Number: p.Value}

	for _, f := range ps.takeTypes(phoneFeatures) {
		if phone.Features == nil {
			phone.Features = make(map[string]bool)
		}

		phone.Features[f] = true
	}

	if strings.EqualFold(ps.get(vcard.ParamValue), "uri") {
		ps.take(vcard.ParamValue)
	}

	return phone, nil
}

func buildOnlineService(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.OnlineService, error) {
	return &jscontact.OnlineService{
		URI:     p.Value,
		Service: ps.takeOne(vcard.ParamServiceType),
		User:    ps.takeOne(vcard.ParamUsername),
	}, nil
}

func buildLanguage(_ *toJSRun, p *vcard.Property, _ *paramSet) (*jscontact.LanguagePref, error) {
	return &jscontact.LanguagePref{Language: p.Value}, nil
}

func buildAddress(r *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Address, error) {
	cs, err := components.AddressLayout.ToComponents(p.Value, r.version())
	if err != nil {
		return nil, err
	}

	addr := &jscontact.Address{
		Components:  cs,
		Full:        ps.takeOne(vcard.ParamLabel),
		CountryCode: ps.takeOne(vcard.ParamCC),
		Coordinates: ps.takeOne(vcard.ParamGeo),
	}

	if tz := ps.takeOne(vcard.ParamTZ); tz != "" {
		addr.TimeZone = timeZoneFromVCard(tz, r.cfg.CustomTimezonePrefix)
	}

	return addr, nil
}

func buildCalendar(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Calendar, error) {
	return &jscontact.Calendar{
		Kind:      calendarKinds[p.Name],
		URI:       p.Value,
		MediaType: ps.takeOne(vcard.ParamMediaType),
	}, nil
}

func buildScheduling(_ *toJSRun, p *vcard.Property, _ *paramSet) (*jscontact.SchedulingAddress, error) {
	return &jscontact.SchedulingAddress{URI: p.Value}, nil
}

func buildCryptoKey(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.CryptoKey, error) {
	return &jscontact.CryptoKey{URI: p.Value, MediaType: ps.takeOne(vcard.ParamMediaType)}, nil
}

func buildDirectory(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Directory, error) {
	return &jscontact.Directory{
		Kind:      directoryKinds[p.Name],
		URI:       p.Value,
		MediaType: ps.takeOne(vcard.ParamMediaType),
		ListAs:    takeIndex(ps),
	}, nil
}

func buildLink(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Link, error) {
	return &jscontact.Link{URI: p.Value, MediaType: ps.takeOne(vcard.ParamMediaType)}, nil
}

func buildMedia(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Media, error) {
	return &jscontact.Media{
		Kind:      mediaKinds[p.Name],
		URI:       p.Value,
		MediaType: ps.takeOne(vcard.ParamMediaType),
	}, nil
}

func buildAnniversary(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Anniversary, error) {
	v, err := temporal.Decode(p.Value)
	if err != nil {
		return nil, err
	}

	// a time without a full date or a zone has no JSContact form
	if v.HasTime && (!v.IsFullDate() || v.IsFloating()) {
		return nil, errKeep
	}

	a := &jscontact.Anniversary{Kind: anniversaryKinds[p.Name]}

	if v.HasTime {
		a.Date = jscontact.DateValue{UTC: temporal.Encode(v, temporal.UTCTime)}
	} else {
		a.Date = jscontact.DateValue{
			Year:          v.Year,
			Month:         v.Month,
			Day:           v.Day,
			CalendarScale: ps.takeOne(vcard.ParamCalScale),
		}
	}

	if slices.Contains(dateValueTypes, strings.ToLower(ps.get(vcard.ParamValue))) {
		ps.take(vcard.ParamValue)
	}

	return a, nil
}

func buildNote(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.Note, error) {
	note := &jscontact.Note{Note: text(p)}

	if s := ps.get(vcard.ParamCreated); s != "" {
		if v, err := temporal.Decode(s); err == nil && v.IsFullDate() && !v.IsFloating() {
			note.Created = temporal.Encode(v, temporal.UTCTime)
			ps.take(vcard.ParamCreated)
		}
	}

	uri := ps.takeOne(vcard.ParamAuthor)
	name := ps.takeOne(vcard.ParamAuthorName)

	if uri != "" || name != "" {
		note.Author = &jscontact.Author{Name: name, URI: uri}
	}

	return note, nil
}

func buildPersonalInfo(_ *toJSRun, p *vcard.Property, ps *paramSet) (*jscontact.PersonalInfo, error) {
	info := &jscontact.PersonalInfo{
		Kind:   personalInfoKinds[p.Name],
		Value:  text(p),
		ListAs: takeIndex(ps),
	}

	levels := interestLevels
	if info.Kind == jscontact.PersonalInfoKindExpertise {
		levels = expertiseLevels
	}

	if level, ok := levels[strings.ToLower(ps.get(vcard.ParamLevel))]; ok {
		info.Level = level
		ps.take(vcard.ParamLevel)
	}

	return info, nil
}

func buildPronouns(_ *toJSRun, p *vcard.Property, _ *paramSet) (*jscontact.Pronouns, error) {
	return &jscontact.Pronouns{Pronouns: text(p)}, nil
}

// takeIndex consumes a positive INDEX parameter.
func takeIndex(ps *paramSet) int {
	n, err := strconv.Atoi(ps.get(vcard.ParamIndex))
	if err != nil || n < 1 {
		return 0
	}

	ps.take(vcard.ParamIndex)

	return n
}

// geoFromVCard returns a geo URI. 3.0 and 2.1 write "lat;lon".
func geoFromVCard(value string, v vcard.Version) string {
	if v == vcard.V40 {
		return value
	}

	parts := strings.SplitN(value, ";", 2)
	if !common.IsMultiple(parts) {
		return value
	}

	lat, lon := utils.Unpack2(parts)

	return "geo:" + strings.TrimSpace(lat) + "," + strings.TrimSpace(lon)
}

// attachGeoTZ maps standalone GEO and TZ properties onto addresses: the one
// sharing the property group, else the preferred one lacking the value, else
// a new one.
func attachGeoTZ(r *toJSRun, addrs map[string]*jscontact.Address) {
	for _, p := range r.claim(nil, "GEO", "TZ") {
		ps := newParamSet(p)

		var value string

		if p.Name == "GEO" {
			value = geoFromVCard(p.Value, r.version())

			if strings.EqualFold(ps.get(vcard.ParamValue), "uri") {
				ps.take(vcard.ParamValue)
			}
		} else {
			switch strings.ToLower(ps.get(vcard.ParamValue)) {
			case valueOffset, "text":
				ps.take(vcard.ParamValue)
			}

			value = timeZoneFromVCard(text(p), r.cfg.CustomTimezonePrefix)
		}

		if ps.leftover() != nil {
			r.keep(p)

			continue
		}

		get := func(a *jscontact.Address) *string {
			if p.Name == "GEO" {
				return &a.Coordinates
			}

			return &a.TimeZone
		}

		addr := pickAddress(addrs, p.Group, func(a *jscontact.Address) bool { return *get(a) == "" })
		if addr == nil {
			addr = &jscontact.Address{}
			if p.Group != "" {
				addr.VCardParams = map[string]jscontact.ParamValue{jscontact.GroupParam: {p.Group}}
			}

			addrs[nextID(addrs, tagAddress)] = addr
		}

		*get(addr) = value
	}
}

func pickAddress(addrs map[string]*jscontact.Address, group string, free func(*jscontact.Address) bool) *jscontact.Address {
	keys := orderedKeys(addrs)

	if group != "" {
		for _, k := range keys {
			a := addrs[k]
			if g := a.VCardParams[jscontact.GroupParam]; (k == group || len(g) > 0 && g[0] == group) && free(a) {
				return a
			}
		}
	}

	for _, k := range keys {
		if free(addrs[k]) {
			return addrs[k]
		}
	}

	return nil
}

// nextID returns the first generated id of tag not used in fields.
func nextID[T any](fields map[string]T, tag string) string {
	for n := len(fields) + 1; ; n++ {
		id := identity.Generated(tag, n)
		if _, used := fields[id]; !used {
			return id
		}
	}
}

// attachPlaces maps BIRTHPLACE and DEATHPLACE onto the preferred anniversary
// of their kind. Places without one are kept verbatim.
func attachPlaces(r *toJSRun, anniversaries map[string]*jscontact.Anniversary) {
	for _, kind := range []string{jscontact.AnniversaryKindBirth, jscontact.AnniversaryKindDeath} {
		groups := altid.GroupProperties(r.claim(nil, placeProps[kind]), false)
		if len(groups) == 0 {
			continue
		}

		var target *jscontact.Anniversary

		for _, k := range orderedKeys(anniversaries) {
			if a := anniversaries[k]; a.Kind == kind && a.Place == nil {
				target = a

				break
			}
		}

		if target == nil {
			for _, g := range groups {
				r.keep(g.Members...)
			}

			continue
		}

		for _, g := range groups[1:] {
			r.keep(g.Members...)
		}

		res := r.resolve("anniversaries", groups[0].Members)
		if len(res) == 0 {
			continue
		}

		place := buildPlace(res[0].Primary)

		for _, lang := range res[0].Languages {
			raw, err := localization(buildPlace(res[0].Localizations[lang]))
			if err != nil {
				r.fail("anniversaries", placeProps[kind], err)

				continue
			}

			if place.Localizations == nil {
				place.Localizations = make(map[string]json.RawMessage)
			}

			place.Localizations[lang] = raw
		}

		target.Place = place
	}
}

func buildPlace(p *vcard.Property) *jscontact.Address {
	ps := newParamSet(p)
	place := &jscontact.Address{}

	if strings.EqualFold(ps.get(vcard.ParamValue), "uri") || strings.HasPrefix(p.Value, "geo:") {
		place.Coordinates = p.Value
		ps.take(vcard.ParamValue)
	} else {
		place.Full = text(p)

		if strings.EqualFold(ps.get(vcard.ParamValue), "text") {
			ps.take(vcard.ParamValue)
		}
	}

	readMeta(&place.Meta, ps, identity.Assignment{}, metaRules{contexts: addressContexts})

	return place
}
