package convert

import (
	"maps"
	"slices"

	"cardbridge/internal/common"
	"cardbridge/internal/preference"
	"cardbridge/jscontact"
)

// Family tags, used as the prefix of generated ids and in id profiles.
const (
	tagNickname     = "NK"
	tagOrganization = "ORG"
	tagTitle        = "TITLE"
	tagEmail        = "EMAIL"
	tagPhone        = "PHONE"
	tagOnline       = "OS"
	tagLanguage     = "LANG"
	tagCalendar     = "CAL"
	tagScheduling   = "SCHED"
	tagAddress      = "ADR"
	tagCryptoKey    = "KEY"
	tagDirectory    = "DIR"
	tagLink         = "LINK"
	tagMedia        = "MEDIA"
	tagAnniversary  = "ANNIVERSARY"
	tagNote         = "NOTE"
	tagPersonalInfo = "PERSINFO"
	tagPronouns     = "PRONOUNS"
)

// Property name to kind tables. The reverse direction inverts them.
var (
	titleKinds = map[string]string{
		"TITLE": jscontact.TitleKindTitle,
		"ROLE":  jscontact.TitleKindRole,
	}
	calendarKinds = map[string]string{
		"CALURI": jscontact.CalendarKindCalendar,
		"FBURL":  jscontact.CalendarKindFreeBusy,
	}
	directoryKinds = map[string]string{
		"SOURCE":        jscontact.DirectoryKindEntry,
		"ORG-DIRECTORY": jscontact.DirectoryKindDirectory,
	}
	mediaKinds = map[string]string{
		"PHOTO": jscontact.MediaKindPhoto,
		"LOGO":  jscontact.MediaKindLogo,
		"SOUND": jscontact.MediaKindSound,
	}
	anniversaryKinds = map[string]string{
		"BDAY":        jscontact.AnniversaryKindBirth,
		"ANNIVERSARY": jscontact.AnniversaryKindWedding,
		"DEATHDATE":   jscontact.AnniversaryKindDeath,
	}
	placeProps = map[string]string{
		jscontact.AnniversaryKindBirth: "BIRTHPLACE",
		jscontact.AnniversaryKindDeath: "DEATHPLACE",
	}
	personalInfoKinds = map[string]string{
		"EXPERTISE": jscontact.PersonalInfoKindExpertise,
		"HOBBY":     jscontact.PersonalInfoKindHobby,
		"INTEREST":  jscontact.PersonalInfoKindInterest,
	}
	// TEL TYPE values that are phone features
	phoneFeatures = map[string]string{
		"voice":       "voice",
		"fax":         "fax",
		"cell":        "mobile",
		"pager":       "pager",
		"text":        "text",
		"video":       "video",
		"textphone":   "textphone",
		"main-number": "main-number",
	}
	// EXPERTISE LEVEL values; HOBBY and INTEREST use the JSContact words
	expertiseLevels = map[string]string{
		"beginner": "low",
		"average":  "medium",
		"expert":   "high",
	}
	interestLevels = map[string]string{
		"low":    "low",
		"medium": "medium",
		"high":   "high",
	}
)

func reverse(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}

	return out
}

// propNames returns the keys of a property name table, sorted.
func propNames(m map[string]string) []string {
	return common.SortedKeys(m)
}

// orderedKeys returns the keys of fields by preference, ties in natural key
// order.
func orderedKeys[T any, PT fieldPtr[T]](fields map[string]PT) []string {
	keys := slices.SortedFunc(maps.Keys(fields), common.NaturalCompare)

	return preference.Order(keys, func(k string) (int, bool) {
		f := fields[k]
		if f == nil {
			return 0, false
		}

		pref := f.FieldMeta().Pref

		return pref, pref > 0
	})
}
