package jscontact

import (
	"encoding/json"

	"cardbridge/internal/components"
)

// Version is the JSContact version written by this package.
const Version = "1.0"

// Component is one tagged component of a name or address.
type Component = components.Component

// Card is a JSContact Card.
type Card struct {
	Type     string `json:"@type"`
	Version  string `json:"version"`
	UID      string `json:"uid" validate:"required"`
	Kind     string `json:"kind,omitempty"`
	Language string `json:"language,omitempty"`
	ProdID   string `json:"prodId,omitempty"`
	Created  string `json:"created,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Updated  string `json:"updated,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`

	Members map[string]bool `json:"members,omitempty"`

	Name      *Name      `json:"name,omitempty"`
	SpeakToAs *SpeakToAs `json:"speakToAs,omitempty"`

	Nicknames           map[string]*Nickname          `json:"nicknames,omitempty" validate:"dive,keys,required,endkeys,required"`
	Organizations       map[string]*Organization      `json:"organizations,omitempty" validate:"dive,keys,required,endkeys,required"`
	Titles              map[string]*Title             `json:"titles,omitempty" validate:"dive,keys,required,endkeys,required"`
	Emails              map[string]*EmailAddress      `json:"emails,omitempty" validate:"dive,keys,required,endkeys,required"`
	Phones              map[string]*Phone             `json:"phones,omitempty" validate:"dive,keys,required,endkeys,required"`
	OnlineServices      map[string]*OnlineService     `json:"onlineServices,omitempty" validate:"dive,keys,required,endkeys,required"`
	PreferredLanguages  map[string]*LanguagePref      `json:"preferredLanguages,omitempty" validate:"dive,keys,required,endkeys,required"`
	Calendars           map[string]*Calendar          `json:"calendars,omitempty" validate:"dive,keys,required,endkeys,required"`
	SchedulingAddresses map[string]*SchedulingAddress `json:"schedulingAddresses,omitempty" validate:"dive,keys,required,endkeys,required"`
	Addresses           map[string]*Address           `json:"addresses,omitempty" validate:"dive,keys,required,endkeys,required"`
	CryptoKeys          map[string]*CryptoKey         `json:"cryptoKeys,omitempty" validate:"dive,keys,required,endkeys,required"`
	Directories         map[string]*Directory         `json:"directories,omitempty" validate:"dive,keys,required,endkeys,required"`
	Links               map[string]*Link              `json:"links,omitempty" validate:"dive,keys,required,endkeys,required"`
	Media               map[string]*Media             `json:"media,omitempty" validate:"dive,keys,required,endkeys,required"`
	Anniversaries       map[string]*Anniversary       `json:"anniversaries,omitempty" validate:"dive,keys,required,endkeys,required"`
	Notes               map[string]*Note              `json:"notes,omitempty" validate:"dive,keys,required,endkeys,required"`
	PersonalInfo        map[string]*PersonalInfo      `json:"personalInfo,omitempty" validate:"dive,keys,required,endkeys,required"`

	Keywords  map[string]bool      `json:"keywords,omitempty"`
	RelatedTo map[string]*Relation `json:"relatedTo,omitempty" validate:"dive,keys,required,endkeys,required"`

	// VCardProps holds vCard properties without a JSContact mapping.
	VCardProps []VCardProp `json:"vCardProps,omitempty" validate:"dive"`

	// Extensions maps an escaped path (see extension.Path) to the JSON value
	// found there. It is written and read by Marshal and Unmarshal, not by
	// encoding/json.
	Extensions map[string]json.RawMessage `json:"-"`
}

// NewCard returns an empty card with its type and version set.
func NewCard(uid string) *Card {
	return &Card{Type: "Card", Version: Version, UID: uid}
}

// Meta holds the members shared by every field.
type Meta struct {
	Language string `json:"language,omitempty"`
	// Localizations maps a language tag to the full JSON of the field in
	// that language.
	Localizations map[string]json.RawMessage `json:"localizations,omitempty" validate:"dive,keys,required,endkeys"`
	Pref          int                        `json:"pref,omitempty" validate:"omitempty,min=1,max=100"`
	Contexts      map[string]bool            `json:"contexts,omitempty" validate:"dive,keys,required,endkeys"`
	// VCardParams holds vCard parameters without a JSContact mapping.
	VCardParams map[string]ParamValue `json:"vCardParams,omitempty"`
}

// FieldMeta returns m. Fields embedding Meta get it as a promoted method.
func (m *Meta) FieldMeta() *Meta {
	return m
}

// Name is the name of the entity.
type Name struct {
	Meta
	Components []Component `json:"components,omitempty"`
	Full       string      `json:"full,omitempty"`
	// SortAs maps a component kind to its sort value.
	SortAs map[string]string `json:"sortAs,omitempty"`
}

// Nickname is a nickname.
type Nickname struct {
	Meta
	Name string `json:"name" validate:"required"`
}

// OrgUnit is one organizational unit.
type OrgUnit struct {
	Name   string `json:"name"`
	SortAs string `json:"sortAs,omitempty"`
}

// Organization is a company or organization and its units.
type Organization struct {
	Meta
	Name   string    `json:"name,omitempty"`
	Units  []OrgUnit `json:"units,omitempty"`
	SortAs string    `json:"sortAs,omitempty"`
}

// Title kinds.
const (
	TitleKindTitle = "title"
	TitleKindRole  = "role"
)

// Title is a job title or role.
type Title struct {
	Meta
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind,omitempty" validate:"omitempty,oneof=title role"`
}

// EmailAddress is an email address.
type EmailAddress struct {
	Meta
	Address string `json:"address" validate:"required"`
}

// Phone is a phone number.
type Phone struct {
	Meta
	Number   string          `json:"number" validate:"required"`
	Features map[string]bool `json:"features,omitempty"`
}

// OnlineService is an instant messaging or social media account.
type OnlineService struct {
	Meta
	Service string `json:"service,omitempty"`
	URI     string `json:"uri,omitempty"`
	User    string `json:"user,omitempty"`
}

// LanguagePref is a preferred language for contacting the entity. Its own
// language member shadows Meta.Language.
type LanguagePref struct {
	Meta
	Language string `json:"language" validate:"required"`
}

// Calendar kinds.
const (
	CalendarKindCalendar = "calendar"
	CalendarKindFreeBusy = "freeBusy"
)

// Calendar is a calendar or free/busy resource.
type Calendar struct {
	Meta
	Kind      string `json:"kind" validate:"oneof=calendar freeBusy"`
	URI       string `json:"uri" validate:"required"`
	MediaType string `json:"mediaType,omitempty"`
}

// SchedulingAddress is a scheduling address.
type SchedulingAddress struct {
	Meta
	URI string `json:"uri" validate:"required"`
}

// Address is a postal address.
type Address struct {
	Meta
	Components  []Component `json:"components,omitempty"`
	CountryCode string      `json:"countryCode,omitempty"`
	Coordinates string      `json:"coordinates,omitempty"`
	TimeZone    string      `json:"timeZone,omitempty"`
	Full        string      `json:"full,omitempty"`
}

// CryptoKey is a public key or certificate.
type CryptoKey struct {
	Meta
	URI       string `json:"uri" validate:"required"`
	MediaType string `json:"mediaType,omitempty"`
}

// Directory kinds.
const (
	DirectoryKindEntry     = "entry"
	DirectoryKindDirectory = "directory"
)

// Directory is a directory service or entry.
type Directory struct {
	Meta
	Kind      string `json:"kind" validate:"oneof=entry directory"`
	URI       string `json:"uri" validate:"required"`
	MediaType string `json:"mediaType,omitempty"`
	ListAs    int    `json:"listAs,omitempty"`
}

// Link is a link to a resource.
type Link struct {
	Meta
	URI       string `json:"uri" validate:"required"`
	MediaType string `json:"mediaType,omitempty"`
}

// Media kinds.
const (
	MediaKindPhoto = "photo"
	MediaKindLogo  = "logo"
	MediaKindSound = "sound"
)

// Media is a photo, logo or sound.
type Media struct {
	Meta
	Kind      string `json:"kind" validate:"oneof=photo logo sound"`
	URI       string `json:"uri" validate:"required"`
	MediaType string `json:"mediaType,omitempty"`
}

// Anniversary kinds.
const (
	AnniversaryKindBirth   = "birth"
	AnniversaryKindDeath   = "death"
	AnniversaryKindWedding = "wedding"
)

// Anniversary is a memorable date.
type Anniversary struct {
	Meta
	Kind  string    `json:"kind" validate:"oneof=birth death wedding"`
	Date  DateValue `json:"date"`
	Place *Address  `json:"place,omitempty"`
}

// Author is the author of a note.
type Author struct {
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// Note is free-text information.
type Note struct {
	Meta
	Note    string  `json:"note" validate:"required"`
	Created string  `json:"created,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Author  *Author `json:"author,omitempty"`
}

// Personal information kinds.
const (
	PersonalInfoKindExpertise = "expertise"
	PersonalInfoKindHobby     = "hobby"
	PersonalInfoKindInterest  = "interest"
)

// PersonalInfo is an expertise, hobby or interest.
type PersonalInfo struct {
	Meta
	Kind   string `json:"kind" validate:"oneof=expertise hobby interest"`
	Value  string `json:"value" validate:"required"`
	Level  string `json:"level,omitempty" validate:"omitempty,oneof=high medium low"`
	ListAs int    `json:"listAs,omitempty"`
}

// SpeakToAs tells how to address the entity.
type SpeakToAs struct {
	Meta
	GrammaticalGender string               `json:"grammaticalGender,omitempty"`
	Pronouns          map[string]*Pronouns `json:"pronouns,omitempty" validate:"dive,keys,required,endkeys,required"`
}

// Pronouns is one set of pronouns.
type Pronouns struct {
	Meta
	Pronouns string `json:"pronouns" validate:"required"`
}

// Relation lists how the card relates to another entity.
type Relation struct {
	Meta
	Relation map[string]bool `json:"relation,omitempty"`
}
