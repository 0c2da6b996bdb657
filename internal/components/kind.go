// Package components maps the positional slots of structured vCard values
// (ADR, N) to tagged component lists and back.
package components

// Kind is a component kind as written in JSON.
type Kind string

// Address component kinds in vCard slot order.
const (
	PostOfficeBox Kind = "postOfficeBox"
	Extension     Kind = "extension"
	Street        Kind = "street"
	Locality      Kind = "locality"
	Region        Kind = "region"
	Postcode      Kind = "postcode"
	Country       Kind = "country"
	Room          Kind = "room"
	Apartment     Kind = "apartment"
	Floor         Kind = "floor"
	Number        Kind = "number"
	StreetName    Kind = "name"
	Building      Kind = "building"
	Block         Kind = "block"
	Subdistrict   Kind = "subdistrict"
	District      Kind = "district"
	Landmark      Kind = "landmark"
	Direction     Kind = "direction"
)

// Name component kinds in vCard slot order.
const (
	Surname    Kind = "surname"
	Given      Kind = "given"
	Given2     Kind = "given2"
	Title      Kind = "title"
	Credential Kind = "credential"
	Surname2   Kind = "surname2"
	Generation Kind = "generation"
)

// Separator is the pseudo kind that carries a separator between components.
const Separator Kind = "separator"

// Component is one tagged value.
type Component struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Layout is the slot table of one structured property.
type Layout struct {
	// Name is the property name, used in error messages.
	Name string
	// Slots lists the kind stored in each slot.
	Slots []Kind
	// Base is the number of slots defined before RFC 9554.
	Base int
}

var (
	// AddressLayout is the ADR value layout.
	AddressLayout = Layout{
		Name: "ADR",
		Slots: []Kind{
			PostOfficeBox, Extension, Street, Locality, Region, Postcode, Country,
			Room, Apartment, Floor, Number, StreetName, Building, Block,
			Subdistrict, District, Landmark, Direction,
		},
		Base: 7,
	}

	// NameLayout is the N value layout.
	NameLayout = Layout{
		Name:  "N",
		Slots: []Kind{Surname, Given, Given2, Title, Credential, Surname2, Generation},
		Base:  5,
	}
)

// slot returns the slot index of k, or -1.
func (l Layout) slot(k Kind) int {
	for i, s := range l.Slots {
		if s == k {
			return i
		}
	}

	return -1
}

// Has reports whether k is one of the layout's kinds.
func (l Layout) Has(k Kind) bool {
	return l.slot(k) >= 0
}
