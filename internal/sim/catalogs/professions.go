package catalogs

import "fmt"

// Profession is the fixed role of a colonist.
type Profession uint8

const (
	Child Profession = iota
	Worker
	Scientist
	Likvidator
	Party
	Doctor
	Stalker
)

var professionNames = [...]string{
	Child:      "Child",
	Worker:     "Worker",
	Scientist:  "Scientist",
	Likvidator: "Likvidator",
	Party:      "Party",
	Doctor:     "Doctor",
	Stalker:    "Stalker",
}

// Professions lists every profession in declaration order.
var Professions = []Profession{Child, Worker, Scientist, Likvidator, Party, Doctor, Stalker}

func (p Profession) String() string {
	if int(p) < len(professionNames) {
		return professionNames[p]
	}
	return fmt.Sprintf("Profession(%d)", uint8(p))
}

func ParseProfession(s string) (Profession, bool) {
	for i, n := range professionNames {
		if n == s {
			return Profession(i), true
		}
	}
	return Child, false
}

func (p Profession) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Profession) UnmarshalText(b []byte) error {
	v, ok := ParseProfession(string(b))
	if !ok {
		return fmt.Errorf("unknown profession %q", string(b))
	}
	*p = v
	return nil
}

// Specialization narrows a profession: research institutes for scientists,
// departments for likvidators.
type Specialization uint8

const (
	SpecNone Specialization = iota

	SpecSamosbor
	SpecNervonet
	SpecCulture
	SpecSpace
	SpecIndustry
	SpecWeapon
	SpecBio

	SpecOLPS
	SpecOBCU
	SpecOGB
)

var specNames = [...]string{
	SpecNone:     "None",
	SpecSamosbor: "Samosbor",
	SpecNervonet: "Nervonet",
	SpecCulture:  "Culture",
	SpecSpace:    "Space",
	SpecIndustry: "Industry",
	SpecWeapon:   "Weapon",
	SpecBio:      "Bio",
	SpecOLPS:     "OLPS",
	SpecOBCU:     "OBCU",
	SpecOGB:      "OGB",
}

// Specializations lists every specialization, SpecNone first.
var Specializations = []Specialization{
	SpecNone,
	SpecSamosbor, SpecNervonet, SpecCulture, SpecSpace, SpecIndustry, SpecWeapon, SpecBio,
	SpecOLPS, SpecOBCU, SpecOGB,
}

// ResearchInstitutes are the specializations a scientist can hold.
var ResearchInstitutes = []Specialization{
	SpecSamosbor, SpecNervonet, SpecCulture, SpecSpace, SpecIndustry, SpecWeapon, SpecBio,
}

func (s Specialization) String() string {
	if int(s) < len(specNames) {
		return specNames[s]
	}
	return fmt.Sprintf("Specialization(%d)", uint8(s))
}

func ParseSpecialization(s string) (Specialization, bool) {
	if s == "" {
		return SpecNone, true
	}
	for i, n := range specNames {
		if n == s {
			return Specialization(i), true
		}
	}
	return SpecNone, false
}

func (s Specialization) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Specialization) UnmarshalText(b []byte) error {
	v, ok := ParseSpecialization(string(b))
	if !ok {
		return fmt.Errorf("unknown specialization %q", string(b))
	}
	*s = v
	return nil
}

// AreaType is the purpose of a room.
type AreaType uint8

const (
	Living AreaType = iota + 1
	Science
	Military
	Industrial
	PartyArea // stores, schools, party halls
	Medical
)

var areaNames = map[AreaType]string{
	Living:     "Living",
	Science:    "Science",
	Military:   "Military",
	Industrial: "Industrial",
	PartyArea:  "Party",
	Medical:    "Medical",
}

func (a AreaType) String() string {
	if n, ok := areaNames[a]; ok {
		return n
	}
	return fmt.Sprintf("AreaType(%d)", uint8(a))
}

func ParseAreaType(s string) (AreaType, bool) {
	for a, n := range areaNames {
		if n == s {
			return a, true
		}
	}
	return 0, false
}

func (a AreaType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AreaType) UnmarshalText(b []byte) error {
	v, ok := ParseAreaType(string(b))
	if !ok {
		return fmt.Errorf("unknown area type %q", string(b))
	}
	*a = v
	return nil
}

// ColonistFootprint is the area a colonist rents in the room it lives in.
const ColonistFootprint = 10

// GermCapacity is the area a room gets from its hermetic door kit.
func GermCapacity(t Tier) int {
	switch t {
	case T1:
		return 30
	case T2:
		return 150
	case T3:
		return 500
	}
	return 0
}
