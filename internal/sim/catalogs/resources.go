package catalogs

import (
	"fmt"
	"sort"
	"strings"
)

// ResourceKind is a material family; tiered kinds pair with a Tier to form a Resource.
type ResourceKind uint8

const (
	BioRaw ResourceKind = iota + 1
	Scrap
	Concrete
	IsoConcrete

	TransparentSlime
	BlackSlime
	BrownSlime
	RedSlime
	PinkSlime
	WhiteSlime

	Component
	Reagent
	Polymer
	Ethanol
	Fuel
	Concentrat
)

// StorageClass decides which containers may hold a resource.
type StorageClass uint8

const (
	Solid StorageClass = iota + 1 // shelves and floor boxes
	Fluid                         // barrels only
)

func (c StorageClass) String() string {
	switch c {
	case Solid:
		return "Solid"
	case Fluid:
		return "Fluid"
	}
	return fmt.Sprintf("StorageClass(%d)", uint8(c))
}

type resourceDef struct {
	Name       string
	Class      StorageClass
	UnitVolume int
	Tiered     bool
}

// Catalog order. Every unit volume divides ContainerVolume.
var resourceDefs = map[ResourceKind]resourceDef{
	BioRaw:           {"BioRaw", Solid, 100, true},
	Scrap:            {"Scrap", Solid, 100, true},
	Concrete:         {"Concrete", Solid, 1000, false},
	IsoConcrete:      {"IsoConcrete", Solid, 100, false},
	TransparentSlime: {"TransparentSlime", Fluid, 50, false},
	BlackSlime:       {"BlackSlime", Fluid, 50, false},
	BrownSlime:       {"BrownSlime", Fluid, 50, false},
	RedSlime:         {"RedSlime", Fluid, 50, false},
	PinkSlime:        {"PinkSlime", Fluid, 50, false},
	WhiteSlime:       {"WhiteSlime", Fluid, 50, false},
	Component:        {"Component", Solid, 100, true},
	Reagent:          {"Reagent", Solid, 100, true},
	Polymer:          {"Polymer", Solid, 10, true},
	Ethanol:          {"Ethanol", Fluid, 1, false},
	Fuel:             {"Fuel", Fluid, 1, false},
	Concentrat:       {"Concentrat", Solid, 1, true},
}

var resourceKinds = []ResourceKind{
	BioRaw, Scrap, Concrete, IsoConcrete,
	TransparentSlime, BlackSlime, BrownSlime, RedSlime, PinkSlime, WhiteSlime,
	Component, Reagent, Polymer, Ethanol, Fuel, Concentrat,
}

func (k ResourceKind) String() string {
	if d, ok := resourceDefs[k]; ok {
		return d.Name
	}
	return fmt.Sprintf("ResourceKind(%d)", uint8(k))
}

// Resource is a catalog entry: a kind plus its tier (NoTier for untiered kinds).
type Resource struct {
	Kind ResourceKind
	Tier Tier
}

func R(kind ResourceKind, tier Tier) Resource { return Resource{Kind: kind, Tier: tier} }

// Frequently referenced entries.
var (
	ConcentratT1 = Resource{Concentrat, T1}
	ScrapT1      = Resource{Scrap, T1}
	ScrapT2      = Resource{Scrap, T2}
	ScrapT3      = Resource{Scrap, T3}
	PolymerT1    = Resource{Polymer, T1}
	PolymerT2    = Resource{Polymer, T2}
	ComponentT1  = Resource{Component, T1}
	ComponentT2  = Resource{Component, T2}
	ReagentT1    = Resource{Reagent, T1}
	BioRawT1     = Resource{BioRaw, T1}
	BioRawT2     = Resource{BioRaw, T2}
	EthanolRes   = Resource{Ethanol, NoTier}
	FuelRes      = Resource{Fuel, NoTier}
	ConcreteRes  = Resource{Concrete, NoTier}
)

func (r Resource) Valid() bool {
	d, ok := resourceDefs[r.Kind]
	if !ok {
		return false
	}
	if d.Tiered {
		return r.Tier.Valid()
	}
	return r.Tier == NoTier
}

func (r Resource) String() string {
	return r.Kind.String() + r.Tier.String()
}

// Less orders resources by catalog order, then tier.
func (r Resource) Less(o Resource) bool {
	if r.Kind != o.Kind {
		return r.Kind < o.Kind
	}
	return r.Tier < o.Tier
}

func ParseResource(s string) (Resource, bool) {
	for _, k := range resourceKinds {
		d := resourceDefs[k]
		if !strings.HasPrefix(s, d.Name) {
			continue
		}
		tier, ok := ParseTier(strings.TrimPrefix(s, d.Name))
		if !ok {
			continue
		}
		r := Resource{Kind: k, Tier: tier}
		if r.Valid() {
			return r, true
		}
	}
	return Resource{}, false
}

// IsZero reports whether no resource is set.
func (r Resource) IsZero() bool { return r == Resource{} }

// MarshalText encodes the zero value as an empty string.
func (r Resource) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return []byte{}, nil
	}
	if !r.Valid() {
		return nil, fmt.Errorf("invalid resource %v/%v", r.Kind, r.Tier)
	}
	return []byte(r.String()), nil
}

func (r *Resource) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = Resource{}
		return nil
	}
	v, ok := ParseResource(string(b))
	if !ok {
		return fmt.Errorf("unknown resource %q", string(b))
	}
	*r = v
	return nil
}

// Classify returns the storage class of a resource.
func Classify(r Resource) StorageClass {
	return resourceDefs[r.Kind].Class
}

// UnitVolume is how many volume units one unit of the resource takes.
func UnitVolume(r Resource) int {
	return resourceDefs[r.Kind].UnitVolume
}

// AllResources lists every valid resource in catalog order.
func AllResources() []Resource {
	out := make([]Resource, 0, len(resourceKinds)*3)
	for _, k := range resourceKinds {
		if !resourceDefs[k].Tiered {
			out = append(out, Resource{Kind: k})
			continue
		}
		for _, t := range Tiers {
			out = append(out, Resource{Kind: k, Tier: t})
		}
	}
	return out
}

// SortedResources returns the keys of m in catalog order.
func SortedResources(m map[Resource]int) []Resource {
	out := make([]Resource, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
