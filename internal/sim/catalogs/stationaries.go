package catalogs

import (
	"fmt"
	"sort"
	"strings"
)

// StationaryKind is a family of installed equipment or buildings.
type StationaryKind uint8

const (
	BenchTool     StationaryKind = iota + 1 // T1 workbench, T2 machining, T3 electronics
	FormatFurnace                           // smelting, forming, concentrate
	Lab
	Vat // chemical vats; a ready vat also serves as a storage barrel
	Rack
	Germ // hermetic door kit of a room; installed, never built through tasks
	NeuroTerminal
	OperatingRoom
)

var stationaryNames = map[StationaryKind]string{
	BenchTool:     "BenchTool",
	FormatFurnace: "FormatFurnace",
	Lab:           "Lab",
	Vat:           "Vat",
	Rack:          "Rack",
	Germ:          "Germ",
	NeuroTerminal: "NeuroTerminal",
	OperatingRoom: "OperatingRoom",
}

func (k StationaryKind) String() string {
	if n, ok := stationaryNames[k]; ok {
		return n
	}
	return fmt.Sprintf("StationaryKind(%d)", uint8(k))
}

// StationaryID names one catalog row: a kind at a tier. The zero value means
// "no equipment required".
type StationaryID struct {
	Kind StationaryKind
	Tier Tier
}

func S(kind StationaryKind, tier Tier) StationaryID { return StationaryID{Kind: kind, Tier: tier} }

var BenchToolT1 = StationaryID{BenchTool, T1}

func (s StationaryID) IsZero() bool { return s.Kind == 0 }

func (s StationaryID) String() string {
	if s.IsZero() {
		return ""
	}
	return s.Kind.String() + s.Tier.String()
}

func (s StationaryID) Less(o StationaryID) bool {
	if s.Kind != o.Kind {
		return s.Kind < o.Kind
	}
	return s.Tier < o.Tier
}

func ParseStationary(str string) (StationaryID, bool) {
	if str == "" {
		return StationaryID{}, true
	}
	for k, n := range stationaryNames {
		if !strings.HasPrefix(str, n) {
			continue
		}
		t, ok := ParseTier(strings.TrimPrefix(str, n))
		if !ok || !t.Valid() {
			continue
		}
		return StationaryID{Kind: k, Tier: t}, true
	}
	return StationaryID{}, false
}

func (s StationaryID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *StationaryID) UnmarshalText(b []byte) error {
	v, ok := ParseStationary(string(b))
	if !ok {
		return fmt.Errorf("unknown stationary %q", string(b))
	}
	*s = v
	return nil
}

// TaskSpec is a unit of construction or production work as listed in a catalog.
type TaskSpec struct {
	Profession     Profession     `json:"profession"`
	Tier           Tier           `json:"tier"`
	BuildPower     BuildPower     `json:"build_power"`
	Stationary     StationaryID   `json:"stationary,omitempty"`
	Specialization Specialization `json:"specialization,omitempty"`
}

// StationaryDef is the static description of one catalog row.
type StationaryDef struct {
	ID        StationaryID     `json:"id"`
	Footprint int              `json:"footprint"`
	Output    BuildPower       `json:"output"`
	Cost      map[Resource]int `json:"cost"`
	Build     []TaskSpec       `json:"build"`
	Shelves   int              `json:"shelves,omitempty"`
	Barrels   int              `json:"barrels,omitempty"`
}

func worker(t Tier, bp BuildPower, on StationaryID) TaskSpec {
	return TaskSpec{Profession: Worker, Tier: t, BuildPower: bp, Stationary: on}
}

var stationaryDefs = map[StationaryID]StationaryDef{
	{BenchTool, T1}: {Footprint: 5, Output: 10,
		Cost:  map[Resource]int{ScrapT1: 10},
		Build: []TaskSpec{worker(T1, 30, StationaryID{})}},
	{BenchTool, T2}: {Footprint: 5, Output: 20,
		Cost:  map[Resource]int{ScrapT1: 10, ScrapT2: 5, ComponentT1: 2},
		Build: []TaskSpec{worker(T2, 60, StationaryID{BenchTool, T1})}},
	{BenchTool, T3}: {Footprint: 5, Output: 40,
		Cost:  map[Resource]int{ScrapT2: 10, ScrapT3: 5, ComponentT2: 2},
		Build: []TaskSpec{worker(T3, 120, StationaryID{BenchTool, T2})}},

	{FormatFurnace, T1}: {Footprint: 10, Output: 20,
		Cost:  map[Resource]int{ScrapT1: 30, ConcreteRes: 2},
		Build: []TaskSpec{worker(T1, 80, StationaryID{BenchTool, T1})}},
	{FormatFurnace, T2}: {Footprint: 10, Output: 40,
		Cost:  map[Resource]int{ScrapT1: 30, ScrapT2: 10},
		Build: []TaskSpec{worker(T2, 160, StationaryID{BenchTool, T2})}},
	{FormatFurnace, T3}: {Footprint: 10, Output: 80,
		Cost:  map[Resource]int{ScrapT2: 30, ScrapT3: 10},
		Build: []TaskSpec{worker(T3, 320, StationaryID{BenchTool, T3})}},

	{Lab, T1}: {Footprint: 10, Output: 10,
		Cost:  map[Resource]int{ScrapT1: 10, ComponentT1: 5, PolymerT1: 5},
		Build: []TaskSpec{worker(T1, 60, StationaryID{BenchTool, T1})}},
	{Lab, T2}: {Footprint: 10, Output: 20,
		Cost:  map[Resource]int{ScrapT2: 10, ComponentT2: 5, PolymerT2: 5},
		Build: []TaskSpec{worker(T2, 120, StationaryID{BenchTool, T2})}},
	{Lab, T3}: {Footprint: 10, Output: 40,
		Cost:  map[Resource]int{ScrapT3: 10, ComponentT2: 10, PolymerT2: 10},
		Build: []TaskSpec{worker(T3, 240, StationaryID{BenchTool, T3})}},

	{Vat, T1}: {Footprint: 5, Output: 10, Barrels: 1,
		Cost:  map[Resource]int{ScrapT1: 20, PolymerT1: 5},
		Build: []TaskSpec{worker(T1, 40, StationaryID{BenchTool, T1})}},
	{Vat, T2}: {Footprint: 5, Output: 20, Barrels: 2,
		Cost:  map[Resource]int{ScrapT2: 20, PolymerT1: 10},
		Build: []TaskSpec{worker(T2, 80, StationaryID{BenchTool, T2})}},

	{Rack, T1}: {Footprint: 5, Shelves: 4,
		Cost:  map[Resource]int{ScrapT1: 15},
		Build: []TaskSpec{worker(T1, 20, StationaryID{})}},
	{Rack, T2}: {Footprint: 5, Shelves: 8,
		Cost:  map[Resource]int{ScrapT2: 15},
		Build: []TaskSpec{worker(T2, 40, StationaryID{BenchTool, T1})}},

	{NeuroTerminal, T2}: {Footprint: 5, Output: 20,
		Cost:  map[Resource]int{ComponentT2: 5, ScrapT2: 5},
		Build: []TaskSpec{worker(T2, 100, StationaryID{BenchTool, T2})}},

	{OperatingRoom, T1}: {Footprint: 20, Output: 10,
		Cost: map[Resource]int{ScrapT1: 20, PolymerT1: 10, ReagentT1: 5},
		Build: []TaskSpec{
			worker(T1, 80, StationaryID{BenchTool, T1}),
			{Profession: Doctor, Tier: T1, BuildPower: 40},
		}},
}

func init() {
	for id, d := range stationaryDefs {
		d.ID = id
		stationaryDefs[id] = d
	}
}

// Lookup returns the catalog row for a stationary.
func Lookup(id StationaryID) (StationaryDef, bool) {
	d, ok := stationaryDefs[id]
	return d, ok
}

// Buildable reports whether the stationary can be ordered through StartBuild.
func Buildable(id StationaryID) bool {
	d, ok := stationaryDefs[id]
	return ok && len(d.Build) > 0
}

func Footprint(id StationaryID) int { return stationaryDefs[id].Footprint }

func BuildPowerOutput(id StationaryID) BuildPower { return stationaryDefs[id].Output }

// MaterialCost returns a copy of the resources written off when a build starts.
func MaterialCost(id StationaryID) map[Resource]int {
	src := stationaryDefs[id].Cost
	out := make(map[Resource]int, len(src))
	for r, n := range src {
		out[r] = n
	}
	return out
}

// ConstructionRequirements lists the tasks that must finish before the
// stationary becomes ready.
func ConstructionRequirements(id StationaryID) []TaskSpec {
	return append([]TaskSpec(nil), stationaryDefs[id].Build...)
}

func ShelvesProvided(id StationaryID) int { return stationaryDefs[id].Shelves }

func BarrelsProvided(id StationaryID) int { return stationaryDefs[id].Barrels }

// AllStationaries lists catalog rows in kind/tier order.
func AllStationaries() []StationaryID {
	out := make([]StationaryID, 0, len(stationaryDefs))
	for id := range stationaryDefs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
