package catalogs

import "sort"

// RecipeDef turns inputs into outputs through one production task.
type RecipeDef struct {
	ID     string           `json:"id"`
	Inputs map[Resource]int `json:"inputs"`
	Output Resource         `json:"output"`
	Amount int              `json:"amount"`
	Task   TaskSpec         `json:"task"`
}

var recipeDefs = map[string]RecipeDef{
	"CONCENTRAT_T1": {
		Inputs: map[Resource]int{BioRawT1: 2},
		Output: ConcentratT1, Amount: 20,
		Task: worker(T1, 20, StationaryID{FormatFurnace, T1}),
	},
	"COMPONENT_T1": {
		Inputs: map[Resource]int{ScrapT1: 2},
		Output: ComponentT1, Amount: 1,
		Task: worker(T1, 20, StationaryID{BenchTool, T1}),
	},
	"POLYMER_T1": {
		Inputs: map[Resource]int{BioRawT1: 1, ReagentT1: 1},
		Output: PolymerT1, Amount: 10,
		Task: worker(T1, 30, StationaryID{Vat, T1}),
	},
	"ETHANOL": {
		Inputs: map[Resource]int{BioRawT1: 1},
		Output: EthanolRes, Amount: 50,
		Task: worker(T1, 20, StationaryID{Vat, T1}),
	},
	"REAGENT_T1": {
		Inputs: map[Resource]int{{TransparentSlime, NoTier}: 10},
		Output: ReagentT1, Amount: 2,
		Task: TaskSpec{Profession: Scientist, Tier: T1, BuildPower: 30, Stationary: StationaryID{Lab, T1}},
	},
	"BIORAW_T2": {
		Inputs: map[Resource]int{BioRawT1: 2},
		Output: BioRawT2, Amount: 1,
		Task: TaskSpec{Profession: Scientist, Tier: T1, BuildPower: 20, Stationary: StationaryID{Lab, T1}, Specialization: SpecBio},
	},
}

func init() {
	for id, d := range recipeDefs {
		d.ID = id
		recipeDefs[id] = d
	}
}

func Recipe(id string) (RecipeDef, bool) {
	d, ok := recipeDefs[id]
	if !ok {
		return RecipeDef{}, false
	}
	in := make(map[Resource]int, len(d.Inputs))
	for r, n := range d.Inputs {
		in[r] = n
	}
	d.Inputs = in
	return d, true
}

func RecipeIDs() []string {
	out := make([]string, 0, len(recipeDefs))
	for id := range recipeDefs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
