package tuning

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/people"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TurnRateHz         float64 `yaml:"turn_rate_hz"` // 0 = turns only on RUN_TURN
	SnapshotEveryTurns int     `yaml:"snapshot_every_turns"`

	Subsistence Subsistence `yaml:"subsistence"`
	Seed        Seed        `yaml:"seed"`
}

type Subsistence struct {
	SatietyDecay    int `yaml:"satiety_decay"`
	LethalSatiety   int `yaml:"lethal_satiety"`
	HungerThreshold int `yaml:"hunger_threshold"`
	SatietyMax      int `yaml:"satiety_max"`
	RationSatiety   int `yaml:"ration_satiety"`
	RationMood      int `yaml:"ration_mood"`
	MoodMin         int `yaml:"mood_min"`
	MoodMax         int `yaml:"mood_max"`
	StartSatiety    int `yaml:"start_satiety"`
	StartMood       int `yaml:"start_mood"`
}

// Seed describes the storage a fresh colony starts with.
type Seed struct {
	Shelves int            `yaml:"shelves"`
	Barrels int            `yaml:"barrels"`
	Stock   map[string]int `yaml:"stock"`
}

func Defaults() Tuning {
	d := people.DefaultSubsistence()
	return Tuning{
		ProtocolVersion:    "1.0",
		TurnRateHz:         0,
		SnapshotEveryTurns: 10,
		Subsistence: Subsistence{
			SatietyDecay:    d.SatietyDecay,
			LethalSatiety:   d.LethalSatiety,
			HungerThreshold: d.HungerThreshold,
			SatietyMax:      d.SatietyMax,
			RationSatiety:   d.RationSatiety,
			RationMood:      d.RationMood,
			MoodMin:         d.MoodMin,
			MoodMax:         d.MoodMax,
			StartSatiety:    d.StartSatiety,
			StartMood:       d.StartMood,
		},
		Seed: Seed{
			Shelves: 64,
			Barrels: 4,
			Stock: map[string]int{
				"ConcentratT1": 1100,
				"ScrapT1":      500,
				"ScrapT2":      50,
				"PolymerT1":    100,
				"PolymerT2":    10,
			},
		},
	}
}

// Load reads a tuning file over the defaults. Seed stock entries are merged
// into the default stock.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TurnRateHz < 0 {
		return fmt.Errorf("turn_rate_hz must be >= 0")
	}
	if t.SnapshotEveryTurns < 0 {
		return fmt.Errorf("snapshot_every_turns must be >= 0")
	}
	s := t.Subsistence
	if s.SatietyDecay < 0 || s.RationSatiety < 0 {
		return fmt.Errorf("subsistence: negative rates")
	}
	if s.MoodMin > s.MoodMax {
		return fmt.Errorf("subsistence: mood_min %d > mood_max %d", s.MoodMin, s.MoodMax)
	}
	if s.StartSatiety > s.SatietyMax {
		return fmt.Errorf("subsistence: start_satiety above satiety_max")
	}
	if t.Seed.Shelves < 0 || t.Seed.Barrels < 0 {
		return fmt.Errorf("seed: negative container count")
	}
	if _, err := t.Seed.Resources(); err != nil {
		return err
	}
	return nil
}

func (s Subsistence) Config() people.SubsistenceConfig {
	return people.SubsistenceConfig{
		SatietyDecay:    s.SatietyDecay,
		LethalSatiety:   s.LethalSatiety,
		HungerThreshold: s.HungerThreshold,
		SatietyMax:      s.SatietyMax,
		RationSatiety:   s.RationSatiety,
		RationMood:      s.RationMood,
		MoodMin:         s.MoodMin,
		MoodMax:         s.MoodMax,
		StartSatiety:    s.StartSatiety,
		StartMood:       s.StartMood,
	}
}

type StockEntry struct {
	Resource catalogs.Resource
	Amount   int
}

// Resources parses the seed stock in catalog order.
func (s Seed) Resources() ([]StockEntry, error) {
	out := make([]StockEntry, 0, len(s.Stock))
	for name, n := range s.Stock {
		r, ok := catalogs.ParseResource(name)
		if !ok {
			return nil, fmt.Errorf("seed: unknown resource %q", name)
		}
		if n < 0 {
			return nil, fmt.Errorf("seed: negative amount for %s", name)
		}
		out = append(out, StockEntry{Resource: r, Amount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource.Less(out[j].Resource) })
	return out, nil
}
