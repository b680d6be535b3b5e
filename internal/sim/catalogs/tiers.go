package catalogs

import "fmt"

// Tier is the skill/quality level of workers, equipment and resources.
// NoTier marks unique entities and is never a valid labor or equipment tier.
type Tier uint8

const (
	NoTier Tier = iota
	T1
	T2
	T3
)

// Tiers lists the valid tiers in ascending order.
var Tiers = []Tier{T1, T2, T3}

func (t Tier) Valid() bool { return t >= T1 && t <= T3 }

func (t Tier) String() string {
	switch t {
	case NoTier:
		return ""
	case T1:
		return "T1"
	case T2:
		return "T2"
	case T3:
		return "T3"
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

func ParseTier(s string) (Tier, bool) {
	switch s {
	case "", "NONE":
		return NoTier, true
	case "T1", "1":
		return T1, true
	case "T2", "2":
		return T2, true
	case "T3", "3":
		return T3, true
	}
	return NoTier, false
}

func (t Tier) MarshalText() ([]byte, error) {
	if t == NoTier {
		return []byte("NONE"), nil
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	v, ok := ParseTier(string(b))
	if !ok {
		return fmt.Errorf("unknown tier %q", string(b))
	}
	*t = v
	return nil
}

// BuildPower is a non-negative quantity of labor.
type BuildPower int
