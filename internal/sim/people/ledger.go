package people

import (
	"sort"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
)

// LaborOutput is the build power one colonist of a tier contributes per turn.
func LaborOutput(t catalogs.Tier) catalogs.BuildPower {
	switch t {
	case catalogs.T1:
		return 10
	case catalogs.T2:
		return 20
	case catalogs.T3:
		return 40
	}
	return 0
}

type LaborKey struct {
	Profession     catalogs.Profession
	Tier           catalogs.Tier
	Specialization catalogs.Specialization
}

func (k LaborKey) less(o LaborKey) bool {
	if k.Profession != o.Profession {
		return k.Profession < o.Profession
	}
	if k.Tier != o.Tier {
		return k.Tier < o.Tier
	}
	return k.Specialization < o.Specialization
}

// Ledger is the labor pool of the current turn. Nothing carries over: every
// Recompute starts from zero.
type Ledger struct {
	pool map[LaborKey]catalogs.BuildPower
}

func NewLedger() *Ledger {
	return &Ledger{pool: map[LaborKey]catalogs.BuildPower{}}
}

func (l *Ledger) Recompute(r *Roster) {
	l.pool = map[LaborKey]catalogs.BuildPower{}
	r.Each(func(_ entity.ID, c *Colonist) bool {
		bp := LaborOutput(c.Tier)
		if bp == 0 || c.Profession == catalogs.Child {
			return true
		}
		l.pool[LaborKey{c.Profession, c.Tier, c.Specialization}] += bp
		return true
	})
}

// Add credits labor directly; used by tests and tools that bypass the roster.
func (l *Ledger) Add(k LaborKey, bp catalogs.BuildPower) {
	if bp <= 0 {
		return
	}
	if l.pool == nil {
		l.pool = map[LaborKey]catalogs.BuildPower{}
	}
	l.pool[k] += bp
}

func (l *Ledger) At(k LaborKey) catalogs.BuildPower { return l.pool[k] }

// Take removes up to bp from k and returns how much was taken.
func (l *Ledger) Take(k LaborKey, bp catalogs.BuildPower) catalogs.BuildPower {
	have := l.pool[k]
	take := min(have, bp)
	if take <= 0 {
		return 0
	}
	l.pool[k] = have - take
	return take
}

// Get sums a profession/tier over all specializations.
func (l *Ledger) Get(p catalogs.Profession, t catalogs.Tier) catalogs.BuildPower {
	var sum catalogs.BuildPower
	for k, bp := range l.pool {
		if k.Profession == p && k.Tier == t {
			sum += bp
		}
	}
	return sum
}

func (l *Ledger) Total() catalogs.BuildPower {
	var sum catalogs.BuildPower
	for _, bp := range l.pool {
		sum += bp
	}
	return sum
}

// Keys lists non-empty accounts in profession/tier/specialization order.
func (l *Ledger) Keys() []LaborKey {
	out := make([]LaborKey, 0, len(l.pool))
	for k, bp := range l.pool {
		if bp > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}
