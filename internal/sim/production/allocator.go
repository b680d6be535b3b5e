package production

import (
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/people"
)

// DowngradeCoefficient is how much task build power one point of worker
// labor yields when a worker of one tier takes a lower-tier task. Zero means
// the worker cannot take the task.
func DowngradeCoefficient(worker, task catalogs.Tier) int {
	switch {
	case !worker.Valid() || !task.Valid():
		return 0
	case worker == task:
		return 1
	case worker == catalogs.T2 && task == catalogs.T1,
		worker == catalogs.T3 && task == catalogs.T2:
		return 2
	case worker == catalogs.T3 && task == catalogs.T1:
		return 4
	}
	return 0
}

// Labor is the turn's labor ledger as seen by the allocator.
type Labor interface {
	At(k people.LaborKey) catalogs.BuildPower
	Take(k people.LaborKey, bp catalogs.BuildPower) catalogs.BuildPower
}

// Allocate spends labor and equipment on tasks in priority order. Tasks are
// only debited; removal is left to Sweep.
func Allocate(q *Queue, labor Labor, equipment EquipmentPool) {
	for _, id := range q.Ordered() {
		t, _ := q.Get(id)
		allocateTask(&t.Meta, labor, equipment)
	}
}

func allocateTask(m *TaskMeta, labor Labor, equipment EquipmentPool) {
	for _, wt := range catalogs.Tiers {
		coef := catalogs.BuildPower(DowngradeCoefficient(wt, m.Tier))
		if coef == 0 {
			continue
		}
		for _, spec := range specOrder(m.Specialization) {
			if m.Remaining <= 0 {
				return
			}
			if m.NeedsEquipment() && equipment[m.Stationary] <= 0 {
				return
			}
			key := people.LaborKey{Profession: m.Profession, Tier: wt, Specialization: spec}
			have := labor.At(key)
			if have <= 0 {
				continue
			}
			take := min(have*coef, m.Remaining)
			if m.NeedsEquipment() {
				take = min(take, equipment[m.Stationary])
			}
			// Labor is whole BP: a partial slice still costs one point.
			labor.Take(key, (take+coef-1)/coef)
			if m.NeedsEquipment() {
				equipment[m.Stationary] -= take
			}
			m.Remaining -= take
		}
	}
}

// specOrder lists the labor specializations a task accepts. Unspecialized
// tasks take anyone, SpecNone first.
func specOrder(s catalogs.Specialization) []catalogs.Specialization {
	if s != catalogs.SpecNone {
		return []catalogs.Specialization{s}
	}
	return catalogs.Specializations
}
