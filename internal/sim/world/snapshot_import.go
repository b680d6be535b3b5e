package world

import (
	"fmt"

	"glavblock.dev/internal/persistence/snapshot"
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/people"
	"glavblock.dev/internal/sim/production"
	"glavblock.dev/internal/sim/rooms"
	"glavblock.dev/internal/sim/storage"
)

// ImportSnapshot loads a snapshot into a freshly constructed world. The
// snapshot's subsistence parameters replace the configured ones so replays
// run under the rules the colony was recorded with.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	if snap.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", snap.Header.Version)
	}
	if w.turn.Load() != 0 || w.rooms.Len() != 0 || w.roster.Len() != 0 {
		return fmt.Errorf("import into a non-empty world")
	}
	if d := catalogs.Digest(); snap.CatalogsDigest != "" && snap.CatalogsDigest != d {
		return fmt.Errorf("catalogs digest mismatch: snapshot %s, build %s", snap.CatalogsDigest, d)
	}

	s := snap.Subsistence
	w.cfg.Subsistence = people.SubsistenceConfig{
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
	if snap.Header.ColonyID != "" {
		w.cfg.ID = snap.Header.ColonyID
	}

	for _, r := range snap.Rooms {
		w.rooms.Restore(entity.ID(r.ID), rooms.Room{
			Type:     catalogs.AreaType(r.Type),
			Tier:     catalogs.Tier(r.Tier),
			Capacity: r.Capacity,
			Occupied: r.Occupied,
		})
	}
	for _, c := range snap.Containers {
		res := catalogs.R(catalogs.ResourceKind(c.ResourceKind), catalogs.Tier(c.ResourceTier))
		if c.Tagged && !res.Valid() {
			return fmt.Errorf("container %d: bad resource %d/%d", c.ID, c.ResourceKind, c.ResourceTier)
		}
		w.storage.Restore(entity.ID(c.ID), storage.Container{
			Kind:     storage.ContainerKind(c.Kind),
			Resource: res,
			Tagged:   c.Tagged,
			Occupied: c.Occupied,
			Room:     entity.ID(c.Room),
		})
	}
	for _, st := range snap.Stationaries {
		kind := catalogs.S(catalogs.StationaryKind(st.Kind), catalogs.Tier(st.Tier))
		if _, ok := catalogs.Lookup(kind); !ok {
			return fmt.Errorf("stationary %d: unknown kind %v", st.ID, kind)
		}
		w.works.Restore(entity.ID(st.ID), production.Stationary{
			Kind:   kind,
			Room:   entity.ID(st.Room),
			Status: production.Status(st.Status),
		})
	}
	for _, t := range snap.Tasks {
		task := production.Task{
			Priority: t.Priority,
			Meta: production.TaskMeta{
				Profession:     catalogs.Profession(t.Profession),
				Tier:           catalogs.Tier(t.Tier),
				Remaining:      catalogs.BuildPower(t.Remaining),
				Stationary:     catalogs.S(catalogs.StationaryKind(t.StationaryKind), catalogs.Tier(t.StationaryTier)),
				Specialization: catalogs.Specialization(t.Specialization),
			},
			BelongsTo: entity.ID(t.BelongsTo),
		}
		if o := t.Output; o != nil {
			task.Output = &production.Output{
				Recipe:   o.Recipe,
				Resource: catalogs.R(catalogs.ResourceKind(o.ResourceKind), catalogs.Tier(o.ResourceTier)),
				Amount:   o.Amount,
			}
		}
		w.queue.Restore(entity.ID(t.ID), task)
	}
	for _, c := range snap.Colonists {
		w.roster.Restore(entity.ID(c.ID), people.Colonist{
			Profession:     catalogs.Profession(c.Profession),
			Tier:           catalogs.Tier(c.Tier),
			Specialization: catalogs.Specialization(c.Specialization),
			Room:           entity.ID(c.Room),
			Satiety:        c.Satiety,
			Mood:           c.Mood,
		})
	}

	w.rooms.SetLastID(entity.ID(snap.Counters.Rooms))
	w.storage.SetLastID(entity.ID(snap.Counters.Containers))
	w.works.SetLastID(entity.ID(snap.Counters.Stationaries))
	w.queue.SetLastID(entity.ID(snap.Counters.Tasks))
	w.roster.SetLastID(entity.ID(snap.Counters.Colonists))

	w.turn.Store(snap.Header.Turn)
	w.pending = nil
	w.updateMetrics(0)
	return nil
}
