package world

import (
	"glavblock.dev/internal/persistence/snapshot"
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/people"
	"glavblock.dev/internal/sim/production"
	"glavblock.dev/internal/sim/rooms"
	"glavblock.dev/internal/sim/storage"
)

// ExportSnapshot must be called from the world loop goroutine. Every list is
// in id order.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	s := w.cfg.Subsistence
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:  snapshot.Version,
			ColonyID: w.cfg.ID,
			Turn:     w.turn.Load(),
		},
		CatalogsDigest:     catalogs.Digest(),
		TurnRateHz:         w.cfg.TurnRateHz,
		SnapshotEveryTurns: w.cfg.SnapshotEveryTurns,
		Subsistence: snapshot.SubsistenceV1{
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
		},
		Counters: snapshot.CountersV1{
			Rooms:        uint64(w.rooms.LastID()),
			Containers:   uint64(w.storage.LastID()),
			Stationaries: uint64(w.works.LastID()),
			Tasks:        uint64(w.queue.LastID()),
			Colonists:    uint64(w.roster.LastID()),
		},
		Rooms:        []snapshot.RoomV1{},
		Containers:   []snapshot.ContainerV1{},
		Stationaries: []snapshot.StationaryV1{},
		Tasks:        []snapshot.TaskV1{},
		Colonists:    []snapshot.ColonistV1{},
	}

	w.rooms.Each(func(id entity.ID, r *rooms.Room) bool {
		snap.Rooms = append(snap.Rooms, snapshot.RoomV1{
			ID:       uint64(id),
			Type:     uint8(r.Type),
			Tier:     uint8(r.Tier),
			Capacity: r.Capacity,
			Occupied: r.Occupied,
		})
		return true
	})
	w.storage.Each(func(id entity.ID, c *storage.Container) bool {
		snap.Containers = append(snap.Containers, snapshot.ContainerV1{
			ID:           uint64(id),
			Kind:         uint8(c.Kind),
			ResourceKind: uint8(c.Resource.Kind),
			ResourceTier: uint8(c.Resource.Tier),
			Tagged:       c.Tagged,
			Occupied:     c.Occupied,
			Room:         uint64(c.Room),
		})
		return true
	})
	w.works.Each(func(id entity.ID, st *production.Stationary) bool {
		snap.Stationaries = append(snap.Stationaries, snapshot.StationaryV1{
			ID:     uint64(id),
			Kind:   uint8(st.Kind.Kind),
			Tier:   uint8(st.Kind.Tier),
			Room:   uint64(st.Room),
			Status: uint8(st.Status),
		})
		return true
	})
	w.queue.Each(func(id entity.ID, t *production.Task) bool {
		tv := snapshot.TaskV1{
			ID:             uint64(id),
			Priority:       t.Priority,
			Profession:     uint8(t.Meta.Profession),
			Tier:           uint8(t.Meta.Tier),
			Remaining:      int(t.Meta.Remaining),
			StationaryKind: uint8(t.Meta.Stationary.Kind),
			StationaryTier: uint8(t.Meta.Stationary.Tier),
			Specialization: uint8(t.Meta.Specialization),
			BelongsTo:      uint64(t.BelongsTo),
		}
		if o := t.Output; o != nil {
			tv.Output = &snapshot.OutputV1{
				Recipe:       o.Recipe,
				ResourceKind: uint8(o.Resource.Kind),
				ResourceTier: uint8(o.Resource.Tier),
				Amount:       o.Amount,
			}
		}
		snap.Tasks = append(snap.Tasks, tv)
		return true
	})
	w.roster.Each(func(id entity.ID, c *people.Colonist) bool {
		snap.Colonists = append(snap.Colonists, snapshot.ColonistV1{
			ID:             uint64(id),
			Profession:     uint8(c.Profession),
			Tier:           uint8(c.Tier),
			Specialization: uint8(c.Specialization),
			Room:           uint64(c.Room),
			Satiety:        c.Satiety,
			Mood:           c.Mood,
		})
		return true
	})
	return snap
}
