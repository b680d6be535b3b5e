package world

import (
	"context"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/production"
	"glavblock.dev/internal/sim/rooms"
)

type RoomView struct {
	ID       entity.ID         `json:"id"`
	Type     catalogs.AreaType `json:"type"`
	Tier     catalogs.Tier     `json:"tier"`
	Capacity int               `json:"capacity"`
	Occupied int               `json:"occupied"`
}

type StationaryView struct {
	ID      entity.ID             `json:"id"`
	Kind    catalogs.StationaryID `json:"kind"`
	Room    entity.ID             `json:"room"`
	Status  string                `json:"status"`
	Pending catalogs.BuildPower   `json:"pending_bp,omitempty"`
}

type TaskView struct {
	ID        entity.ID           `json:"id"`
	Priority  int                 `json:"priority"`
	Meta      production.TaskMeta `json:"meta"`
	BelongsTo entity.ID           `json:"belongs_to,omitempty"`
	Recipe    string              `json:"recipe,omitempty"`
}

// StateView is a read-only copy of the colony for display.
type StateView struct {
	ColonyID     string                      `json:"colony_id"`
	Turn         uint64                      `json:"turn"`
	Digest       string                      `json:"digest"`
	Workforce    map[catalogs.Profession]int `json:"workforce"`
	Inventory    map[catalogs.Resource]int   `json:"inventory"`
	Rooms        []RoomView                  `json:"rooms"`
	Stationaries []StationaryView            `json:"stationaries"`
	Tasks        []TaskView                  `json:"tasks"`
}

func (w *World) stateView() StateView {
	v := StateView{
		ColonyID:     w.cfg.ID,
		Turn:         w.turn.Load(),
		Digest:       w.stateDigest(),
		Workforce:    w.WorkforceByProfession(),
		Inventory:    w.Inventory(),
		Rooms:        []RoomView{},
		Stationaries: []StationaryView{},
		Tasks:        []TaskView{},
	}
	w.rooms.Each(func(id entity.ID, r *rooms.Room) bool {
		v.Rooms = append(v.Rooms, RoomView{ID: id, Type: r.Type, Tier: r.Tier, Capacity: r.Capacity, Occupied: r.Occupied})
		return true
	})
	w.works.Each(func(id entity.ID, s *production.Stationary) bool {
		v.Stationaries = append(v.Stationaries, StationaryView{
			ID: id, Kind: s.Kind, Room: s.Room, Status: s.Status.String(), Pending: w.queue.Pending(id),
		})
		return true
	})
	for _, id := range w.queue.Ordered() {
		t, _ := w.queue.Get(id)
		tv := TaskView{ID: id, Priority: t.Priority, Meta: t.Meta, BelongsTo: t.BelongsTo}
		if t.Output != nil {
			tv.Recipe = t.Output.Recipe
		}
		v.Tasks = append(v.Tasks, tv)
	}
	return v
}

// State returns a copy of the colony taken on the world loop goroutine.
func (w *World) State(ctx context.Context) (StateView, error) {
	var v StateView
	err := w.query(ctx, func() { v = w.stateView() })
	return v, err
}

func (w *World) Workforce(ctx context.Context) (map[catalogs.Profession]int, error) {
	var m map[catalogs.Profession]int
	err := w.query(ctx, func() { m = w.WorkforceByProfession() })
	return m, err
}

func (w *World) Stockpile(ctx context.Context) (map[catalogs.Resource]int, error) {
	var m map[catalogs.Resource]int
	err := w.query(ctx, func() { m = w.Inventory() })
	return m, err
}
