// Package rooms tracks area capacity and occupancy of the colony's rooms.
package rooms

import (
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/simerr"
)

type Room struct {
	Type     catalogs.AreaType
	Tier     catalogs.Tier
	Capacity int
	Occupied int
}

// Free may be negative; callers use it to detect over-packing.
func (r *Room) Free() int { return r.Capacity - r.Occupied }

type Registry struct {
	rooms *entity.Store[Room]
}

func NewRegistry() *Registry {
	return &Registry{rooms: entity.NewStore[Room]()}
}

// InstallGerm fits a room out with a hermetic door kit of the given tier.
func (g *Registry) InstallGerm(tier catalogs.Tier, purpose catalogs.AreaType) entity.ID {
	id, _ := g.rooms.Create(Room{
		Type:     purpose,
		Tier:     tier,
		Capacity: catalogs.GermCapacity(tier),
	})
	return id
}

func (g *Registry) Get(id entity.ID) (*Room, bool) { return g.rooms.Get(id) }

func (g *Registry) FreeSpace(id entity.ID) (int, error) {
	r, ok := g.rooms.Get(id)
	if !ok {
		return 0, simerr.New(simerr.NoSuchUnit, "room %d", id)
	}
	return r.Free(), nil
}

// FindRoom returns the most occupied room of the given type that still fits
// footprint. Ties go to the lower id.
func (g *Registry) FindRoom(footprint int, typ catalogs.AreaType) (entity.ID, bool) {
	var best entity.ID
	bestOcc := -1
	g.rooms.Each(func(id entity.ID, r *Room) bool {
		if r.Type != typ || r.Free() < footprint {
			return true
		}
		if r.Occupied > bestOcc {
			best, bestOcc = id, r.Occupied
		}
		return true
	})
	return best, bestOcc >= 0
}

func (g *Registry) Occupy(id entity.ID, n int) {
	if r, ok := g.rooms.Get(id); ok {
		r.Occupied += n
	}
}

func (g *Registry) Release(id entity.ID, n int) {
	r, ok := g.rooms.Get(id)
	if !ok {
		return
	}
	r.Occupied -= n
	if r.Occupied < 0 {
		r.Occupied = 0
	}
}

func (g *Registry) Each(fn func(entity.ID, *Room) bool) { g.rooms.Each(fn) }

func (g *Registry) Len() int { return g.rooms.Len() }

// Restore puts a room back under its persisted id.
func (g *Registry) Restore(id entity.ID, r Room) { g.rooms.Insert(id, r) }

func (g *Registry) LastID() entity.ID { return g.rooms.Last() }

func (g *Registry) SetLastID(id entity.ID) { g.rooms.SetLast(id) }
