// Package people holds the colonists, the per-turn labor ledger and the
// subsistence accounting.
package people

import (
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/simerr"
)

type Colonist struct {
	Profession     catalogs.Profession
	Tier           catalogs.Tier
	Specialization catalogs.Specialization
	Room           entity.ID
	Satiety        int
	Mood           int
}

// Rooms is the spatial collaborator colonists rent area from.
type Rooms interface {
	FreeSpace(id entity.ID) (int, error)
	FindRoom(footprint int, typ catalogs.AreaType) (entity.ID, bool)
	Occupy(id entity.ID, n int)
	Release(id entity.ID, n int)
}

type Roster struct {
	rooms     Rooms
	colonists *entity.Store[Colonist]
}

func NewRoster(rooms Rooms) *Roster {
	return &Roster{rooms: rooms, colonists: entity.NewStore[Colonist]()}
}

// Spawn settles c into room. Satiety and Mood are taken as given.
func (r *Roster) Spawn(c Colonist, room entity.ID) (entity.ID, error) {
	if !c.Tier.Valid() {
		return 0, simerr.New(simerr.BadRequest, "colonist tier %v", c.Tier)
	}
	free, err := r.rooms.FreeSpace(room)
	if err != nil {
		return 0, err
	}
	if free < catalogs.ColonistFootprint {
		return 0, simerr.New(simerr.NotEnoughArea, "room %d free=%d need=%d", room, free, catalogs.ColonistFootprint)
	}
	c.Room = room
	r.rooms.Occupy(room, catalogs.ColonistFootprint)
	id, _ := r.colonists.Create(c)
	return id, nil
}

// SpawnAnywhere settles c into the fullest living room with space left.
func (r *Roster) SpawnAnywhere(c Colonist) (entity.ID, error) {
	room, ok := r.rooms.FindRoom(catalogs.ColonistFootprint, catalogs.Living)
	if !ok {
		return 0, simerr.New(simerr.NoEmptyTiles, "no living room with %d free", catalogs.ColonistFootprint)
	}
	return r.Spawn(c, room)
}

// Relocate moves a colonist to another room.
func (r *Roster) Relocate(id entity.ID, room entity.ID) error {
	c, ok := r.colonists.Get(id)
	if !ok {
		return simerr.New(simerr.NoSuchUnit, "colonist %d", id)
	}
	free, err := r.rooms.FreeSpace(room)
	if err != nil {
		return err
	}
	if c.Room == room {
		return simerr.New(simerr.AlreadyHere, "colonist %d in room %d", id, room)
	}
	if free < catalogs.ColonistFootprint {
		return simerr.New(simerr.Collision, "room %d free=%d", room, free)
	}
	r.rooms.Release(c.Room, catalogs.ColonistFootprint)
	r.rooms.Occupy(room, catalogs.ColonistFootprint)
	c.Room = room
	return nil
}

// Remove deletes a colonist and frees its area.
func (r *Roster) Remove(id entity.ID) bool {
	c, ok := r.colonists.Get(id)
	if !ok {
		return false
	}
	r.rooms.Release(c.Room, catalogs.ColonistFootprint)
	return r.colonists.Delete(id)
}

func (r *Roster) Get(id entity.ID) (*Colonist, bool) { return r.colonists.Get(id) }

func (r *Roster) Each(fn func(entity.ID, *Colonist) bool) { r.colonists.Each(fn) }

func (r *Roster) Len() int { return r.colonists.Len() }

// WorkforceByProfession counts colonists per profession.
func (r *Roster) WorkforceByProfession() map[catalogs.Profession]int {
	out := map[catalogs.Profession]int{}
	r.colonists.Each(func(_ entity.ID, c *Colonist) bool {
		out[c.Profession]++
		return true
	})
	return out
}

// Restore puts a colonist back under its persisted id without touching room
// occupancy.
func (r *Roster) Restore(id entity.ID, c Colonist) { r.colonists.Insert(id, c) }

func (r *Roster) LastID() entity.ID { return r.colonists.Last() }

func (r *Roster) SetLastID(id entity.ID) { r.colonists.SetLast(id) }
