// Package storage packs resources into shelves, barrels and floor boxes and
// writes them off again.
package storage

import (
	"sort"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/simerr"
)

const (
	// ContainerVolume is the capacity of every container, in volume units.
	ContainerVolume = 1000
	// FloorBoxFootprint is the room area a floor box takes.
	FloorBoxFootprint = 5
)

// Floor boxes go to the party stores.
const floorArea = catalogs.PartyArea

type ContainerKind uint8

const (
	Shelf    ContainerKind = iota + 1 // solids; rack-mounted, takes no room area
	Barrel                            // fluids only
	FloorBox                          // solids; created and destroyed on demand
)

func (k ContainerKind) String() string {
	switch k {
	case Shelf:
		return "Shelf"
	case Barrel:
		return "Barrel"
	case FloorBox:
		return "FloorBox"
	}
	return "ContainerKind(?)"
}

// Container holds at most one resource kind. Occupied is in volume units and
// is always a whole multiple of the resource's unit volume.
type Container struct {
	Kind     ContainerKind
	Resource catalogs.Resource
	Tagged   bool
	Occupied int
	Room     entity.ID // floor boxes only
}

func (c *Container) units() int {
	if !c.Tagged {
		return 0
	}
	return c.Occupied / catalogs.UnitVolume(c.Resource)
}

// Rooms is the spatial collaborator floor boxes are placed through.
type Rooms interface {
	FindRoom(footprint int, typ catalogs.AreaType) (entity.ID, bool)
	Occupy(id entity.ID, n int)
	Release(id entity.ID, n int)
}

type Engine struct {
	rooms      Rooms
	containers *entity.Store[Container]
}

func New(rooms Rooms) *Engine {
	return &Engine{rooms: rooms, containers: entity.NewStore[Container]()}
}

func (e *Engine) AddShelves(n int) { e.addReusable(Shelf, n) }

func (e *Engine) AddBarrels(n int) { e.addReusable(Barrel, n) }

func (e *Engine) addReusable(kind ContainerKind, n int) {
	for i := 0; i < n; i++ {
		e.containers.Create(Container{Kind: kind})
	}
}

// Store places amount units of r and returns how many did not fit. Solids go
// to shelves already holding r, then empty shelves, then floor boxes in party
// rooms; fluids go to barrels the same way and their overflow is returned to
// the caller.
func (e *Engine) Store(r catalogs.Resource, amount int) (leftover int) {
	if amount <= 0 {
		return 0
	}
	if !r.Valid() {
		return amount
	}
	switch catalogs.Classify(r) {
	case catalogs.Solid:
		rest := e.storeReusable(Shelf, r, amount)
		return e.storeOnFloor(r, rest)
	case catalogs.Fluid:
		return e.storeReusable(Barrel, r, amount)
	}
	return amount
}

func (e *Engine) storeReusable(kind ContainerKind, r catalogs.Resource, amount int) int {
	if amount == 0 {
		return 0
	}
	unit := catalogs.UnitVolume(r)
	remaining := amount
	// Top up containers already holding r before claiming empty ones.
	e.containers.Each(func(_ entity.ID, c *Container) bool {
		if remaining == 0 {
			return false
		}
		if c.Kind != kind || !c.Tagged || c.Resource != r {
			return true
		}
		units := min(remaining, (ContainerVolume-c.Occupied)/unit)
		c.Occupied += units * unit
		remaining -= units
		return true
	})
	e.containers.Each(func(_ entity.ID, c *Container) bool {
		if remaining == 0 {
			return false
		}
		if c.Kind != kind || c.Tagged {
			return true
		}
		units := min(remaining, ContainerVolume/unit)
		c.Resource = r
		c.Tagged = true
		c.Occupied = units * unit
		remaining -= units
		return true
	})
	return remaining
}

func (e *Engine) storeOnFloor(r catalogs.Resource, amount int) int {
	perBox := ContainerVolume / catalogs.UnitVolume(r)
	remaining := amount
	for remaining > 0 {
		room, ok := e.rooms.FindRoom(FloorBoxFootprint, floorArea)
		if !ok {
			break
		}
		units := min(remaining, perBox)
		e.rooms.Occupy(room, FloorBoxFootprint)
		e.containers.Create(Container{
			Kind:     FloorBox,
			Resource: r,
			Tagged:   true,
			Occupied: units * catalogs.UnitVolume(r),
			Room:     room,
		})
		remaining -= units
	}
	return remaining
}

// Amount is the number of whole units of r held across all containers.
func (e *Engine) Amount(r catalogs.Resource) int {
	if !r.Valid() {
		return 0
	}
	volume := 0
	e.containers.Each(func(_ entity.ID, c *Container) bool {
		if c.Tagged && c.Resource == r {
			volume += c.Occupied
		}
		return true
	})
	return volume / catalogs.UnitVolume(r)
}

func (e *Engine) HaveEnough(r catalogs.Resource, amount int) bool {
	if amount <= 0 {
		return true
	}
	return e.Amount(r) >= amount
}

// WriteOff removes amount units of r. The caller must have checked HaveEnough;
// a shortfall here is an invariant violation and panics.
func (e *Engine) WriteOff(r catalogs.Resource, amount int) {
	if amount <= 0 {
		return
	}
	need := e.drain(r, amount, func(c *Container) bool { return c.Kind == FloorBox })
	need = e.drain(r, need, func(c *Container) bool { return c.Kind != FloorBox })
	if need > 0 {
		simerr.Invariant("write off %d %s: short by %d", amount, r, need)
	}
}

// drain takes from the matching containers holding r, fullest first.
func (e *Engine) drain(r catalogs.Resource, need int, match func(*Container) bool) int {
	if need == 0 {
		return 0
	}
	ids := e.containers.Filter(func(c *Container) bool {
		return c.Tagged && c.Resource == r && match(c)
	})
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := e.containers.Get(ids[i])
		b, _ := e.containers.Get(ids[j])
		return a.Occupied > b.Occupied
	})
	uv := catalogs.UnitVolume(r)
	for _, id := range ids {
		if need == 0 {
			break
		}
		c, _ := e.containers.Get(id)
		take := min(c.units(), need)
		c.Occupied -= take * uv
		need -= take
		if c.Occupied > 0 {
			continue
		}
		if c.Kind == FloorBox {
			e.containers.Delete(id)
			e.rooms.Release(c.Room, FloorBoxFootprint)
			continue
		}
		c.Tagged = false
		c.Resource = catalogs.Resource{}
	}
	return need
}

// WriteOffBunch writes off every entry of cost, or nothing at all when any
// entry is short.
func (e *Engine) WriteOffBunch(cost map[catalogs.Resource]int) error {
	order := catalogs.SortedResources(cost)
	for _, r := range order {
		if have := e.Amount(r); have < cost[r] {
			return simerr.New(simerr.NotEnoughResources, "%s: have %d need %d", r, have, cost[r])
		}
	}
	for _, r := range order {
		e.WriteOff(r, cost[r])
	}
	return nil
}

// Inventory sums whole units per stored resource.
func (e *Engine) Inventory() map[catalogs.Resource]int {
	vol := map[catalogs.Resource]int{}
	e.containers.Each(func(_ entity.ID, c *Container) bool {
		if c.Tagged {
			vol[c.Resource] += c.Occupied
		}
		return true
	})
	out := make(map[catalogs.Resource]int, len(vol))
	for r, v := range vol {
		if n := v / catalogs.UnitVolume(r); n > 0 {
			out[r] = n
		}
	}
	return out
}

func (e *Engine) Each(fn func(entity.ID, *Container) bool) { e.containers.Each(fn) }

func (e *Engine) Len() int { return e.containers.Len() }

// Restore puts a container back under its persisted id. Floor box area is
// accounted for by the restored room occupancy, not re-occupied here.
func (e *Engine) Restore(id entity.ID, c Container) { e.containers.Insert(id, c) }

func (e *Engine) LastID() entity.ID { return e.containers.Last() }

func (e *Engine) SetLastID(id entity.ID) { e.containers.SetLast(id) }
