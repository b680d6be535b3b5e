// Package production tracks stationaries, the tasks that build them and the
// production orders worked on them, and allocates the turn's labor.
package production

import (
	"fmt"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/simerr"
)

type Status uint8

const (
	Constructing Status = iota + 1
	Ready
)

func (s Status) String() string {
	switch s {
	case Constructing:
		return "CONSTRUCTING"
	case Ready:
		return "READY"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

type Stationary struct {
	Kind   catalogs.StationaryID `json:"kind"`
	Room   entity.ID             `json:"room"`
	Status Status                `json:"status"`
}

type Rooms interface {
	FreeSpace(id entity.ID) (int, error)
	Occupy(id entity.ID, n int)
}

type Storage interface {
	WriteOffBunch(cost map[catalogs.Resource]int) error
	AddShelves(n int)
	AddBarrels(n int)
}

type Registry struct {
	rooms        Rooms
	storage      Storage
	queue        *Queue
	stationaries *entity.Store[Stationary]
}

func NewRegistry(rooms Rooms, storage Storage, queue *Queue) *Registry {
	return &Registry{
		rooms:        rooms,
		storage:      storage,
		queue:        queue,
		stationaries: entity.NewStore[Stationary](),
	}
}

func (r *Registry) Queue() *Queue { return r.queue }

// StartBuild checks area, writes off the material cost and queues the
// construction tasks. Nothing is changed when it fails.
func (r *Registry) StartBuild(kind catalogs.StationaryID, room entity.ID, priority int) (entity.ID, error) {
	if !catalogs.Buildable(kind) {
		return 0, simerr.New(simerr.BadRequest, "stationary %v is not buildable", kind)
	}
	free, err := r.rooms.FreeSpace(room)
	if err != nil {
		return 0, err
	}
	need := catalogs.Footprint(kind)
	if free < need {
		return 0, simerr.New(simerr.NotEnoughArea, "room %d free=%d need=%d", room, free, need)
	}
	if err := r.storage.WriteOffBunch(catalogs.MaterialCost(kind)); err != nil {
		return 0, fmt.Errorf("build %v: %w", kind, err)
	}

	id, _ := r.stationaries.Create(Stationary{Kind: kind, Room: room, Status: Constructing})
	r.rooms.Occupy(room, need)
	for _, spec := range catalogs.ConstructionRequirements(kind) {
		r.queue.Add(Task{Priority: priority, Meta: metaFromSpec(spec), BelongsTo: id})
	}
	return id, nil
}

// Install places a finished stationary without cost. Used when seeding a colony.
func (r *Registry) Install(kind catalogs.StationaryID, room entity.ID) (entity.ID, error) {
	if _, ok := catalogs.Lookup(kind); !ok {
		return 0, simerr.New(simerr.BadRequest, "unknown stationary %v", kind)
	}
	free, err := r.rooms.FreeSpace(room)
	if err != nil {
		return 0, err
	}
	if need := catalogs.Footprint(kind); free < need {
		return 0, simerr.New(simerr.NotEnoughArea, "room %d free=%d need=%d", room, free, need)
	}
	id, _ := r.stationaries.Create(Stationary{Kind: kind, Room: room, Status: Ready})
	r.rooms.Occupy(room, catalogs.Footprint(kind))
	r.putInService(kind)
	return id, nil
}

// StartProduction writes off the recipe inputs and queues its task.
func (r *Registry) StartProduction(recipe string, priority int) (entity.ID, error) {
	def, ok := catalogs.Recipe(recipe)
	if !ok {
		return 0, simerr.New(simerr.BadRequest, "unknown recipe %q", recipe)
	}
	if err := r.storage.WriteOffBunch(def.Inputs); err != nil {
		return 0, fmt.Errorf("recipe %s: %w", recipe, err)
	}
	return r.queue.Add(Task{
		Priority: priority,
		Meta:     metaFromSpec(def.Task),
		Output:   &Output{Recipe: def.ID, Resource: def.Output, Amount: def.Amount},
	}), nil
}

// Promote marks ready every stationary whose construction tasks are all gone
// and returns their ids in id order.
func (r *Registry) Promote() []entity.ID {
	var promoted []entity.ID
	r.stationaries.Each(func(id entity.ID, s *Stationary) bool {
		if s.Status != Constructing || r.queue.HasOwner(id) {
			return true
		}
		s.Status = Ready
		r.putInService(s.Kind)
		promoted = append(promoted, id)
		return true
	})
	return promoted
}

func (r *Registry) putInService(kind catalogs.StationaryID) {
	if n := catalogs.ShelvesProvided(kind); n > 0 {
		r.storage.AddShelves(n)
	}
	if n := catalogs.BarrelsProvided(kind); n > 0 {
		r.storage.AddBarrels(n)
	}
}

// EquipmentPool is the build power offered by ready stationaries this turn.
type EquipmentPool map[catalogs.StationaryID]catalogs.BuildPower

func (r *Registry) Equipment() EquipmentPool {
	pool := EquipmentPool{}
	r.stationaries.Each(func(_ entity.ID, s *Stationary) bool {
		if s.Status == Ready {
			if out := catalogs.BuildPowerOutput(s.Kind); out > 0 {
				pool[s.Kind] += out
			}
		}
		return true
	})
	return pool
}

func (r *Registry) Get(id entity.ID) (*Stationary, bool) { return r.stationaries.Get(id) }

func (r *Registry) Each(fn func(entity.ID, *Stationary) bool) { r.stationaries.Each(fn) }

func (r *Registry) Len() int { return r.stationaries.Len() }

func (r *Registry) Restore(id entity.ID, s Stationary) { r.stationaries.Insert(id, s) }

func (r *Registry) LastID() entity.ID { return r.stationaries.Last() }

func (r *Registry) SetLastID(id entity.ID) { r.stationaries.SetLast(id) }
