package production

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/people"
	"glavblock.dev/internal/sim/rooms"
	"glavblock.dev/internal/sim/simerr"
	"glavblock.dev/internal/sim/storage"
)

type fixture struct {
	rooms    *rooms.Registry
	storage  *storage.Engine
	reg      *Registry
	workshop entity.ID
}

func newFixture(t *testing.T, shelves int) *fixture {
	t.Helper()
	g := rooms.NewRegistry()
	g.InstallGerm(catalogs.T2, catalogs.PartyArea)
	ws := g.InstallGerm(catalogs.T1, catalogs.Industrial)
	st := storage.New(g)
	st.AddShelves(shelves)
	return &fixture{rooms: g, storage: st, reg: NewRegistry(g, st, NewQueue()), workshop: ws}
}

func TestSingleTaskConsumesLaborAndEquipment(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.reg.Install(catalogs.BenchToolT1, f.workshop)
	require.NoError(t, err)
	q := f.reg.Queue()
	q.Add(Task{Meta: TaskMeta{
		Profession: catalogs.Worker, Tier: catalogs.T1, Remaining: 10, Stationary: catalogs.BenchToolT1,
	}})

	labor := people.NewLedger()
	labor.Add(people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T1}, 20)
	equip := f.reg.Equipment()
	require.Equal(t, catalogs.BuildPower(10), equip[catalogs.BenchToolT1])

	Allocate(q, labor, equip)
	done := q.Sweep()

	require.Len(t, done, 1)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, catalogs.BuildPower(0), equip[catalogs.BenchToolT1])
	assert.Equal(t, catalogs.BuildPower(10), labor.Get(catalogs.Worker, catalogs.T1))
}

func TestStartBuildNotEnoughAreaChangesNothing(t *testing.T) {
	f := newFixture(t, 1)
	require.Equal(t, 0, f.storage.Store(catalogs.ScrapT1, 10))
	f.rooms.Occupy(f.workshop, 26)

	_, err := f.reg.StartBuild(catalogs.BenchToolT1, f.workshop, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, simerr.ErrNotEnoughArea))
	assert.Equal(t, 0, f.reg.Len())
	assert.Equal(t, 0, f.reg.Queue().Len())
	assert.Equal(t, 10, f.storage.Amount(catalogs.ScrapT1))
	free, _ := f.rooms.FreeSpace(f.workshop)
	assert.Equal(t, 4, free)
}

func TestStartBuildNotEnoughResourcesChangesNothing(t *testing.T) {
	f := newFixture(t, 1)
	require.Equal(t, 0, f.storage.Store(catalogs.ScrapT1, 9))

	_, err := f.reg.StartBuild(catalogs.BenchToolT1, f.workshop, 0)
	assert.True(t, errors.Is(err, simerr.ErrNotEnoughResources))
	assert.Equal(t, 0, f.reg.Len())
	assert.Equal(t, 9, f.storage.Amount(catalogs.ScrapT1))
	free, _ := f.rooms.FreeSpace(f.workshop)
	assert.Equal(t, 30, free)
}

func TestStartBuildRejectsUnknownRoomAndKind(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.reg.StartBuild(catalogs.BenchToolT1, 404, 0)
	assert.True(t, errors.Is(err, simerr.ErrNoSuchUnit))
	_, err = f.reg.StartBuild(catalogs.S(catalogs.Germ, catalogs.T1), f.workshop, 0)
	assert.True(t, errors.Is(err, simerr.ErrBadRequest))
}

func TestBuildCompletesAcrossTurns(t *testing.T) {
	f := newFixture(t, 1)
	require.Equal(t, 0, f.storage.Store(catalogs.ScrapT1, 10))
	id, err := f.reg.StartBuild(catalogs.BenchToolT1, f.workshop, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, f.storage.Amount(catalogs.ScrapT1))
	free, _ := f.rooms.FreeSpace(f.workshop)
	assert.Equal(t, 25, free)

	key := people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T1}
	turn := func() []entity.ID {
		labor := people.NewLedger()
		labor.Add(key, 20)
		Allocate(f.reg.Queue(), labor, f.reg.Equipment())
		f.reg.Queue().Sweep()
		return f.reg.Promote()
	}

	assert.Empty(t, turn())
	s, _ := f.reg.Get(id)
	assert.Equal(t, Constructing, s.Status)
	assert.Equal(t, catalogs.BuildPower(10), f.reg.Queue().Pending(id))
	assert.Empty(t, f.reg.Equipment())

	assert.Equal(t, []entity.ID{id}, turn())
	assert.Equal(t, Ready, s.Status)
	assert.Equal(t, catalogs.BuildPower(10), f.reg.Equipment()[catalogs.BenchToolT1])
}

func TestPromotedRackAddsShelves(t *testing.T) {
	f := newFixture(t, 1)
	require.Equal(t, 0, f.storage.Store(catalogs.ScrapT1, 10))
	before := f.storage.Len()
	_, err := f.reg.StartBuild(catalogs.S(catalogs.Rack, catalogs.T1), f.workshop, 0)
	require.True(t, errors.Is(err, simerr.ErrNotEnoughResources))

	require.Equal(t, 0, f.storage.Store(catalogs.ScrapT1, 5))
	require.Equal(t, 0, f.storage.Store(catalogs.ScrapT1, 10))
	_, err = f.reg.StartBuild(catalogs.S(catalogs.Rack, catalogs.T1), f.workshop, 0)
	require.NoError(t, err)

	labor := people.NewLedger()
	labor.Add(people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T1}, 20)
	Allocate(f.reg.Queue(), labor, f.reg.Equipment())
	f.reg.Queue().Sweep()
	require.Len(t, f.reg.Promote(), 1)

	shelves := 0
	f.storage.Each(func(_ entity.ID, c *storage.Container) bool {
		if c.Kind == storage.Shelf {
			shelves++
		}
		return true
	})
	assert.Equal(t, 5, shelves)
	assert.Less(t, before, f.storage.Len())
}

func TestNoReadyStationaryWithPendingTasks(t *testing.T) {
	f := newFixture(t, 2)
	require.Equal(t, 0, f.storage.Store(catalogs.ScrapT1, 20))
	require.Equal(t, 0, f.storage.Store(catalogs.PolymerT1, 10))
	require.Equal(t, 0, f.storage.Store(catalogs.ReagentT1, 5))
	big := f.rooms.InstallGerm(catalogs.T2, catalogs.Medical)
	id, err := f.reg.StartBuild(catalogs.S(catalogs.OperatingRoom, catalogs.T1), big, 0)
	require.NoError(t, err)
	require.Equal(t, 2, f.reg.Queue().Len())

	// Doctors finish their part, the bench work never starts.
	labor := people.NewLedger()
	labor.Add(people.LaborKey{Profession: catalogs.Doctor, Tier: catalogs.T1}, 40)
	labor.Add(people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T1}, 100)
	Allocate(f.reg.Queue(), labor, f.reg.Equipment())
	require.Len(t, f.reg.Queue().Sweep(), 1)
	assert.Empty(t, f.reg.Promote())

	s, _ := f.reg.Get(id)
	assert.Equal(t, Constructing, s.Status)
	assert.True(t, f.reg.Queue().HasOwner(id))
}

func TestDowngradeCoefficient(t *testing.T) {
	cases := []struct {
		worker, task catalogs.Tier
		want         int
	}{
		{catalogs.T1, catalogs.T1, 1},
		{catalogs.T2, catalogs.T2, 1},
		{catalogs.T3, catalogs.T3, 1},
		{catalogs.T2, catalogs.T1, 2},
		{catalogs.T3, catalogs.T2, 2},
		{catalogs.T3, catalogs.T1, 4},
		{catalogs.T1, catalogs.T2, 0},
		{catalogs.T1, catalogs.T3, 0},
		{catalogs.T2, catalogs.T3, 0},
		{catalogs.NoTier, catalogs.T1, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DowngradeCoefficient(c.worker, c.task), "%v on %v", c.worker, c.task)
	}
}

func TestAllocateDowngradesHigherTiers(t *testing.T) {
	q := NewQueue()
	a := q.Add(Task{Meta: TaskMeta{Profession: catalogs.Worker, Tier: catalogs.T1, Remaining: 30}})
	labor := people.NewLedger()
	t2 := people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T2}
	labor.Add(t2, 10)

	Allocate(q, labor, EquipmentPool{})
	task, _ := q.Get(a)
	assert.Equal(t, catalogs.BuildPower(10), task.Meta.Remaining)
	assert.Equal(t, catalogs.BuildPower(0), labor.At(t2))

	t3 := people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T3}
	labor.Add(t3, 40)
	task.Meta.Remaining = 5
	Allocate(q, labor, EquipmentPool{})
	assert.Equal(t, catalogs.BuildPower(0), task.Meta.Remaining)
	assert.Equal(t, catalogs.BuildPower(38), labor.At(t3), "ceil(5/4) labor spent")

	// A one-point tail still costs a whole point of T3 labor.
	task.Meta.Remaining = 1
	Allocate(q, labor, EquipmentPool{})
	assert.Equal(t, catalogs.BuildPower(0), task.Meta.Remaining)
	assert.Equal(t, catalogs.BuildPower(37), labor.At(t3))
}

func TestAllocateNeverUpgrades(t *testing.T) {
	q := NewQueue()
	id := q.Add(Task{Meta: TaskMeta{Profession: catalogs.Worker, Tier: catalogs.T2, Remaining: 20}})
	labor := people.NewLedger()
	labor.Add(people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T1}, 100)
	Allocate(q, labor, EquipmentPool{})
	task, _ := q.Get(id)
	assert.Equal(t, catalogs.BuildPower(20), task.Meta.Remaining)
}

func TestAllocateRespectsSpecialization(t *testing.T) {
	q := NewQueue()
	id := q.Add(Task{Meta: TaskMeta{
		Profession: catalogs.Scientist, Tier: catalogs.T1, Remaining: 20, Specialization: catalogs.SpecBio,
	}})
	labor := people.NewLedger()
	labor.Add(people.LaborKey{Profession: catalogs.Scientist, Tier: catalogs.T1}, 10)
	Allocate(q, labor, EquipmentPool{})
	task, _ := q.Get(id)
	assert.Equal(t, catalogs.BuildPower(20), task.Meta.Remaining)

	labor.Add(people.LaborKey{Profession: catalogs.Scientist, Tier: catalogs.T1, Specialization: catalogs.SpecBio}, 10)
	Allocate(q, labor, EquipmentPool{})
	assert.Equal(t, catalogs.BuildPower(10), task.Meta.Remaining)
	assert.Equal(t, catalogs.BuildPower(10), labor.Get(catalogs.Scientist, catalogs.T1))
}

func TestAllocateByPriorityThenCreation(t *testing.T) {
	q := NewQueue()
	meta := TaskMeta{Profession: catalogs.Worker, Tier: catalogs.T1, Remaining: 10}
	late := q.Add(Task{Priority: 5, Meta: meta})
	urgentA := q.Add(Task{Priority: 1, Meta: meta})
	urgentB := q.Add(Task{Priority: 1, Meta: meta})
	assert.Equal(t, []entity.ID{urgentA, urgentB, late}, q.Ordered())

	labor := people.NewLedger()
	labor.Add(people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T1}, 15)

	prev := map[entity.ID]catalogs.BuildPower{}
	q.Each(func(id entity.ID, t *Task) bool { prev[id] = t.Meta.Remaining; return true })
	Allocate(q, labor, EquipmentPool{})
	q.Each(func(id entity.ID, task *Task) bool {
		assert.LessOrEqual(t, task.Meta.Remaining, prev[id])
		return true
	})

	rem := func(id entity.ID) catalogs.BuildPower { task, _ := q.Get(id); return task.Meta.Remaining }
	assert.Equal(t, catalogs.BuildPower(0), rem(urgentA))
	assert.Equal(t, catalogs.BuildPower(5), rem(urgentB))
	assert.Equal(t, catalogs.BuildPower(10), rem(late))
}

func TestEquipmentLimitsProgress(t *testing.T) {
	q := NewQueue()
	id := q.Add(Task{Meta: TaskMeta{
		Profession: catalogs.Worker, Tier: catalogs.T1, Remaining: 50, Stationary: catalogs.BenchToolT1,
	}})
	labor := people.NewLedger()
	labor.Add(people.LaborKey{Profession: catalogs.Worker, Tier: catalogs.T1}, 100)

	Allocate(q, labor, EquipmentPool{})
	task, _ := q.Get(id)
	assert.Equal(t, catalogs.BuildPower(50), task.Meta.Remaining, "no bench, no work")

	Allocate(q, labor, EquipmentPool{catalogs.BenchToolT1: 20})
	assert.Equal(t, catalogs.BuildPower(30), task.Meta.Remaining)
	assert.Equal(t, catalogs.BuildPower(80), labor.Get(catalogs.Worker, catalogs.T1))
}

func TestStartProduction(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.reg.StartProduction("NOPE", 0)
	assert.True(t, errors.Is(err, simerr.ErrBadRequest))

	_, err = f.reg.StartProduction("COMPONENT_T1", 0)
	assert.True(t, errors.Is(err, simerr.ErrNotEnoughResources))

	require.Equal(t, 0, f.storage.Store(catalogs.ScrapT1, 2))
	id, err := f.reg.StartProduction("COMPONENT_T1", 3)
	require.NoError(t, err)
	assert.Equal(t, 0, f.storage.Amount(catalogs.ScrapT1))

	task, ok := f.reg.Queue().Get(id)
	require.True(t, ok)
	assert.Equal(t, 3, task.Priority)
	require.NotNil(t, task.Output)
	assert.Equal(t, catalogs.ComponentT1, task.Output.Resource)
	assert.Equal(t, 1, task.Output.Amount)
	assert.Equal(t, entity.ID(0), task.BelongsTo)
}
