package people

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/rooms"
	"glavblock.dev/internal/sim/simerr"
	"glavblock.dev/internal/sim/storage"
)

func worker(t catalogs.Tier) Colonist {
	return Colonist{Profession: catalogs.Worker, Tier: t, Satiety: 200, Mood: 5}
}

func TestSpawnOccupiesFootprint(t *testing.T) {
	g := rooms.NewRegistry()
	cell := g.InstallGerm(catalogs.T1, catalogs.Living)
	r := NewRoster(g)

	for i := 0; i < 3; i++ {
		_, err := r.Spawn(worker(catalogs.T1), cell)
		require.NoError(t, err)
	}
	free, err := g.FreeSpace(cell)
	require.NoError(t, err)
	assert.Equal(t, 0, free)

	_, err = r.Spawn(worker(catalogs.T1), cell)
	assert.True(t, errors.Is(err, simerr.ErrNotEnoughArea))
	assert.Equal(t, 3, r.Len())

	_, err = r.Spawn(worker(catalogs.T1), 999)
	assert.True(t, errors.Is(err, simerr.ErrNoSuchUnit))

	_, err = r.Spawn(Colonist{Profession: catalogs.Worker}, cell)
	assert.True(t, errors.Is(err, simerr.ErrBadRequest))
}

func TestSpawnAnywhere(t *testing.T) {
	g := rooms.NewRegistry()
	a := g.InstallGerm(catalogs.T1, catalogs.Living)
	b := g.InstallGerm(catalogs.T1, catalogs.Living)
	g.Occupy(b, 10)
	r := NewRoster(g)

	id, err := r.SpawnAnywhere(worker(catalogs.T1))
	require.NoError(t, err)
	c, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, b, c.Room, "fuller room first")

	g.Occupy(a, 30)
	g.Occupy(b, 10)
	_, err = r.SpawnAnywhere(worker(catalogs.T1))
	assert.True(t, errors.Is(err, simerr.ErrNoEmptyTiles))
}

func TestRelocate(t *testing.T) {
	g := rooms.NewRegistry()
	a := g.InstallGerm(catalogs.T1, catalogs.Living)
	b := g.InstallGerm(catalogs.T1, catalogs.Living)
	r := NewRoster(g)
	id, err := r.Spawn(worker(catalogs.T1), a)
	require.NoError(t, err)

	assert.True(t, errors.Is(r.Relocate(id, a), simerr.ErrAlreadyHere))
	assert.True(t, errors.Is(r.Relocate(id+1, b), simerr.ErrNoSuchUnit))
	assert.True(t, errors.Is(r.Relocate(id, 42), simerr.ErrNoSuchUnit))

	require.NoError(t, r.Relocate(id, b))
	fa, _ := g.FreeSpace(a)
	fb, _ := g.FreeSpace(b)
	assert.Equal(t, 30, fa)
	assert.Equal(t, 20, fb)

	g.Occupy(a, 25)
	assert.True(t, errors.Is(r.Relocate(id, a), simerr.ErrCollision))
}

func TestLedgerRecompute(t *testing.T) {
	g := rooms.NewRegistry()
	cell := g.InstallGerm(catalogs.T3, catalogs.Living)
	r := NewRoster(g)
	for _, c := range []Colonist{
		worker(catalogs.T1),
		worker(catalogs.T1),
		worker(catalogs.T2),
		{Profession: catalogs.Scientist, Tier: catalogs.T1, Specialization: catalogs.SpecBio},
		{Profession: catalogs.Child, Tier: catalogs.T1},
	} {
		_, err := r.Spawn(c, cell)
		require.NoError(t, err)
	}

	l := NewLedger()
	l.Recompute(r)
	assert.Equal(t, catalogs.BuildPower(20), l.Get(catalogs.Worker, catalogs.T1))
	assert.Equal(t, catalogs.BuildPower(20), l.Get(catalogs.Worker, catalogs.T2))
	assert.Equal(t, catalogs.BuildPower(10), l.Get(catalogs.Scientist, catalogs.T1))
	assert.Equal(t, catalogs.BuildPower(0), l.Get(catalogs.Child, catalogs.T1))
	assert.Equal(t, catalogs.BuildPower(50), l.Total())

	k := LaborKey{catalogs.Worker, catalogs.T1, catalogs.SpecNone}
	assert.Equal(t, catalogs.BuildPower(20), l.Take(k, 25))
	assert.Equal(t, catalogs.BuildPower(0), l.Take(k, 5))

	keys := l.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, catalogs.T2, keys[0].Tier)
	assert.Equal(t, catalogs.Scientist, keys[1].Profession)

	// Nothing carries over between turns.
	l.Recompute(r)
	assert.Equal(t, catalogs.BuildPower(20), l.Get(catalogs.Worker, catalogs.T1))
}

func TestLaborOutput(t *testing.T) {
	assert.Equal(t, catalogs.BuildPower(0), LaborOutput(catalogs.NoTier))
	assert.Equal(t, catalogs.BuildPower(10), LaborOutput(catalogs.T1))
	assert.Equal(t, catalogs.BuildPower(20), LaborOutput(catalogs.T2))
	assert.Equal(t, catalogs.BuildPower(40), LaborOutput(catalogs.T3))
}

func TestHungerTick(t *testing.T) {
	g := rooms.NewRegistry()
	cell := g.InstallGerm(catalogs.T1, catalogs.Living)
	r := NewRoster(g)
	cfg := DefaultSubsistence()

	starving, err := r.Spawn(Colonist{Profession: catalogs.Worker, Tier: catalogs.T1, Satiety: 15, Mood: 3}, cell)
	require.NoError(t, err)
	hungry, err := r.Spawn(Colonist{Profession: catalogs.Worker, Tier: catalogs.T1, Satiety: 50, Mood: 0}, cell)
	require.NoError(t, err)
	fine, err := r.Spawn(worker(catalogs.T1), cell)
	require.NoError(t, err)

	res := r.HungerTick(cfg)
	assert.Equal(t, []entity.ID{starving}, res.Died)
	assert.Equal(t, 1, res.Hungry)

	_, ok := r.Get(starving)
	assert.False(t, ok)
	free, _ := g.FreeSpace(cell)
	assert.Equal(t, 10, free)

	h, _ := r.Get(hungry)
	assert.Equal(t, 40, h.Satiety)
	assert.Equal(t, 0, h.Mood, "mood is clamped at the floor")

	f, _ := r.Get(fine)
	assert.Equal(t, 190, f.Satiety)
	assert.Equal(t, 5, f.Mood)
}

func TestFeedDrawsExactlyWhatIsEaten(t *testing.T) {
	g := rooms.NewRegistry()
	g.InstallGerm(catalogs.T1, catalogs.PartyArea)
	cell := g.InstallGerm(catalogs.T1, catalogs.Living)
	st := storage.New(g)
	st.AddShelves(1)
	require.Equal(t, 0, st.Store(catalogs.ConcentratT1, 2))

	r := NewRoster(g)
	var ids []entity.ID
	for i := 0; i < 3; i++ {
		c := worker(catalogs.T1)
		c.Satiety = 295
		id, err := r.Spawn(c, cell)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	res := r.Feed(DefaultSubsistence(), st)
	assert.Equal(t, FeedResult{Fed: 2, Unfed: 1}, res)
	assert.Equal(t, 0, st.Amount(catalogs.ConcentratT1))

	first, _ := r.Get(ids[0])
	assert.Equal(t, 300, first.Satiety, "satiety is capped")
	assert.Equal(t, 6, first.Mood)
	last, _ := r.Get(ids[2])
	assert.Equal(t, 295, last.Satiety)
	assert.Equal(t, 4, last.Mood)
}

func TestWorkforceByProfession(t *testing.T) {
	g := rooms.NewRegistry()
	cell := g.InstallGerm(catalogs.T2, catalogs.Living)
	r := NewRoster(g)
	for _, p := range []catalogs.Profession{catalogs.Worker, catalogs.Worker, catalogs.Likvidator} {
		_, err := r.Spawn(Colonist{Profession: p, Tier: catalogs.T1}, cell)
		require.NoError(t, err)
	}
	assert.Equal(t, map[catalogs.Profession]int{catalogs.Worker: 2, catalogs.Likvidator: 1}, r.WorkforceByProfession())
}
