package catalogs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceTextRoundTrip(t *testing.T) {
	for _, r := range AllResources() {
		b, err := r.MarshalText()
		require.NoError(t, err, r.String())
		var got Resource
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, r, got)
	}
	_, ok := ParseResource("ConcentratT4")
	assert.False(t, ok)
	_, ok = ParseResource("EthanolT1")
	assert.False(t, ok, "untiered kinds reject a tier suffix")
}

func TestUnitVolumesDivideContainer(t *testing.T) {
	for _, r := range AllResources() {
		v := UnitVolume(r)
		require.Positive(t, v, r.String())
		assert.Zero(t, 1000%v, "%s volume %d", r, v)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Solid, Classify(ConcentratT1))
	assert.Equal(t, Solid, Classify(ScrapT2))
	assert.Equal(t, Fluid, Classify(EthanolRes))
	assert.Equal(t, Fluid, Classify(R(PinkSlime, NoTier)))
	assert.Equal(t, 1, UnitVolume(ConcentratT1))
	assert.Equal(t, 100, UnitVolume(ScrapT1))
}

func TestStationaryTables(t *testing.T) {
	assert.Equal(t, BuildPower(10), BuildPowerOutput(BenchToolT1))
	assert.Equal(t, 5, Footprint(BenchToolT1))

	for _, id := range AllStationaries() {
		def, ok := Lookup(id)
		require.True(t, ok)
		require.True(t, id.Tier.Valid(), id.String())
		for r := range def.Cost {
			assert.True(t, r.Valid(), "%s cost %v", id, r)
		}
		for _, spec := range def.Build {
			assert.True(t, spec.Tier.Valid(), "%s build tier", id)
			assert.Positive(t, int(spec.BuildPower), "%s build power", id)
			if !spec.Stationary.IsZero() {
				_, ok := Lookup(spec.Stationary)
				assert.True(t, ok, "%s requires unknown %s", id, spec.Stationary)
			}
		}
	}
}

func TestMaterialCostIsACopy(t *testing.T) {
	c := MaterialCost(BenchToolT1)
	c[ScrapT1] = 999
	assert.Equal(t, 10, MaterialCost(BenchToolT1)[ScrapT1])
}

func TestRecipesReferenceKnownEquipment(t *testing.T) {
	for _, id := range RecipeIDs() {
		rec, ok := Recipe(id)
		require.True(t, ok)
		assert.True(t, rec.Output.Valid(), id)
		assert.Positive(t, rec.Amount, id)
		_, ok = Lookup(rec.Task.Stationary)
		assert.True(t, ok, "%s uses %s", id, rec.Task.Stationary)
	}
}

func TestResourceMapJSON(t *testing.T) {
	in := map[Resource]int{ConcentratT1: 3, EthanolRes: 7}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ConcentratT1":3,"Ethanol":7}`, string(b))

	var out map[Resource]int
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestDigestStable(t *testing.T) {
	d := Digest()
	assert.Len(t, d, 64)
	assert.Equal(t, d, Digest())
}

func TestGermCapacity(t *testing.T) {
	assert.Equal(t, 30, GermCapacity(T1))
	assert.Equal(t, 150, GermCapacity(T2))
	assert.Equal(t, 500, GermCapacity(T3))
	assert.Zero(t, GermCapacity(NoTier))
}
