package people

import (
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
)

type SubsistenceConfig struct {
	SatietyDecay    int
	LethalSatiety   int // below this a colonist dies
	HungerThreshold int // below this a colonist loses mood
	SatietyMax      int
	RationSatiety   int
	RationMood      int
	MoodMin         int
	MoodMax         int
	StartSatiety    int // given to newly spawned colonists
	StartMood       int
}

func DefaultSubsistence() SubsistenceConfig {
	return SubsistenceConfig{
		SatietyDecay:    10,
		LethalSatiety:   10,
		HungerThreshold: 100,
		SatietyMax:      300,
		RationSatiety:   10,
		RationMood:      1,
		MoodMin:         0,
		MoodMax:         10,
		StartSatiety:    200,
		StartMood:       5,
	}
}

func (c SubsistenceConfig) clampMood(m int) int {
	return max(c.MoodMin, min(c.MoodMax, m))
}

type HungerResult struct {
	Died   []entity.ID
	Hungry int
}

// HungerTick decays every colonist's satiety, removes the starved and
// lowers the mood of the hungry.
func (r *Roster) HungerTick(cfg SubsistenceConfig) HungerResult {
	var res HungerResult
	r.colonists.Each(func(id entity.ID, c *Colonist) bool {
		c.Satiety -= cfg.SatietyDecay
		if c.Satiety < cfg.LethalSatiety {
			res.Died = append(res.Died, id)
			return true
		}
		if c.Satiety < cfg.HungerThreshold {
			c.Mood = cfg.clampMood(c.Mood - 1)
			res.Hungry++
		}
		return true
	})
	for _, id := range res.Died {
		r.Remove(id)
	}
	return res
}

// FoodStore is the storage the ration is drawn from.
type FoodStore interface {
	Amount(r catalogs.Resource) int
	WriteOff(r catalogs.Resource, amount int)
}

type FeedResult struct {
	Fed   int
	Unfed int
}

// Feed hands out one ConcentratT1 per colonist in id order while supply lasts
// and writes off exactly what was eaten.
func (r *Roster) Feed(cfg SubsistenceConfig, store FoodStore) FeedResult {
	var res FeedResult
	supply := store.Amount(catalogs.ConcentratT1)
	r.colonists.Each(func(_ entity.ID, c *Colonist) bool {
		if supply <= 0 {
			c.Mood = cfg.clampMood(c.Mood - 1)
			res.Unfed++
			return true
		}
		supply--
		res.Fed++
		c.Mood = cfg.clampMood(c.Mood + cfg.RationMood)
		c.Satiety = min(cfg.SatietyMax, c.Satiety+cfg.RationSatiety)
		return true
	})
	store.WriteOff(catalogs.ConcentratT1, res.Fed)
	return res
}
