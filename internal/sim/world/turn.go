package world

import (
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/production"
)

type Stock struct {
	Resource catalogs.Resource `json:"resource"`
	Amount   int               `json:"amount"`
}

type TurnReport struct {
	Turn      uint64              `json:"turn"`
	Completed []entity.ID         `json:"completed,omitempty"`
	Produced  []Stock             `json:"produced,omitempty"`
	Spilled   []Stock             `json:"spilled,omitempty"` // output that found no container
	Promoted  []entity.ID         `json:"promoted,omitempty"`
	Died      []entity.ID         `json:"died,omitempty"`
	Hungry    int                 `json:"hungry"`
	Fed       int                 `json:"fed"`
	Unfed     int                 `json:"unfed"`
	LaborLeft catalogs.BuildPower `json:"labor_left"`
}

// RunTurn advances the colony by one turn. Each phase finishes over every
// entity before the next one starts.
func (w *World) RunTurn() TurnReport {
	rep := TurnReport{Turn: w.turn.Load() + 1}

	w.labor.Recompute(w.roster)

	production.Allocate(w.queue, w.labor, w.works.Equipment())
	rep.LaborLeft = w.labor.Total()

	for _, done := range w.queue.Sweep() {
		rep.Completed = append(rep.Completed, done.ID)
		out := done.Task.Output
		if out == nil {
			continue
		}
		rep.Produced = append(rep.Produced, Stock{Resource: out.Resource, Amount: out.Amount})
		if left := w.storage.Store(out.Resource, out.Amount); left > 0 {
			rep.Spilled = append(rep.Spilled, Stock{Resource: out.Resource, Amount: left})
		}
	}

	rep.Promoted = w.works.Promote()

	hunger := w.roster.HungerTick(w.cfg.Subsistence)
	rep.Died = hunger.Died
	rep.Hungry = hunger.Hungry

	fed := w.roster.Feed(w.cfg.Subsistence, w.storage)
	rep.Fed = fed.Fed
	rep.Unfed = fed.Unfed

	w.turn.Store(rep.Turn)
	return rep
}
