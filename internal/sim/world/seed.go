package world

import (
	"fmt"
	"math/rand"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/tuning"
)

const livingCells = 33

// squad1Zh is the rank-and-file of the founding barracks squad: four fire
// teams of Likvidators under one T2 sergeant.
var squad1Zh = []int{5, 4, 2, 2}

type SeedReport struct {
	Barracks  entity.ID `json:"barracks"`
	Workshop  entity.ID `json:"workshop"`
	Stockroom entity.ID `json:"stockroom"`
	Lab       entity.ID `json:"lab"`
	Spilled   []Stock   `json:"spilled,omitempty"`
}

// SeedColony builds the founding colony: barracks with squad 1-Zh, a
// workshop, a party stockroom, a science room, one scientist cell, 33 worker
// cells and the starting stock.
func (w *World) SeedColony(seed tuning.Seed) (SeedReport, error) {
	var rep SeedReport
	if w.rooms.Len() != 0 || w.roster.Len() != 0 {
		return rep, fmt.Errorf("seed: colony already populated")
	}
	stock, err := seed.Resources()
	if err != nil {
		return rep, err
	}
	rng := rand.New(rand.NewSource(w.cfg.Seed))

	rep.Barracks = w.InstallGerm(catalogs.T2, catalogs.Military)
	if _, err := w.SpawnColonist(catalogs.Likvidator, catalogs.T2, catalogs.SpecOLPS, rep.Barracks); err != nil {
		return rep, fmt.Errorf("seed sergeant: %w", err)
	}
	for _, n := range squad1Zh {
		for i := 0; i < n; i++ {
			if _, err := w.SpawnColonist(catalogs.Likvidator, catalogs.T1, catalogs.SpecOLPS, rep.Barracks); err != nil {
				return rep, fmt.Errorf("seed squad: %w", err)
			}
		}
	}

	rep.Workshop = w.InstallGerm(catalogs.T2, catalogs.Industrial)
	rep.Stockroom = w.InstallGerm(catalogs.T2, catalogs.PartyArea)
	rep.Lab = w.InstallGerm(catalogs.T1, catalogs.Science)

	sciCell := w.InstallGerm(catalogs.T1, catalogs.Living)
	inst := catalogs.ResearchInstitutes[rng.Intn(len(catalogs.ResearchInstitutes))]
	if _, err := w.SpawnColonist(catalogs.Scientist, catalogs.T1, inst, sciCell); err != nil {
		return rep, fmt.Errorf("seed scientist: %w", err)
	}

	for c := 0; c < livingCells; c++ {
		cell := w.InstallGerm(catalogs.T1, catalogs.Living)
		for i := 0; i < 3; i++ {
			if _, err := w.SpawnColonist(catalogs.Worker, catalogs.T1, catalogs.SpecNone, cell); err != nil {
				return rep, fmt.Errorf("seed workers: %w", err)
			}
		}
	}

	w.storage.AddShelves(seed.Shelves)
	w.storage.AddBarrels(seed.Barrels)
	for _, s := range stock {
		if left := w.storage.Store(s.Resource, s.Amount); left > 0 {
			rep.Spilled = append(rep.Spilled, Stock{Resource: s.Resource, Amount: left})
		}
	}
	w.updateMetrics(0)
	return rep, nil
}
