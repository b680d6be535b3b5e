package world

import (
	"time"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/production"
)

// WorldMetrics is a thread-safe read-only view of key colony signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Turn uint64 `json:"turn"`

	Colonists    int `json:"colonists"`
	Rooms        int `json:"rooms"`
	Containers   int `json:"containers"`
	Stationaries int `json:"stationaries"`
	Ready        int `json:"stationaries_ready"`
	Tasks        int `json:"tasks"`

	FoodUnits int `json:"food_units"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Commands int `json:"commands"`
	Queries  int `json:"queries"`
	Admin    int `json:"admin"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, _ := w.metrics.Load().(WorldMetrics)
	return m
}

func (w *World) updateMetrics(step time.Duration) {
	ready := 0
	w.works.Each(func(_ entity.ID, s *production.Stationary) bool {
		if s.Status == production.Ready {
			ready++
		}
		return true
	})
	w.metrics.Store(WorldMetrics{
		Turn:         w.turn.Load(),
		Colonists:    w.roster.Len(),
		Rooms:        w.rooms.Len(),
		Containers:   w.storage.Len(),
		Stationaries: w.works.Len(),
		Ready:        ready,
		Tasks:        w.queue.Len(),
		FoodUnits:    w.storage.Amount(catalogs.ConcentratT1),
		QueueDepths: QueueDepths{
			Commands: len(w.cmds),
			Queries:  len(w.queries),
			Admin:    len(w.admin),
		},
		StepMS: float64(step.Microseconds()) / 1000,
	})
}
