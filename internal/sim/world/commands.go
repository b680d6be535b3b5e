package world

import (
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/simerr"
)

type Op string

const (
	OpStartBuild      Op = "START_BUILD"
	OpStartProduction Op = "START_PRODUCTION"
	OpStore           Op = "STORE"
	OpWriteOff        Op = "WRITE_OFF"
	OpInstallGerm     Op = "INSTALL_GERM"
	OpSpawn           Op = "SPAWN"
	OpRelocate        Op = "RELOCATE"
	OpRunTurn         Op = "RUN_TURN"
)

// Command is one externally triggered mutation. Only the fields its Op uses
// are set.
type Command struct {
	Op Op `json:"op"`

	Stationary catalogs.StationaryID `json:"stationary,omitempty"`
	Recipe     string                `json:"recipe,omitempty"`
	Room       entity.ID             `json:"room,omitempty"`
	Priority   int                   `json:"priority,omitempty"`

	Resource catalogs.Resource         `json:"resource,omitempty"`
	Amount   int                       `json:"amount,omitempty"`
	Cost     map[catalogs.Resource]int `json:"cost,omitempty"`

	Colonist       entity.ID               `json:"colonist,omitempty"`
	Profession     catalogs.Profession     `json:"profession,omitempty"`
	Tier           catalogs.Tier           `json:"tier,omitempty"`
	Specialization catalogs.Specialization `json:"specialization,omitempty"`
	AreaType       catalogs.AreaType       `json:"area_type,omitempty"`
}

type Result struct {
	ID       entity.ID   `json:"id,omitempty"`
	Leftover int         `json:"leftover,omitempty"`
	Report   *TurnReport `json:"report,omitempty"`
	Digest   string      `json:"digest,omitempty"`
}

// apply runs a non-turn command against the state and records it for the
// next turn log entry.
func (w *World) apply(c Command) (Result, error) {
	w.pending = append(w.pending, c)

	switch c.Op {
	case OpStartBuild:
		id, err := w.StartBuild(c.Stationary, c.Room, c.Priority)
		return Result{ID: id}, err
	case OpStartProduction:
		id, err := w.StartProduction(c.Recipe, c.Priority)
		return Result{ID: id}, err
	case OpStore:
		if !c.Resource.Valid() {
			return Result{}, simerr.New(simerr.BadRequest, "bad resource %v", c.Resource)
		}
		return Result{Leftover: w.StoreResource(c.Resource, c.Amount)}, nil
	case OpWriteOff:
		for r, n := range c.Cost {
			if !r.Valid() || n < 0 {
				return Result{}, simerr.New(simerr.BadRequest, "bad write-off entry %v=%d", r, n)
			}
		}
		return Result{}, w.WriteOffBunch(c.Cost)
	case OpInstallGerm:
		if !c.Tier.Valid() || c.AreaType == 0 {
			return Result{}, simerr.New(simerr.BadRequest, "germ tier=%v area=%v", c.Tier, c.AreaType)
		}
		return Result{ID: w.InstallGerm(c.Tier, c.AreaType)}, nil
	case OpSpawn:
		if c.Room == 0 {
			id, err := w.SpawnColonistAnywhere(c.Profession, c.Tier, c.Specialization)
			return Result{ID: id}, err
		}
		id, err := w.SpawnColonist(c.Profession, c.Tier, c.Specialization, c.Room)
		return Result{ID: id}, err
	case OpRelocate:
		return Result{}, w.Relocate(c.Colonist, c.Room)
	}
	return Result{}, simerr.New(simerr.BadRequest, "unknown op %q", c.Op)
}
