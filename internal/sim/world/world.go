package world

import (
	"sync/atomic"

	"glavblock.dev/internal/persistence/snapshot"
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
	"glavblock.dev/internal/sim/people"
	"glavblock.dev/internal/sim/production"
	"glavblock.dev/internal/sim/rooms"
	"glavblock.dev/internal/sim/storage"
	"glavblock.dev/internal/sim/tuning"
)

type WorldConfig struct {
	ID                 string
	TurnRateHz         float64 // 0 = turns run only on RUN_TURN
	SnapshotEveryTurns int
	Seed               int64
	Subsistence        people.SubsistenceConfig
}

// ConfigFromTuning fills a WorldConfig from a loaded tuning file.
func ConfigFromTuning(id string, seed int64, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                 id,
		TurnRateHz:         t.TurnRateHz,
		SnapshotEveryTurns: t.SnapshotEveryTurns,
		Seed:               seed,
		Subsistence:        t.Subsistence.Config(),
	}
}

type TurnLogger interface {
	WriteTurn(entry TurnLogEntry) error
}

// TurnLogEntry records everything needed to replay one turn on top of the
// previous turn's state.
type TurnLogEntry struct {
	Turn     uint64     `json:"turn"`
	Commands []Command  `json:"commands,omitempty"`
	Report   TurnReport `json:"report"`
	Digest   string     `json:"digest"`
}

// TurnEvent is pushed to the turn sink after every turn.
type TurnEvent struct {
	Report TurnReport `json:"report"`
	Digest string     `json:"digest"`
}

// World is the single-writer colony simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg WorldConfig

	turn atomic.Uint64 // completed turns

	rooms   *rooms.Registry
	storage *storage.Engine
	queue   *production.Queue
	works   *production.Registry
	roster  *people.Roster
	labor   *people.Ledger

	// Commands applied since the last turn, in receive order.
	pending []Command

	cmds    chan commandReq
	queries chan queryReq
	admin   chan adminSnapshotReq
	stop    chan struct{}

	// Optional sinks (may be nil).
	turnLogger   TurnLogger
	snapshotSink chan<- snapshot.SnapshotV1
	turnSink     chan<- TurnEvent

	metrics atomic.Value
}

func New(cfg WorldConfig) *World {
	g := rooms.NewRegistry()
	st := storage.New(g)
	q := production.NewQueue()
	w := &World{
		cfg:     cfg,
		rooms:   g,
		storage: st,
		queue:   q,
		works:   production.NewRegistry(g, st, q),
		roster:  people.NewRoster(g),
		labor:   people.NewLedger(),
		cmds:    make(chan commandReq, 256),
		queries: make(chan queryReq, 64),
		admin:   make(chan adminSnapshotReq, 16),
		stop:    make(chan struct{}),
	}
	w.updateMetrics(0)
	return w
}

func (w *World) SetTurnLogger(l TurnLogger)                    { w.turnLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }
func (w *World) SetTurnSink(ch chan<- TurnEvent)               { w.turnSink = ch }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) CurrentTurn() uint64 { return w.turn.Load() }

func (w *World) TurnRateHz() float64 { return w.cfg.TurnRateHz }

// InstallGerm adds a room of the given purpose.
func (w *World) InstallGerm(tier catalogs.Tier, purpose catalogs.AreaType) entity.ID {
	return w.rooms.InstallGerm(tier, purpose)
}

func (w *World) StartBuild(kind catalogs.StationaryID, room entity.ID, priority int) (entity.ID, error) {
	return w.works.StartBuild(kind, room, priority)
}

func (w *World) StartProduction(recipe string, priority int) (entity.ID, error) {
	return w.works.StartProduction(recipe, priority)
}

// StoreResource returns the amount that did not fit.
func (w *World) StoreResource(r catalogs.Resource, amount int) int {
	return w.storage.Store(r, amount)
}

func (w *World) WriteOffBunch(cost map[catalogs.Resource]int) error {
	return w.storage.WriteOffBunch(cost)
}

func (w *World) WorkforceByProfession() map[catalogs.Profession]int {
	return w.roster.WorkforceByProfession()
}

func (w *World) Inventory() map[catalogs.Resource]int { return w.storage.Inventory() }

func (w *World) newColonist(p catalogs.Profession, t catalogs.Tier, s catalogs.Specialization) people.Colonist {
	return people.Colonist{
		Profession:     p,
		Tier:           t,
		Specialization: s,
		Satiety:        w.cfg.Subsistence.StartSatiety,
		Mood:           w.cfg.Subsistence.StartMood,
	}
}

func (w *World) SpawnColonist(p catalogs.Profession, t catalogs.Tier, s catalogs.Specialization, room entity.ID) (entity.ID, error) {
	return w.roster.Spawn(w.newColonist(p, t, s), room)
}

// SpawnColonistAnywhere settles a colonist in the fullest living room that
// still has space.
func (w *World) SpawnColonistAnywhere(p catalogs.Profession, t catalogs.Tier, s catalogs.Specialization) (entity.ID, error) {
	return w.roster.SpawnAnywhere(w.newColonist(p, t, s))
}

func (w *World) Relocate(colonist, room entity.ID) error {
	return w.roster.Relocate(colonist, room)
}
