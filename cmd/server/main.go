package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"glavblock.dev/internal/persistence/archive"
	persistlog "glavblock.dev/internal/persistence/log"
	"glavblock.dev/internal/persistence/snapshot"
	"glavblock.dev/internal/sim/encoding"
	"glavblock.dev/internal/sim/tuning"
	"glavblock.dev/internal/sim/world"
	"glavblock.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		colonyID   = flag.String("colony", "glavblock", "colony id")
		seed       = flag.Int64("seed", 1337, "rng seed (used only when founding a fresh colony)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable-db", false, "disable the sqlite index (turns, audits, snapshots, catalogs)")

		snapPath      = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest    = flag.Bool("load-latest-snapshot", true, "load latest snapshot from the data dir if present (when --snapshot is empty)")
		keepSnapshots = flag.Int("keep-snapshots", 48, "rolling snapshots kept on disk (0 keeps all)")
		epochTurns    = flag.Uint64("archive-every", 1000, "archive the snapshot every N turns (0 disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	colonyDir := filepath.Join(*dataDir, "colonies", *colonyID)
	snapDir := filepath.Join(colonyDir, "snapshots")
	_ = os.MkdirAll(colonyDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		p, err := snapshot.Latest(snapDir)
		if err != nil {
			logger.Fatalf("scan snapshots: %v", err)
		}
		snapshotToLoad = p
	}

	// Tuning is required for a fresh colony; a resume carries its own.
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad == "" || !os.IsNotExist(tuneErr) {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	tuneDigest, _ := encoding.Digest(tune)

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(colonyDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.ColonyID != "" && snap.Header.ColonyID != *colonyID {
			logger.Fatalf("snapshot colony id mismatch: flag=%s snap=%s", *colonyID, snap.Header.ColonyID)
		}
		cfg := world.ConfigFromTuning(*colonyID, *seed, tune)
		cfg.TurnRateHz = snap.TurnRateHz
		cfg.SnapshotEveryTurns = snap.SnapshotEveryTurns
		w = world.New(cfg)
		if err := w.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s turn=%d", filepath.Base(snapshotToLoad), w.CurrentTurn())
	} else {
		w = world.New(world.ConfigFromTuning(*colonyID, *seed, tune))
		rep, err := w.SeedColony(tune.Seed)
		if err != nil {
			logger.Fatalf("seed colony: %v", err)
		}
		for _, s := range rep.Spilled {
			logger.Printf("seed: %d %s found no container", s.Amount, s.Resource)
		}
		logger.Printf("founded colony %s (barracks=%d workshop=%d lab=%d)", *colonyID, rep.Barracks, rep.Workshop, rep.Lab)
	}

	ctx, cancel := signalContext()
	defer cancel()

	turnLog := persistlog.NewTurnLogger(colonyDir)
	auditLog := persistlog.NewAuditLogger(colonyDir)
	defer turnLog.Close()
	defer auditLog.Close()
	w.SetTurnLogger(multiTurnLogger{a: turnLog, b: idx})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := snapshot.PathFor(snapDir, snap.Header.Turn)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				if epoch, _, ok, err := archive.ArchiveEpoch(colonyDir, path, snap, *epochTurns); err != nil {
					logger.Printf("archive epoch snapshot: %v", err)
				} else if ok {
					logger.Printf("archived epoch %d at turn %d", epoch, snap.Header.Turn)
				}
				if _, err := archive.Prune(snapDir, *keepSnapshots); err != nil {
					logger.Printf("prune snapshots: %v", err)
				}
			}
		}
	}()

	turns := make(chan world.TurnEvent, 16)
	w.SetTurnSink(turns)

	wsSrv := ws.NewServer(w, logger, multiAuditLogger{a: auditLog, b: idx})
	wsSrv.TuningDigest = tuneDigest
	go wsSrv.Broadcast(ctx, turns)

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	enableAdmin := envBool("GLAVBLOCK_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprof := envBool("GLAVBLOCK_ENABLE_PPROF_HTTP", false)
	if !enableAdmin {
		logger.Printf("admin endpoints disabled (GLAVBLOCK_ENABLE_ADMIN_HTTP=false)")
	}
	mux := newMux(httpConfig{ColonyID: *colonyID, EnableAdmin: enableAdmin, EnablePprof: enablePprof}, w, idx, wsSrv)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (turn_rate_hz=%g, turn=%d)", *addr, w.TurnRateHz(), w.CurrentTurn())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}
