package main

import (
	"path/filepath"
	"strings"
	"testing"

	persistlog "glavblock.dev/internal/persistence/log"
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/tuning"
	"glavblock.dev/internal/sim/world"
)

func founded(t *testing.T) (*world.World, world.SeedReport) {
	t.Helper()
	w := world.New(world.ConfigFromTuning("r", 7, tuning.Defaults()))
	rep, err := w.SeedColony(tuning.Defaults().Seed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return w, rep
}

func recordTurns(t *testing.T, dir string, tamper uint64) []string {
	t.Helper()
	w, rep := founded(t)
	logger := persistlog.NewTurnLogger(dir)
	if tamper == 0 {
		w.SetTurnLogger(logger)
	} else {
		w.SetTurnLogger(tamperLogger{next: logger, turn: tamper})
	}
	w.StepOnce([]world.Command{{Op: world.OpStartBuild, Stationary: catalogs.BenchToolT1, Room: rep.Workshop}})
	w.StepOnce(nil)
	w.StepOnce([]world.Command{{Op: world.OpStartProduction, Recipe: "COMPONENT_T1"}})
	w.StepOnce([]world.Command{{Op: world.OpSpawn, Profession: catalogs.Worker, Tier: catalogs.T1}})
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, err := persistlog.ListFiles(filepath.Join(dir, "turns"), "turns")
	if err != nil || len(files) == 0 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	return files
}

type tamperLogger struct {
	next world.TurnLogger
	turn uint64
}

func (l tamperLogger) WriteTurn(e world.TurnLogEntry) error {
	if e.Turn == l.turn {
		e.Digest = "bogus"
	}
	return l.next.WriteTurn(e)
}

func TestReplayVerifiesEveryTurn(t *testing.T) {
	files := recordTurns(t, t.TempDir(), 0)
	w, _ := founded(t)
	checked, err := replay(w, files, 0, 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 4 || w.CurrentTurn() != 4 {
		t.Fatalf("checked=%d turn=%d", checked, w.CurrentTurn())
	}
}

func TestReplayStopsAtToTurn(t *testing.T) {
	files := recordTurns(t, t.TempDir(), 0)
	w, _ := founded(t)
	checked, err := replay(w, files, 2, 3)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 2 || w.CurrentTurn() != 3 {
		t.Fatalf("checked=%d turn=%d", checked, w.CurrentTurn())
	}
}

func TestReplayDetectsDigestMismatch(t *testing.T) {
	files := recordTurns(t, t.TempDir(), 3)
	w, _ := founded(t)
	_, err := replay(w, files, 0, 0)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch at turn 3") {
		t.Fatalf("err=%v", err)
	}
}
