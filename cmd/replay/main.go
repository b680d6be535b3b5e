package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	persistlog "glavblock.dev/internal/persistence/log"
	"glavblock.dev/internal/persistence/snapshot"
	"glavblock.dev/internal/sim/tuning"
	"glavblock.dev/internal/sim/world"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst (empty replays from a freshly founded colony)")
		turnsDir   = flag.String("turns", "", "dir containing turns-*.jsonl.zst")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning used to found the colony (without --snapshot)")
		colonyID   = flag.String("colony", "glavblock", "colony id (without --snapshot)")
		seed       = flag.Int64("seed", 1337, "rng seed the colony was founded with (without --snapshot)")
		fromTurn   = flag.Uint64("from-turn", 0, "start verifying from turn (inclusive, optional)")
		toTurn     = flag.Uint64("to-turn", 0, "stop at turn (inclusive, optional)")
	)
	flag.Parse()

	var w *world.World
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fail("read snapshot:", err)
		}
		fmt.Printf("snapshot v%d colony=%s turn=%d rooms=%d containers=%d stationaries=%d tasks=%d colonists=%d\n",
			snap.Header.Version, snap.Header.ColonyID, snap.Header.Turn,
			len(snap.Rooms), len(snap.Containers), len(snap.Stationaries), len(snap.Tasks), len(snap.Colonists))

		w = world.New(world.WorldConfig{
			ID:                 snap.Header.ColonyID,
			TurnRateHz:         snap.TurnRateHz,
			SnapshotEveryTurns: snap.SnapshotEveryTurns,
		})
		if err := w.ImportSnapshot(snap); err != nil {
			fail("import snapshot:", err)
		}
	} else {
		tune, err := tuning.Load(*tuningPath)
		if err != nil {
			fail("load tuning:", err)
		}
		w = world.New(world.ConfigFromTuning(*colonyID, *seed, tune))
		if _, err := w.SeedColony(tune.Seed); err != nil {
			fail("seed colony:", err)
		}
	}

	if *turnsDir == "" {
		return
	}
	files, err := persistlog.ListFiles(*turnsDir, "turns")
	if err != nil {
		fail("list turns:", err)
	}
	if len(files) == 0 {
		fail("no turn files found in", errors.New(*turnsDir))
	}

	start := w.CurrentTurn()
	checked, err := replay(w, files, *fromTurn, *toTurn)
	if err != nil {
		fail("replay:", err)
	}
	fmt.Printf("replay ok: checked=%d turns (from turn=%d, now=%d)\n", checked, start, w.CurrentTurn())
}

func fail(msg string, err error) {
	fmt.Fprintln(os.Stderr, msg, err)
	os.Exit(1)
}

var errDone = errors.New("done")

// replay steps w through every logged turn after its current turn, checking
// each digest from verifyFrom on. It stops after toTurn when that is set.
func replay(w *world.World, files []string, verifyFrom, toTurn uint64) (uint64, error) {
	var checked uint64
	start := w.CurrentTurn()
	for _, path := range files {
		err := persistlog.ReadTurns(path, func(entry world.TurnLogEntry) error {
			if entry.Turn <= start {
				return nil
			}
			if toTurn != 0 && entry.Turn > toTurn {
				return errDone
			}
			if want := w.CurrentTurn() + 1; entry.Turn != want {
				return fmt.Errorf("turn gap: want=%d got=%d (file=%s)", want, entry.Turn, filepath.Base(path))
			}
			rep, digest := w.StepOnce(entry.Commands)
			if rep.Turn != entry.Turn {
				return fmt.Errorf("internal turn mismatch: stepped=%d entry=%d", rep.Turn, entry.Turn)
			}
			if rep.Turn >= verifyFrom {
				checked++
				if digest != entry.Digest {
					return fmt.Errorf("digest mismatch at turn %d: got=%s want=%s", rep.Turn, digest, entry.Digest)
				}
			}
			return nil
		})
		if errors.Is(err, errDone) {
			break
		}
		if err != nil {
			return checked, err
		}
	}
	return checked, nil
}
