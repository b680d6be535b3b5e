package world

import (
	"glavblock.dev/internal/sim/encoding"
	"glavblock.dev/internal/sim/simerr"
)

// stateDigest hashes the canonical encoding of the exported state. The colony
// id and operational rates are left out so a resumed colony keeps digesting
// the same way under a different server config.
func (w *World) stateDigest() string {
	snap := w.ExportSnapshot()
	snap.Header.ColonyID = ""
	snap.TurnRateHz = 0
	snap.SnapshotEveryTurns = 0
	d, err := encoding.Digest(snap)
	if err != nil {
		simerr.Invariant("state digest: %v", err)
	}
	return d
}

// StateDigest is the digest of the current state. Call it from the world
// loop goroutine or while the loop is not running.
func (w *World) StateDigest() string { return w.stateDigest() }
