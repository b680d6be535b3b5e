package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"glavblock.dev/internal/persistence/snapshot"
)

type EpochMeta struct {
	Epoch          int    `json:"epoch"`
	Turn           uint64 `json:"turn"`
	ColonyID       string `json:"colony_id"`
	CatalogsDigest string `json:"catalogs_digest"`
	Snapshot       string `json:"snapshot"`
	Colonists      int    `json:"colonists"`
	Stationaries   int    `json:"stationaries"`
	CreatedAt      string `json:"created_at"`
}

// ArchiveEpoch copies the snapshot taken at an epoch boundary into
// `colonyDir/archives/epoch_<NNN>/`. Archived snapshots are never pruned.
// Returns archived=false when the snapshot is not on a boundary.
func ArchiveEpoch(colonyDir, snapshotPath string, snap snapshot.SnapshotV1, epochTurns uint64) (epoch int, archivedPath string, archived bool, err error) {
	if epochTurns == 0 || snap.Header.Turn == 0 || snap.Header.Turn%epochTurns != 0 {
		return 0, "", false, nil
	}
	epoch = int(snap.Header.Turn / epochTurns)

	archiveDir := filepath.Join(colonyDir, "archives", fmt.Sprintf("epoch_%03d", epoch))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return 0, "", false, err
	}

	meta := EpochMeta{
		Epoch:          epoch,
		Turn:           snap.Header.Turn,
		ColonyID:       snap.Header.ColonyID,
		CatalogsDigest: snap.CatalogsDigest,
		Snapshot:       filepath.Base(dst),
		Colonists:      len(snap.Colonists),
		Stationaries:   len(snap.Stationaries),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return epoch, dst, true, nil
}

// Prune removes all but the newest keep snapshots in dir. File names sort by
// turn because snapshot.PathFor zero-pads them.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.snap.zst"))
	if err != nil {
		return nil, err
	}
	if len(matches) <= keep {
		return nil, nil
	}
	sort.Strings(matches)
	stale := matches[:len(matches)-keep]
	var removed []string
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
