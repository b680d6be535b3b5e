package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version  int    `json:"version"`
	ColonyID string `json:"colony_id"`
	Turn     uint64 `json:"turn"`
}

// SnapshotV1 is the full colony state after a turn. Records carry plain
// integers so the file stays readable by older catalog builds.
type SnapshotV1 struct {
	Header Header `json:"header"`

	CatalogsDigest string `json:"catalogs_digest"`

	// Operational parameters (captured for deterministic replay/resume).
	TurnRateHz         float64       `json:"turn_rate_hz"`
	SnapshotEveryTurns int           `json:"snapshot_every_turns"`
	Subsistence        SubsistenceV1 `json:"subsistence"`

	Counters     CountersV1     `json:"counters"`
	Rooms        []RoomV1       `json:"rooms"`
	Containers   []ContainerV1  `json:"containers"`
	Stationaries []StationaryV1 `json:"stationaries"`
	Tasks        []TaskV1       `json:"tasks"`
	Colonists    []ColonistV1   `json:"colonists"`
}

type SubsistenceV1 struct {
	SatietyDecay    int `json:"satiety_decay"`
	LethalSatiety   int `json:"lethal_satiety"`
	HungerThreshold int `json:"hunger_threshold"`
	SatietyMax      int `json:"satiety_max"`
	RationSatiety   int `json:"ration_satiety"`
	RationMood      int `json:"ration_mood"`
	MoodMin         int `json:"mood_min"`
	MoodMax         int `json:"mood_max"`
	StartSatiety    int `json:"start_satiety"`
	StartMood       int `json:"start_mood"`
}

// CountersV1 holds the last allocated id of every entity store so ids are
// never reused after a resume.
type CountersV1 struct {
	Rooms        uint64 `json:"rooms"`
	Containers   uint64 `json:"containers"`
	Stationaries uint64 `json:"stationaries"`
	Tasks        uint64 `json:"tasks"`
	Colonists    uint64 `json:"colonists"`
}

type RoomV1 struct {
	ID       uint64 `json:"id"`
	Type     uint8  `json:"type"`
	Tier     uint8  `json:"tier"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
}

type ContainerV1 struct {
	ID           uint64 `json:"id"`
	Kind         uint8  `json:"kind"`
	ResourceKind uint8  `json:"resource_kind,omitempty"`
	ResourceTier uint8  `json:"resource_tier,omitempty"`
	Tagged       bool   `json:"tagged"`
	Occupied     int    `json:"occupied"`
	Room         uint64 `json:"room,omitempty"`
}

type StationaryV1 struct {
	ID     uint64 `json:"id"`
	Kind   uint8  `json:"kind"`
	Tier   uint8  `json:"tier"`
	Room   uint64 `json:"room"`
	Status uint8  `json:"status"`
}

type TaskV1 struct {
	ID             uint64    `json:"id"`
	Priority       int       `json:"priority"`
	Profession     uint8     `json:"profession"`
	Tier           uint8     `json:"tier"`
	Remaining      int       `json:"remaining"`
	StationaryKind uint8     `json:"stationary_kind,omitempty"`
	StationaryTier uint8     `json:"stationary_tier,omitempty"`
	Specialization uint8     `json:"specialization,omitempty"`
	BelongsTo      uint64    `json:"belongs_to,omitempty"`
	Output         *OutputV1 `json:"output,omitempty"`
}

type OutputV1 struct {
	Recipe       string `json:"recipe"`
	ResourceKind uint8  `json:"resource_kind"`
	ResourceTier uint8  `json:"resource_tier"`
	Amount       int    `json:"amount"`
}

type ColonistV1 struct {
	ID             uint64 `json:"id"`
	Profession     uint8  `json:"profession"`
	Tier           uint8  `json:"tier"`
	Specialization uint8  `json:"specialization,omitempty"`
	Room           uint64 `json:"room"`
	Satiety        int    `json:"satiety"`
	Mood           int    `json:"mood"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader decodes only the leading JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob payload repeats the header.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d not supported", snap.Header.Version)
	}
	return snap, nil
}

// Latest returns the snapshot with the highest turn in dir, or "" when the
// directory holds none.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.snap.zst"))
	if err != nil {
		return "", err
	}
	best, bestTurn := "", uint64(0)
	for _, p := range matches {
		h, err := ReadHeader(p)
		if err != nil {
			continue
		}
		if best == "" || h.Turn > bestTurn {
			best, bestTurn = p, h.Turn
		}
	}
	return best, nil
}

// PathFor is the canonical file name of a snapshot taken after turn.
func PathFor(dir string, turn uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%012d.snap.zst", turn))
}
