package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	persistlog "glavblock.dev/internal/persistence/log"
	"glavblock.dev/internal/persistence/snapshot"
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/tuning"
	"glavblock.dev/internal/sim/world"
)

func TestSQLiteIndex_RecordsTurnsAuditsSnapshots(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.UpsertCatalogs(tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}

	_ = idx.WriteTurn(world.TurnLogEntry{
		Turn: 1,
		Commands: []world.Command{
			{Op: world.OpStartBuild, Stationary: catalogs.BenchToolT1, Room: 3},
			{Op: world.OpRunTurn},
		},
		Report: world.TurnReport{Turn: 1, Fed: 114, LaborLeft: 1150},
		Digest: "abc",
	})
	_ = idx.WriteAudit(persistlog.AuditEntry{Turn: 0, Client: "c1", Op: "START_BUILD", ID: 40})
	_ = idx.WriteAudit(persistlog.AuditEntry{Turn: 0, Client: "c1", Op: "SPAWN", Code: "E_NO_EMPTY_TILES"})
	idx.RecordSnapshot("/tmp/000000000001.snap.zst", snapshot.SnapshotV1{
		Header:    snapshot.Header{Version: snapshot.Version, Turn: 1},
		Rooms:     make([]snapshot.RoomV1, 38),
		Colonists: make([]snapshot.ColonistV1, 114),
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var digest string
	var cmds, fed, labor int
	if err := db.QueryRow(`SELECT digest, commands, fed, labor_left FROM turns WHERE turn=1`).Scan(&digest, &cmds, &fed, &labor); err != nil {
		t.Fatalf("turn row: %v", err)
	}
	if digest != "abc" || cmds != 2 || fed != 114 || labor != 1150 {
		t.Fatalf("turn row = %q %d %d %d", digest, cmds, fed, labor)
	}

	var op string
	if err := db.QueryRow(`SELECT op FROM commands WHERE turn=1 AND seq=1`).Scan(&op); err != nil {
		t.Fatalf("command row: %v", err)
	}
	if op != "RUN_TURN" {
		t.Fatalf("op=%q", op)
	}

	var audits int
	if err := db.QueryRow(`SELECT COUNT(*) FROM audits WHERE client='c1'`).Scan(&audits); err != nil {
		t.Fatalf("audits: %v", err)
	}
	if audits != 2 {
		t.Fatalf("audits=%d want 2", audits)
	}

	var rooms, colonists int
	if err := db.QueryRow(`SELECT rooms, colonists FROM snapshots WHERE turn=1`).Scan(&rooms, &colonists); err != nil {
		t.Fatalf("snapshot row: %v", err)
	}
	if rooms != 38 || colonists != 114 {
		t.Fatalf("snapshot row = %d %d", rooms, colonists)
	}

	var catDigest string
	if err := db.QueryRow(`SELECT digest FROM catalogs WHERE name='stationaries'`).Scan(&catDigest); err != nil {
		t.Fatalf("catalog row: %v", err)
	}
	if catDigest != catalogs.Digest() {
		t.Fatalf("catalog digest mismatch")
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTurn, turn: world.TurnLogEntry{Turn: 1}}

	_ = s.WriteTurn(world.TurnLogEntry{Turn: 2})
	_ = s.WriteAudit(persistlog.AuditEntry{Turn: 2})
	s.RecordSnapshot("/tmp/2.snap.zst", snapshot.SnapshotV1{})

	st := s.Stats()
	if st.DropTurnTotal != 1 || st.DropAuditTotal != 1 || st.DropSnapshotTotal != 1 {
		t.Fatalf("drops = %+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_AuditSeqSurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.sqlite")
	for run, ops := range [][]string{{"STORE", "SPAWN"}, {"RELOCATE"}} {
		idx, err := OpenSQLite(dbPath)
		if err != nil {
			t.Fatalf("open run %d: %v", run, err)
		}
		for _, op := range ops {
			_ = idx.WriteAudit(persistlog.AuditEntry{Turn: 5, Client: "S1", Op: op})
		}
		if err := idx.Close(); err != nil {
			t.Fatalf("close run %d: %v", run, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var n, maxSeq int
	if err := db.QueryRow(`SELECT COUNT(*), MAX(seq) FROM audits WHERE turn=5`).Scan(&n, &maxSeq); err != nil {
		t.Fatalf("audits: %v", err)
	}
	if n != 3 || maxSeq != 2 {
		t.Fatalf("audits=%d max seq=%d, want 3 and 2", n, maxSeq)
	}
	var op string
	if err := db.QueryRow(`SELECT op FROM audits WHERE turn=5 AND seq=0`).Scan(&op); err != nil {
		t.Fatalf("first audit: %v", err)
	}
	if op != "STORE" {
		t.Fatalf("first audit overwritten: op=%q", op)
	}
}
