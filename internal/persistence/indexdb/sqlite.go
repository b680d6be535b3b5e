package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	persistlog "glavblock.dev/internal/persistence/log"
	"glavblock.dev/internal/persistence/snapshot"
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/tuning"
	"glavblock.dev/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the turn log, the audit
// log and the snapshot directory. The JSONL logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTurn     atomic.Uint64
	dropAudit    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTurn reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	turn     world.TurnLogEntry
	audit    persistlog.AuditEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Turn         uint64
	Path         string
	Rooms        int
	Containers   int
	Stationaries int
	Tasks        int
	Colonists    int
}

// Stats reports writer queue pressure.
type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropTurnTotal     uint64 `json:"drop_turn_total"`
	DropAuditTotal    uint64 `json:"drop_audit_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			turn INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			commands INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			promoted INTEGER NOT NULL,
			died INTEGER NOT NULL,
			fed INTEGER NOT NULL,
			unfed INTEGER NOT NULL,
			labor_left INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			turn INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			op TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (turn, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_op_turn ON commands(op, turn);`,
		`CREATE TABLE IF NOT EXISTS audits (
			turn INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			client TEXT NOT NULL,
			op TEXT NOT NULL,
			code TEXT,
			entity_id INTEGER,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (turn, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_client_turn ON audits(client, turn);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			turn INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			rooms INTEGER NOT NULL,
			containers INTEGER NOT NULL,
			stationaries INTEGER NOT NULL,
			tasks INTEGER NOT NULL,
			colonists INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTurnTotal:     s.dropTurn.Load(),
		DropAuditTotal:    s.dropAudit.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// WriteTurn satisfies world.TurnLogger.
func (s *SQLiteIndex) WriteTurn(entry world.TurnLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTurn, turn: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropTurn.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry persistlog.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Turn:         snap.Header.Turn,
		Path:         path,
		Rooms:        len(snap.Rooms),
		Containers:   len(snap.Containers),
		Stationaries: len(snap.Stationaries),
		Tasks:        len(snap.Tasks),
		Colonists:    len(snap.Colonists),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

type stationaryRow struct {
	catalogs.StationaryDef
	Kind string `json:"kind"`
}

// UpsertCatalogs stores the static tables and the applied tuning so the
// index can be queried without the server binary.
func (s *SQLiteIndex) UpsertCatalogs(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	digest := catalogs.Digest()

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	{
		res := catalogs.AllResources()
		if b, _ := json.Marshal(res); len(b) > 0 {
			rows = append(rows, kv{name: "resources", digest: digest, json: b})
		}
	}
	{
		ids := catalogs.AllStationaries()
		defs := make([]stationaryRow, 0, len(ids))
		for _, id := range ids {
			def, _ := catalogs.Lookup(id)
			defs = append(defs, stationaryRow{StationaryDef: def, Kind: id.Kind.String()})
		}
		if b, _ := json.Marshal(defs); len(b) > 0 {
			rows = append(rows, kv{name: "stationaries", digest: digest, json: b})
		}
	}
	{
		ids := catalogs.RecipeIDs()
		defs := make([]catalogs.RecipeDef, 0, len(ids))
		for _, id := range ids {
			def, _ := catalogs.Recipe(id)
			defs = append(defs, def)
		}
		if b, _ := json.Marshal(defs); len(b) > 0 {
			rows = append(rows, kv{name: "recipes", digest: digest, json: b})
		}
	}

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('catalogs_digest',?)`, digest); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	prep := func(q string) *sql.Stmt {
		st, err := s.db.PrepareContext(ctx, q)
		if err != nil {
			return nil
		}
		return st
	}
	insertTurn := prep(`INSERT OR REPLACE INTO turns(turn,digest,commands,completed,promoted,died,fed,unfed,labor_left,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertCommand := prep(`INSERT OR REPLACE INTO commands(turn,seq,op,raw_json) VALUES(?,?,?,?)`)
	insertAudit := prep(`INSERT OR REPLACE INTO audits(turn,seq,client,op,code,entity_id,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertSnapshot := prep(`INSERT OR REPLACE INTO snapshots(turn,path,rooms,containers,stationaries,tasks,colonists) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTurn, insertCommand, insertAudit, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second

		auditTurn   uint64
		auditSeq    int
		auditSeeded bool
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	end := func(commit bool) {
		if tx == nil {
			return
		}
		if commit {
			_ = tx.Commit()
		} else {
			_ = tx.Rollback()
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		// Drain bursts into one transaction, but never leave rows uncommitted
		// once the queue goes idle.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			end(true)
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTurn:
			e := r.turn
			b, _ := json.Marshal(e)
			if insertTurn != nil {
				if _, err := tx.Stmt(insertTurn).Exec(
					int64(e.Turn),
					e.Digest,
					len(e.Commands),
					len(e.Report.Completed),
					len(e.Report.Promoted),
					len(e.Report.Died),
					e.Report.Fed,
					e.Report.Unfed,
					int64(e.Report.LaborLeft),
					string(b),
				); err != nil {
					end(false)
					continue
				}
				opCount++
			}
			for i, c := range e.Commands {
				if insertCommand == nil {
					break
				}
				raw, _ := json.Marshal(c)
				if _, err := tx.Stmt(insertCommand).Exec(int64(e.Turn), i, string(c.Op), string(raw)); err != nil {
					end(false)
					break
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			if !auditSeeded || a.Turn != auditTurn {
				// Continue after rows an earlier process wrote for this turn.
				var next int
				if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq)+1, 0) FROM audits WHERE turn=?`, int64(a.Turn)).Scan(&next); err != nil {
					end(false)
					continue
				}
				auditTurn, auditSeq, auditSeeded = a.Turn, next, true
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					int64(a.Turn),
					seq,
					a.Client,
					a.Op,
					a.Code,
					int64(a.ID),
					string(raw),
				); err != nil {
					end(false)
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					int64(sn.Turn),
					sn.Path,
					sn.Rooms,
					sn.Containers,
					sn.Stationaries,
					sn.Tasks,
					sn.Colonists,
				); err != nil {
					end(false)
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	end(true)
}
