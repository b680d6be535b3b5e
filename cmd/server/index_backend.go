package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"glavblock.dev/internal/persistence/indexdb"
	persistlog "glavblock.dev/internal/persistence/log"
	"glavblock.dev/internal/persistence/snapshot"
	"glavblock.dev/internal/sim/tuning"
	"glavblock.dev/internal/sim/world"
)

type runtimeIndex interface {
	world.TurnLogger
	WriteAudit(entry persistlog.AuditEntry) error
	Close() error
	UpsertCatalogs(tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	Stats() indexdb.Stats
}

func openRuntimeIndex(colonyDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("GLAVBLOCK_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(colonyDir, "index", "colony.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported GLAVBLOCK_INDEX_BACKEND: %s", backend)
	}
}

type multiTurnLogger struct {
	a world.TurnLogger
	b world.TurnLogger
}

func (m multiTurnLogger) WriteTurn(entry world.TurnLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTurn(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTurn(entry)
	}
	return nil
}

type auditWriter interface {
	WriteAudit(entry persistlog.AuditEntry) error
}

type multiAuditLogger struct {
	a auditWriter
	b auditWriter
}

func (m multiAuditLogger) WriteAudit(entry persistlog.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
