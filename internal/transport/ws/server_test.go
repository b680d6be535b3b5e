package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	persistlog "glavblock.dev/internal/persistence/log"
	"glavblock.dev/internal/protocol"
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/tuning"
	"glavblock.dev/internal/sim/world"
)

type memAudit struct {
	mu      sync.Mutex
	entries []persistlog.AuditEntry
}

func (m *memAudit) WriteAudit(e persistlog.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) snapshot() []persistlog.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]persistlog.AuditEntry(nil), m.entries...)
}

type rawMsg struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Code   string          `json:"code"`
	Turn   uint64          `json:"turn"`
	Data   json.RawMessage `json:"data"`
	Digest string          `json:"digest"`
}

func readMsg(t *testing.T, conn *websocket.Conn) rawMsg {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m rawMsg
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return m
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func cmd(id string, c world.Command) protocol.CmdMsg {
	return protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ID: id, Command: c}
}

func TestServer_CommandsAndTurnBroadcast(t *testing.T) {
	w := world.New(world.ConfigFromTuning("ws-test", 1, tuning.Defaults()))
	seed, err := w.SeedColony(tuning.Defaults().Seed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	turns := make(chan world.TurnEvent, 4)
	w.SetTurnSink(turns)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	audit := &memAudit{}
	s := NewServer(w, nil, audit)
	go s.Broadcast(ctx, turns)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"})
	welcome := readMsg(t, conn)
	if welcome.Type != protocol.TypeWelcome || welcome.Turn != 0 {
		t.Fatalf("welcome=%+v", welcome)
	}

	send(t, conn, cmd("b1", world.Command{Op: world.OpStartBuild, Stationary: catalogs.BenchToolT1, Room: seed.Workshop}))
	res := readMsg(t, conn)
	if res.Type != protocol.TypeResult || res.ID != "b1" || !res.OK {
		t.Fatalf("build result=%+v", res)
	}
	var data world.Result
	if err := json.Unmarshal(res.Data, &data); err != nil || data.ID == 0 {
		t.Fatalf("build data=%s err=%v", res.Data, err)
	}

	send(t, conn, cmd("r1", world.Command{Op: world.OpRelocate, Colonist: 99999, Room: seed.Workshop}))
	res = readMsg(t, conn)
	if res.OK || res.Code != protocol.ErrNoSuchUnit {
		t.Fatalf("relocate result=%+v", res)
	}

	// The turn result and the TURN push race; accept either order.
	send(t, conn, cmd("t1", world.Command{Op: world.OpRunTurn}))
	var gotResult, gotTurn bool
	for i := 0; i < 2; i++ {
		m := readMsg(t, conn)
		switch m.Type {
		case protocol.TypeResult:
			if m.ID != "t1" || !m.OK || m.Turn != 1 {
				t.Fatalf("turn result=%+v", m)
			}
			gotResult = true
		case protocol.TypeTurn:
			if m.Turn != 1 || m.Digest == "" {
				t.Fatalf("turn push=%+v", m)
			}
			gotTurn = true
		default:
			t.Fatalf("unexpected %+v", m)
		}
	}
	if !gotResult || !gotTurn {
		t.Fatalf("result=%v turn=%v", gotResult, gotTurn)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"NOPE","protocol_version":"1.0"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	res = readMsg(t, conn)
	if res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("bad type result=%+v", res)
	}

	entries := audit.snapshot()
	if len(entries) != 3 {
		t.Fatalf("audit entries=%+v", entries)
	}
	if entries[0].Op != "START_BUILD" || entries[0].ID == 0 || entries[1].Code != protocol.ErrNoSuchUnit || entries[2].Op != "RUN_TURN" {
		t.Fatalf("audit entries=%+v", entries)
	}
}

func TestServer_RejectsWrongHello(t *testing.T) {
	w := world.New(world.ConfigFromTuning("ws-test", 1, tuning.Defaults()))
	s := NewServer(w, nil, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, map[string]string{"type": "HELLO", "protocol_version": "0.1", "client_name": "old"})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}
