package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"glavblock.dev/internal/sim/world"
	"glavblock.dev/internal/transport/ws"
)

type httpConfig struct {
	ColonyID    string
	EnableAdmin bool
	EnablePprof bool
}

// newMux wires the HTTP surface. idx and wsSrv may be nil.
func newMux(cfg httpConfig, w *world.World, idx runtimeIndex, wsSrv *ws.Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, cfg.ColonyID, w, idx, wsSrv)
	})

	if cfg.EnableAdmin {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			st, err := w.State(ctx)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusServiceUnavailable)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				State   world.StateView    `json:"state"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				State:   st,
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			turn, err := w.RequestSnapshot(ctx)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "turn": turn, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "turn": turn})
		})
	}
	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	if wsSrv != nil {
		mux.HandleFunc("/v1/ws", wsSrv.Handler())
	}
	return mux
}

// writeMetrics emits the minimal Prometheus exposition format.
func writeMetrics(rw http.ResponseWriter, colony string, w *world.World, idx runtimeIndex, wsSrv *ws.Server) {
	m := w.Metrics()
	turn := w.CurrentTurn()
	if m.Turn != 0 {
		turn = m.Turn
	}

	gauge := func(name, help string, v any) {
		fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE %s gauge\n", name)
		fmt.Fprintf(rw, "%s{colony=%q} %v\n", name, colony, v)
	}

	gauge("glavblock_colony_turn", "Turns completed.", turn)
	gauge("glavblock_colony_colonists", "Living colonists.", m.Colonists)
	gauge("glavblock_colony_rooms", "Rooms in the colony.", m.Rooms)
	gauge("glavblock_colony_containers", "Shelves and barrels in service.", m.Containers)
	gauge("glavblock_colony_stationaries", "Stationaries in any status.", m.Stationaries)
	gauge("glavblock_colony_stationaries_ready", "Stationaries in READY status.", m.Ready)
	gauge("glavblock_colony_tasks", "Open tasks in the queue.", m.Tasks)
	gauge("glavblock_colony_food_units", "Food units in storage.", m.FoodUnits)
	gauge("glavblock_colony_step_ms", "Last turn step duration in milliseconds.", fmt.Sprintf("%.3f", m.StepMS))

	fmt.Fprintf(rw, "# HELP glavblock_colony_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE glavblock_colony_queue_depth gauge\n")
	fmt.Fprintf(rw, "glavblock_colony_queue_depth{colony=%q,queue=%q} %d\n", colony, "commands", m.QueueDepths.Commands)
	fmt.Fprintf(rw, "glavblock_colony_queue_depth{colony=%q,queue=%q} %d\n", colony, "queries", m.QueueDepths.Queries)
	fmt.Fprintf(rw, "glavblock_colony_queue_depth{colony=%q,queue=%q} %d\n", colony, "admin", m.QueueDepths.Admin)

	if wsSrv != nil {
		gauge("glavblock_colony_clients", "Connected websocket sessions.", wsSrv.Clients())
	}
	if idx != nil {
		st := idx.Stats()
		fmt.Fprintf(rw, "# HELP glavblock_index_dropped_total Index writes dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE glavblock_index_dropped_total counter\n")
		fmt.Fprintf(rw, "glavblock_index_dropped_total{colony=%q,kind=%q} %d\n", colony, "turn", st.DropTurnTotal)
		fmt.Fprintf(rw, "glavblock_index_dropped_total{colony=%q,kind=%q} %d\n", colony, "audit", st.DropAuditTotal)
		fmt.Fprintf(rw, "glavblock_index_dropped_total{colony=%q,kind=%q} %d\n", colony, "snapshot", st.DropSnapshotTotal)
		gauge("glavblock_index_queue_depth", "Index writer backlog.", st.QueueDepth)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
