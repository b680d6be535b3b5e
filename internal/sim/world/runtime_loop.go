package world

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var ErrStopped = errors.New("world stopped")

const (
	reqQueued uint32 = iota
	reqTaken
	reqWithdrawn
)

// commandReq.State moves from reqQueued to either reqTaken (the loop applies
// it) or reqWithdrawn (the submitter gave up first). Exactly one side wins.
type commandReq struct {
	Cmd   Command
	Resp  chan commandResp
	State *atomic.Uint32
}

type commandResp struct {
	Result Result
	Err    error
}

type queryReq struct {
	Fn   func()
	Done chan struct{}
}

func (w *World) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if w.cfg.TurnRateHz > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / w.cfg.TurnRateHz))
		defer ticker.Stop()
		tick = ticker.C
	}

	var pendingAdmin []adminSnapshotReq
	w.updateMetrics(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.cmds:
			if !req.State.CompareAndSwap(reqQueued, reqTaken) {
				continue
			}
			if req.Cmd.Op != OpRunTurn {
				res, err := w.apply(req.Cmd)
				req.Resp <- commandResp{Result: res, Err: err}
				continue
			}
			rep, digest := w.step()
			w.handleAdminSnapshotRequests(pendingAdmin)
			pendingAdmin = pendingAdmin[:0]
			req.Resp <- commandResp{Result: Result{Report: &rep, Digest: digest}}
		case req := <-w.queries:
			req.Fn()
			close(req.Done)
		case req := <-w.admin:
			// Snapshots are cut at turn boundaries only.
			if len(w.pending) == 0 {
				w.handleAdminSnapshotRequests([]adminSnapshotReq{req})
			} else {
				pendingAdmin = append(pendingAdmin, req)
			}
		case <-tick:
			w.step()
			w.handleAdminSnapshotRequests(pendingAdmin)
			pendingAdmin = pendingAdmin[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Submit hands a command to the world loop and waits for its result.
// It is safe to call from other goroutines. An error from ctx or ErrStopped
// means the command was not applied; once the loop has picked the command up
// Submit waits for its result even if ctx ends.
func (w *World) Submit(ctx context.Context, c Command) (Result, error) {
	req := commandReq{Cmd: c, Resp: make(chan commandResp, 1), State: new(atomic.Uint32)}
	select {
	case w.cmds <- req:
	case <-w.stop:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case r := <-req.Resp:
		return r.Result, r.Err
	case <-w.stop:
		if req.State.CompareAndSwap(reqQueued, reqWithdrawn) {
			return Result{}, ErrStopped
		}
	case <-ctx.Done():
		if req.State.CompareAndSwap(reqQueued, reqWithdrawn) {
			return Result{}, ctx.Err()
		}
	}
	r := <-req.Resp
	return r.Result, r.Err
}

// query runs fn on the world loop goroutine between commands and turns.
func (w *World) query(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case w.queries <- queryReq{Fn: fn, Done: done}:
	case <-w.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StepOnce applies cmds in order and runs one turn, with the same ordering
// the loop uses. It is intended for replays and tests and must not be called
// while Run is active.
func (w *World) StepOnce(cmds []Command) (TurnReport, string) {
	for _, c := range cmds {
		_, _ = w.apply(c)
	}
	return w.step()
}

func (w *World) step() (TurnReport, string) {
	start := time.Now()
	cmds := w.pending
	w.pending = nil

	rep := w.RunTurn()
	digest := w.stateDigest()

	if w.turnLogger != nil {
		_ = w.turnLogger.WriteTurn(TurnLogEntry{Turn: rep.Turn, Commands: cmds, Report: rep, Digest: digest})
	}
	if w.snapshotSink != nil && w.cfg.SnapshotEveryTurns > 0 && rep.Turn%uint64(w.cfg.SnapshotEveryTurns) == 0 {
		snap := w.ExportSnapshot()
		select {
		case w.snapshotSink <- snap:
		default:
		}
	}
	if w.turnSink != nil {
		select {
		case w.turnSink <- TurnEvent{Report: rep, Digest: digest}:
		default:
		}
	}

	w.updateMetrics(time.Since(start))
	return rep, digest
}
