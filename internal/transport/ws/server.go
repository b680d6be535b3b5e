package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	persistlog "glavblock.dev/internal/persistence/log"
	"glavblock.dev/internal/protocol"
	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/world"
)

// AuditWriter receives one entry per CMD handled.
type AuditWriter interface {
	WriteAudit(entry persistlog.AuditEntry) error
}

type Server struct {
	world *world.World
	log   *log.Logger
	audit AuditWriter

	TuningDigest   string
	CommandTimeout time.Duration

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	nextID  atomic.Uint64
}

type client struct {
	session string
	name    string
	out     chan []byte
}

func NewServer(w *world.World, logger *log.Logger, audit AuditWriter) *Server {
	s := &Server{
		world:          w,
		log:            logger,
		audit:          audit,
		CommandTimeout: 10 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[*client]struct{}{},
	}
	return s
}

// Clients returns the number of connected sessions.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast fans TURN events out to every connected client until ctx is done
// or events is closed. Slow clients miss turns rather than stall the loop.
func (s *Server) Broadcast(ctx context.Context, events <-chan world.TurnEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b, err := json.Marshal(protocol.NewTurnMsg(ev))
			if err != nil {
				continue
			}
			s.mu.Lock()
			for c := range s.clients {
				select {
				case c.out <- b:
				default:
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := s.handshake(conn)
		if c == nil {
			return
		}
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
		}()
		if s.log != nil {
			s.log.Printf("session %s (%s) connected", c.session, c.name)
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Commands are handled one at a time per session so
		// their results come back in send order.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			res := s.handleMessage(ctx, c, msg)
			if res == nil {
				continue
			}
			b, err := json.Marshal(res)
			if err != nil {
				continue
			}
			select {
			case c.out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		if s.log != nil {
			s.log.Printf("session %s disconnected", c.session)
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, c *client, msg []byte) *protocol.ResultMsg {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return s.reject("", "malformed json")
	}
	if base.Type != protocol.TypeCmd {
		return s.reject("", fmt.Sprintf("unexpected message type %q", base.Type))
	}
	var cmd protocol.CmdMsg
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return s.reject(cmd.ID, err.Error())
	}
	if cmd.ProtocolVersion != protocol.Version {
		return s.reject(cmd.ID, "bad protocol_version")
	}
	if cmd.ID == "" {
		return s.reject("", "missing id")
	}

	turn := s.world.CurrentTurn()
	cctx, cancel := context.WithTimeout(ctx, s.CommandTimeout)
	res, err := s.world.Submit(cctx, cmd.Command)
	cancel()

	out := &protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		ID:              cmd.ID,
		OK:              err == nil,
		Turn:            s.world.CurrentTurn(),
	}
	if err != nil {
		out.Code = protocol.CodeFor(err)
		out.Message = err.Error()
	} else {
		out.Data = res
	}
	if s.audit != nil {
		_ = s.audit.WriteAudit(persistlog.AuditEntry{
			Turn:   turn,
			Client: c.session,
			Op:     string(cmd.Op),
			Code:   out.Code,
			ID:     uint64(res.ID),
		})
	}
	return out
}

func (s *Server) reject(id, message string) *protocol.ResultMsg {
	return &protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Code:            protocol.ErrProtoBadRequest,
		Message:         message,
		Turn:            s.world.CurrentTurn(),
	}
}

func (s *Server) handshake(conn *websocket.Conn) *client {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	c := &client{
		session: fmt.Sprintf("S%d", s.nextID.Add(1)),
		name:    hello.ClientName,
		out:     make(chan []byte, 64),
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       c.session,
		ColonyID:        s.world.ID(),
		Turn:            s.world.CurrentTurn(),
		TurnRateHz:      s.world.TurnRateHz(),
		CatalogsDigest:  catalogs.Digest(),
		TuningDigest:    s.TuningDigest,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	return c
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
