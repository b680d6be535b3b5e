package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	flag "github.com/spf13/pflag"

	"glavblock.dev/internal/protocol"
)

type cmdFlags struct {
	Op             string
	Stationary     string
	Recipe         string
	Room           uint64
	Priority       int
	Resource       string
	Amount         int
	Cost           map[string]int
	Colonist       uint64
	Profession     string
	Tier           string
	Specialization string
	AreaType       string
}

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name    = flag.String("name", "colonyctl", "client name")
		follow  = flag.Bool("follow", false, "keep printing TURN pushes after the result")
		timeout = flag.Duration("timeout", 10*time.Second, "wait for the result this long")
		f       cmdFlags
	)
	flag.StringVar(&f.Op, "op", "", "START_BUILD|START_PRODUCTION|STORE|WRITE_OFF|INSTALL_GERM|SPAWN|RELOCATE|RUN_TURN")
	flag.StringVar(&f.Stationary, "stationary", "", "stationary id, e.g. BenchToolT1")
	flag.StringVar(&f.Recipe, "recipe", "", "recipe id, e.g. COMPONENT_T1")
	flag.Uint64Var(&f.Room, "room", 0, "room id")
	flag.IntVar(&f.Priority, "priority", 0, "task priority (lower runs first)")
	flag.StringVar(&f.Resource, "resource", "", "resource, e.g. ScrapT1")
	flag.IntVar(&f.Amount, "amount", 0, "resource amount")
	flag.StringToIntVar(&f.Cost, "cost", nil, "bunch to write off, e.g. ScrapT1=10,PolymerT1=2")
	flag.Uint64Var(&f.Colonist, "colonist", 0, "colonist id")
	flag.StringVar(&f.Profession, "profession", "", "profession for SPAWN")
	flag.StringVar(&f.Tier, "tier", "", "T1|T2|T3")
	flag.StringVar(&f.Specialization, "specialization", "", "specialization for SPAWN")
	flag.StringVar(&f.AreaType, "area", "", "area type for INSTALL_GERM")
	flag.Parse()

	logger := log.New(os.Stderr, "[ctl] ", log.LstdFlags|log.Lmicroseconds)

	msg, err := buildCmd(f, fmt.Sprintf("ctl-%d", time.Now().UnixNano()))
	if err != nil {
		logger.Fatalf("%v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: *name}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}
	if err := conn.WriteJSON(msg); err != nil {
		logger.Fatalf("send CMD: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	exit := 0
	deadline := time.Now().Add(*timeout)
	for {
		if !*follow {
			_ = conn.SetReadDeadline(deadline)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !*follow {
				logger.Printf("read: %v", err)
				exit = 1
			}
			break
		}
		base, err := protocol.DecodeBase(raw)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(raw, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME colony=%s turn=%d session=%s", w.ColonyID, w.Turn, w.SessionID)
		case protocol.TypeResult:
			var r protocol.ResultMsg
			if err := json.Unmarshal(raw, &r); err != nil || r.ID != msg.ID {
				continue
			}
			fmt.Println(string(raw))
			if !r.OK {
				exit = 1
			}
			if !*follow {
				os.Exit(exit)
			}
		case protocol.TypeTurn:
			if *follow {
				fmt.Println(string(raw))
			}
		}
	}
	os.Exit(exit)
}

// buildCmd turns flag values into a CMD. Enum fields go through the same
// text decoding the server uses, so typos fail here rather than on the wire.
func buildCmd(f cmdFlags, id string) (protocol.CmdMsg, error) {
	fields := map[string]any{
		"type":             protocol.TypeCmd,
		"protocol_version": protocol.Version,
		"id":               id,
		"op":               strings.ToUpper(strings.TrimSpace(f.Op)),
	}
	if fields["op"] == "" {
		return protocol.CmdMsg{}, fmt.Errorf("missing --op")
	}
	setStr := func(key, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fields[key] = v
		}
	}
	setStr("stationary", f.Stationary)
	setStr("recipe", f.Recipe)
	setStr("resource", f.Resource)
	setStr("profession", f.Profession)
	setStr("tier", f.Tier)
	setStr("specialization", f.Specialization)
	setStr("area_type", f.AreaType)
	if f.Room != 0 {
		fields["room"] = f.Room
	}
	if f.Colonist != 0 {
		fields["colonist"] = f.Colonist
	}
	if f.Priority != 0 {
		fields["priority"] = f.Priority
	}
	if f.Amount != 0 {
		fields["amount"] = f.Amount
	}
	if len(f.Cost) > 0 {
		fields["cost"] = f.Cost
	}

	b, err := json.Marshal(fields)
	if err != nil {
		return protocol.CmdMsg{}, err
	}
	var msg protocol.CmdMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		return protocol.CmdMsg{}, fmt.Errorf("bad command: %w", err)
	}
	return msg, nil
}
