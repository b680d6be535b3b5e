package protocol

import "glavblock.dev/internal/sim/world"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ClientName      string     `json:"client_name"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	SessionID       string  `json:"session_id"`
	ColonyID        string  `json:"colony_id"`
	Turn            uint64  `json:"turn"`
	TurnRateHz      float64 `json:"turn_rate_hz"`
	CatalogsDigest  string  `json:"catalogs_digest"`
	TuningDigest    string  `json:"tuning_digest,omitempty"`
}

// CMD (client -> server). The command fields sit next to the envelope.
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	world.Command
}

// RESULT (server -> client), one per CMD.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Turn            uint64 `json:"turn"`
	Data            any    `json:"data,omitempty"`
}

// TURN (server -> client), pushed after every turn.
type TurnMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	Turn            uint64           `json:"turn"`
	Report          world.TurnReport `json:"report"`
	Digest          string           `json:"digest"`
}

func NewTurnMsg(ev world.TurnEvent) TurnMsg {
	return TurnMsg{
		Type:            TypeTurn,
		ProtocolVersion: Version,
		Turn:            ev.Report.Turn,
		Report:          ev.Report,
		Digest:          ev.Digest,
	}
}
