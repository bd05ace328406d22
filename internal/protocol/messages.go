// Package protocol defines the JSON messages exchanged with the versus relay.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies the kind of message sent over the wire.
type MessageType string

const (
	// Server -> Client messages
	MsgAssignID       MessageType = "assign_id"
	MsgLobbyUpdate    MessageType = "lobby_update"
	MsgCountdown      MessageType = "countdown"
	MsgGameStart      MessageType = "game_start"
	MsgOpponentUpdate MessageType = "opponent_update"
	MsgMatchOver      MessageType = "match_over"
	MsgError          MessageType = "error"

	// Client -> Server messages
	MsgJoin          MessageType = "join"
	MsgReady         MessageType = "ready"
	MsgBoardSnapshot MessageType = "board_snapshot"
	MsgPlayerDead    MessageType = "player_dead"
)

// Envelope is the top-level wire format for all messages. Payload is kept raw
// until the receiver knows which type to decode it into.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps payload in an envelope of type t.
func Encode(t MessageType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Payload: raw})
}

// Decode parses an envelope without touching its payload.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// Into decodes the payload into v. An absent payload leaves v untouched.
func (e Envelope) Into(v any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// --- Server -> Client payloads ---

// AssignIDPayload is sent when a client first connects.
type AssignIDPayload struct {
	PlayerID string `json:"player_id"`
}

// LobbyPlayer is one player entry in a lobby update.
type LobbyPlayer struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Ready    bool   `json:"ready"`
}

// LobbyUpdatePayload is sent whenever the lobby state changes.
type LobbyUpdatePayload struct {
	Players []LobbyPlayer `json:"players"`
}

// CountdownPayload carries the countdown tick value.
type CountdownPayload struct {
	Value int `json:"value"`
}

// GameStartPayload tells all clients to begin. Every client seeds its piece
// randomizer with Seed so all players get the same sequence.
type GameStartPayload struct {
	Seed    int64    `json:"seed"`
	Players []string `json:"players"`
}

// OpponentState is the latest snapshot of one opponent's board.
type OpponentState struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Level      int    `json:"level"`
	Section    int    `json:"section"`
	Lines      int    `json:"lines"`
	Alive      bool   `json:"alive"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	// Board is row-major, top row first. Each value is a piece kind, 0 for
	// empty.
	Board []int `json:"board"`
}

// OpponentUpdatePayload carries snapshots of all opponents.
type OpponentUpdatePayload struct {
	Opponents []OpponentState `json:"opponents"`
}

// Standing is one player's final placement.
type Standing struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	Level    int    `json:"level"`
}

// MatchOverPayload is sent when at most one player is left standing.
type MatchOverPayload struct {
	WinnerID   string     `json:"winner_id"`
	WinnerName string     `json:"winner_name"`
	YourRank   int        `json:"your_rank"`
	Standings  []Standing `json:"standings"`
}

// ErrorPayload reports a rejected request.
type ErrorPayload struct {
	Message string `json:"message"`
}

// --- Client -> Server payloads ---

// JoinPayload is sent when a client wants to join the lobby.
type JoinPayload struct {
	PlayerName string `json:"player_name"`
}

// ReadyPayload toggles ready status.
type ReadyPayload struct {
	Ready bool `json:"ready"`
}

// BoardSnapshotPayload is the client's current board, falling piece included.
type BoardSnapshotPayload struct {
	Level   int   `json:"level"`
	Section int   `json:"section"`
	Lines   int   `json:"lines"`
	Alive   bool  `json:"alive"`
	Width   int   `json:"width"`
	Height  int   `json:"height"`
	Board   []int `json:"board"`
}

// PlayerDeadPayload informs the server this player topped out.
type PlayerDeadPayload struct {
	Level int `json:"level"`
}
