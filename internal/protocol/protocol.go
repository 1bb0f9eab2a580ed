// Package protocol defines the websocket wire format: a closed set of
// inbound actions discriminated by the "action" field, and the outbound
// message envelopes. Decoding never touches game state.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ProtocolError marks a message the server could not understand. It is
// answered per-message; the connection stays open.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return e.Reason }

// Action is one decoded client message.
type Action interface{ isAction() }

type Join struct {
	Name string
	Pass string
}

type Rejoin struct {
	PlayerID string
}

type Spectate struct {
	Name string
	Pass string
}

type Roll struct{}

type SetHold struct {
	Holds [5]bool
}

// Write books the dice into a cell. Field carries the column name on the
// wire ("down", "free", "up", "ang"); the row index picks the category.
type Write struct {
	Row    int
	Field  string
	Strike bool
}

type Announce struct {
	Field string
}

type Unannounce struct{}

type RequestCorrection struct{}

type WriteCorrection struct {
	Row    int
	Field  string
	Strike bool
}

type CancelCorrection struct{}

type EndGame struct {
	By string
}

type ChatMessage struct {
	Text string
}

type SendEmoji struct {
	Emoji string
}

func (Join) isAction()              {}
func (Rejoin) isAction()            {}
func (Spectate) isAction()          {}
func (Roll) isAction()              {}
func (SetHold) isAction()           {}
func (Write) isAction()             {}
func (Announce) isAction()          {}
func (Unannounce) isAction()        {}
func (RequestCorrection) isAction() {}
func (WriteCorrection) isAction()   {}
func (CancelCorrection) isAction()  {}
func (EndGame) isAction()           {}
func (ChatMessage) isAction()       {}
func (SendEmoji) isAction()         {}

type envelope struct {
	Action   string `json:"action"`
	Name     string `json:"name"`
	Pass     string `json:"pass"`
	PlayerID string `json:"player_id"`
	Holds    []bool `json:"holds"`
	Row      *int   `json:"row"`
	Field    string `json:"field"`
	Strike   bool   `json:"strike"`
	By       string `json:"by"`
	Text     string `json:"text"`
	Emoji    string `json:"emoji"`
}

// Decode parses one inbound frame into its action.
func Decode(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ProtocolError{Reason: "malformed message"}
	}

	switch env.Action {
	case "join_game":
		return Join{Name: env.Name, Pass: env.Pass}, nil
	case "rejoin_game":
		return Rejoin{PlayerID: env.PlayerID}, nil
	case "spectate_game":
		return Spectate{Name: env.Name, Pass: env.Pass}, nil
	case "roll_dice":
		return Roll{}, nil
	case "set_hold":
		var holds [5]bool
		for i := 0; i < len(holds) && i < len(env.Holds); i++ {
			holds[i] = env.Holds[i]
		}
		return SetHold{Holds: holds}, nil
	case "write_field", "write_field_correction":
		if env.Row == nil {
			return nil, &ProtocolError{Reason: "missing row"}
		}
		if env.Action == "write_field" {
			return Write{Row: *env.Row, Field: env.Field, Strike: env.Strike}, nil
		}
		return WriteCorrection{Row: *env.Row, Field: env.Field, Strike: env.Strike}, nil
	case "announce_row4":
		return Announce{Field: env.Field}, nil
	case "unannounce_row4":
		return Unannounce{}, nil
	case "request_correction":
		return RequestCorrection{}, nil
	case "cancel_correction":
		return CancelCorrection{}, nil
	case "end_game":
		return EndGame{By: env.By}, nil
	case "chat_message":
		return ChatMessage{Text: env.Text}, nil
	case "send_emoji":
		return SendEmoji{Emoji: env.Emoji}, nil
	}
	return nil, &ProtocolError{Reason: fmt.Sprintf("unknown action %q", env.Action)}
}

// Outbound envelopes. Each mutation broadcast wraps the snapshot under the
// "scoreboard" key; the rest are small targeted replies.

type ScoreboardMsg struct {
	Scoreboard any `json:"scoreboard"`
}

type PlayerIDMsg struct {
	PlayerID string `json:"player_id"`
}

type SpectatorIDMsg struct {
	SpectatorID string `json:"spectator_id"`
	Spectator   bool   `json:"spectator"`
}

type ErrorBody struct {
	Message string `json:"message"`
}

type ErrorMsg struct {
	Error ErrorBody `json:"error"`
}

func Errorf(format string, args ...any) ErrorMsg {
	return ErrorMsg{Error: ErrorBody{Message: fmt.Sprintf(format, args...)}}
}

type ChatMsg struct {
	Chat any `json:"chat"`
}

type ChatHistoryMsg struct {
	ChatHistory any `json:"chat_history"`
}

type EmojiMsg struct {
	Emoji any `json:"emoji"`
}

type NoticeBody struct {
	Type string `json:"type"`
	By   string `json:"by"`
}

type NoticeMsg struct {
	Notice NoticeBody `json:"notice"`
}

type SpectatorEventBody struct {
	Event string `json:"event"`
	Name  string `json:"name"`
}

type SpectatorEventMsg struct {
	Spectator SpectatorEventBody `json:"spectator"`
}
