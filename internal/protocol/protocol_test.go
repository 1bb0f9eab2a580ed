package protocol

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Action
	}{
		{
			name:     "join",
			raw:      `{"action":"join_game","name":"Alice","pass":"pw"}`,
			expected: Join{Name: "Alice", Pass: "pw"},
		},
		{
			name:     "rejoin",
			raw:      `{"action":"rejoin_game","player_id":"abc123"}`,
			expected: Rejoin{PlayerID: "abc123"},
		},
		{
			name:     "spectate",
			raw:      `{"action":"spectate_game","name":"Eve"}`,
			expected: Spectate{Name: "Eve"},
		},
		{
			name:     "roll",
			raw:      `{"action":"roll_dice"}`,
			expected: Roll{},
		},
		{
			name:     "set hold",
			raw:      `{"action":"set_hold","holds":[true,false,true,false,false]}`,
			expected: SetHold{Holds: [5]bool{true, false, true, false, false}},
		},
		{
			name:     "set hold short list pads",
			raw:      `{"action":"set_hold","holds":[true]}`,
			expected: SetHold{Holds: [5]bool{true}},
		},
		{
			name:     "write",
			raw:      `{"action":"write_field","row":14,"field":"free","strike":true}`,
			expected: Write{Row: 14, Field: "free", Strike: true},
		},
		{
			name:     "write row zero",
			raw:      `{"action":"write_field","row":0,"field":"down"}`,
			expected: Write{Row: 0, Field: "down"},
		},
		{
			name:     "announce",
			raw:      `{"action":"announce_row4","field":"poker"}`,
			expected: Announce{Field: "poker"},
		},
		{
			name:     "unannounce",
			raw:      `{"action":"unannounce_row4"}`,
			expected: Unannounce{},
		},
		{
			name:     "request correction",
			raw:      `{"action":"request_correction"}`,
			expected: RequestCorrection{},
		},
		{
			name:     "write correction",
			raw:      `{"action":"write_field_correction","row":9,"field":"up"}`,
			expected: WriteCorrection{Row: 9, Field: "up"},
		},
		{
			name:     "cancel correction",
			raw:      `{"action":"cancel_correction"}`,
			expected: CancelCorrection{},
		},
		{
			name:     "end game",
			raw:      `{"action":"end_game","by":"Alice"}`,
			expected: EndGame{By: "Alice"},
		},
		{
			name:     "chat",
			raw:      `{"action":"chat_message","text":"gg"}`,
			expected: ChatMessage{Text: "gg"},
		},
		{
			name:     "emoji",
			raw:      `{"action":"send_emoji","emoji":"x"}`,
			expected: SendEmoji{Emoji: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Decode = %#v, want %#v", got, tt.expected)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown action", raw: `{"action":"teleport"}`},
		{name: "empty action", raw: `{}`},
		{name: "malformed json", raw: `{`},
		{name: "write without row", raw: `{"action":"write_field","field":"free"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected an error")
			}
			var protoErr *ProtocolError
			if !errors.As(err, &protoErr) {
				t.Errorf("want ProtocolError, got %T", err)
			}
		})
	}
}
