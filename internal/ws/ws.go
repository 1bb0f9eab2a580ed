// Package ws owns the websocket side of the server: upgrading connections,
// reading client actions, dispatching them into the game session, and
// fanning snapshots out to every attached socket of a room.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rollthedice/backend/internal/game"
	"github.com/rollthedice/backend/internal/leaderboard"
	"github.com/rollthedice/backend/internal/protocol"
)

// client is one attached socket. The write mutex serializes concurrent
// broadcasts onto the same connection.
type client struct {
	conn        *websocket.Conn
	writeMu     sync.Mutex
	playerID    string
	spectatorID string
}

func (c *client) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub tracks which sockets belong to which room and bridges the wire
// protocol to session actions.
type Hub struct {
	registry *game.Registry
	store    leaderboard.Store

	mu    sync.Mutex
	rooms map[string]map[*client]struct{}

	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHub(registry *game.Registry, store leaderboard.Store, log zerolog.Logger) *Hub {
	return &Hub{
		registry: registry,
		store:    store,
		rooms:    make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *Hub) register(gameID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[gameID] == nil {
		h.rooms[gameID] = make(map[*client]struct{})
	}
	h.rooms[gameID][c] = struct{}{}
}

func (h *Hub) unregister(gameID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[gameID], c)
	if len(h.rooms[gameID]) == 0 {
		delete(h.rooms, gameID)
	}
}

// broadcast sends to every socket of a room; dead sockets are skipped, the
// read loop cleans them up.
func (h *Hub) broadcast(gameID string, v any) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.rooms[gameID]))
	for c := range h.rooms[gameID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(v); err != nil {
			h.log.Debug().Str("game_id", gameID).Err(err).Msg("broadcast write failed")
		}
	}
}

// HandleWebSocket is the /ws/{gameId} endpoint.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn}
	s, ok := h.registry.Get(gameID)
	if !ok {
		_ = c.send(protocol.Errorf("game not found"))
		_ = conn.Close()
		return
	}

	h.register(gameID, c)
	defer func() {
		h.unregister(gameID, c)
		_ = conn.Close()
		h.detach(gameID, s, c)
	}()

	_ = c.send(protocol.ScoreboardMsg{Scoreboard: s.Snapshot()})
	if history := s.ChatHistory(); len(history) > 0 {
		_ = c.send(protocol.ChatHistoryMsg{ChatHistory: history})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		action, err := protocol.Decode(data)
		if err != nil {
			_ = c.send(protocol.Errorf("%s", err.Error()))
			continue
		}
		if closed := h.dispatch(gameID, s, c, action); closed {
			return
		}
	}
}

// detach handles a socket going away: a player's seat survives for rejoin
// (a pending correction by them is dropped), a spectator is removed.
func (h *Hub) detach(gameID string, s *game.Session, c *client) {
	if c.playerID != "" {
		if s.PlayerDetached(c.playerID) {
			h.broadcast(gameID, protocol.ScoreboardMsg{Scoreboard: s.Snapshot()})
		}
		return
	}
	if c.spectatorID != "" {
		if name, ok := s.SpectatorLeft(c.spectatorID); ok {
			h.broadcast(gameID, protocol.SpectatorEventMsg{
				Spectator: protocol.SpectatorEventBody{Event: "left", Name: name},
			})
		}
	}
}

func (h *Hub) senderIdentity(s *game.Session, c *client) (id, name string, ok bool) {
	if c.playerID != "" {
		n, _ := s.PlayerName(c.playerID)
		if n == "" {
			n = "Player"
		}
		return c.playerID, n, true
	}
	if c.spectatorID != "" {
		n, _ := s.SpectatorName(c.spectatorID)
		if n == "" {
			n = "Guest"
		}
		return "S-" + c.spectatorID, n, true
	}
	return "", "", false
}

// dispatch runs one action. The returned flag asks the read loop to close
// the connection (failed passphrase).
func (h *Hub) dispatch(gameID string, s *game.Session, c *client, action protocol.Action) bool {
	// Spectators may only chat and react.
	if c.spectatorID != "" {
		switch action.(type) {
		case protocol.ChatMessage, protocol.SendEmoji, protocol.Rejoin:
		default:
			_ = c.send(protocol.Errorf("players only"))
			return false
		}
	}

	switch a := action.(type) {
	case protocol.Join:
		pid, snap, err := s.Join(a.Name, a.Pass)
		if err != nil {
			return h.replyError(c, err)
		}
		c.playerID = pid
		_ = c.send(protocol.PlayerIDMsg{PlayerID: pid})
		h.broadcast(gameID, protocol.ScoreboardMsg{Scoreboard: snap})

	case protocol.Rejoin:
		pid, snap, err := s.Rejoin(a.PlayerID)
		if err != nil {
			return h.replyError(c, err)
		}
		c.playerID = pid
		c.spectatorID = ""
		_ = c.send(protocol.PlayerIDMsg{PlayerID: pid})
		_ = c.send(protocol.ScoreboardMsg{Scoreboard: snap})

	case protocol.Spectate:
		sid, snap, err := s.Spectate(a.Name, a.Pass)
		if err != nil {
			return h.replyError(c, err)
		}
		c.spectatorID = sid
		name, _ := s.SpectatorName(sid)
		_ = c.send(protocol.SpectatorIDMsg{SpectatorID: sid, Spectator: true})
		h.broadcast(gameID, protocol.SpectatorEventMsg{
			Spectator: protocol.SpectatorEventBody{Event: "joined", Name: name},
		})
		h.broadcast(gameID, protocol.ScoreboardMsg{Scoreboard: snap})

	case protocol.Roll:
		h.mutate(gameID, c, func() (*game.Snapshot, error) { return s.RollDice(c.playerID) })

	case protocol.SetHold:
		h.mutate(gameID, c, func() (*game.Snapshot, error) { return s.SetHold(c.playerID, a.Holds) })

	case protocol.Announce:
		h.mutate(gameID, c, func() (*game.Snapshot, error) { return s.Announce(c.playerID, a.Field) })

	case protocol.Unannounce:
		h.mutate(gameID, c, func() (*game.Snapshot, error) { return s.Unannounce(c.playerID) })

	case protocol.Write:
		snap, rec, err := s.WriteField(c.playerID, a.Row, a.Field, a.Strike)
		if err != nil {
			return h.replyError(c, err)
		}
		if rec != nil {
			h.recordResult(rec)
		}
		h.broadcast(gameID, protocol.ScoreboardMsg{Scoreboard: snap})

	case protocol.RequestCorrection:
		h.mutate(gameID, c, func() (*game.Snapshot, error) { return s.RequestCorrection(c.playerID) })

	case protocol.WriteCorrection:
		h.mutate(gameID, c, func() (*game.Snapshot, error) {
			return s.WriteCorrection(c.playerID, a.Row, a.Field, a.Strike)
		})

	case protocol.CancelCorrection:
		h.mutate(gameID, c, func() (*game.Snapshot, error) { return s.CancelCorrection(c.playerID) })

	case protocol.EndGame:
		if c.playerID == "" {
			_ = c.send(protocol.Errorf("players only"))
			return false
		}
		byName, snap := s.End(c.playerID, a.By)
		h.broadcast(gameID, protocol.NoticeMsg{
			Notice: protocol.NoticeBody{Type: "ended", By: byName},
		})
		h.broadcast(gameID, protocol.ScoreboardMsg{Scoreboard: snap})

	case protocol.ChatMessage:
		_, name, ok := h.senderIdentity(s, c)
		if !ok {
			name = "Player"
		}
		if entry, ok := s.Chat(name, a.Text); ok {
			h.broadcast(gameID, protocol.ChatMsg{Chat: entry})
		}

	case protocol.SendEmoji:
		id, name, ok := h.senderIdentity(s, c)
		if !ok {
			_ = c.send(protocol.Errorf("join first"))
			return false
		}
		if ev, ok := s.Emoji(id, name, a.Emoji); ok {
			h.broadcast(gameID, protocol.EmojiMsg{Emoji: ev})
		}
	}
	return false
}

func (h *Hub) mutate(gameID string, c *client, fn func() (*game.Snapshot, error)) {
	snap, err := fn()
	if err != nil {
		h.replyError(c, err)
		return
	}
	h.broadcast(gameID, protocol.ScoreboardMsg{Scoreboard: snap})
}

// replyError maps a game error onto the wire. Auth failures close the
// socket after the reply; everything else is per-action and non-fatal.
func (h *Hub) replyError(c *client, err error) (closed bool) {
	_ = c.send(protocol.Errorf("%s", err.Error()))
	var authErr *game.AuthError
	if errors.As(err, &authErr) {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""), closeDeadline())
		_ = c.conn.Close()
		return true
	}
	return false
}

func closeDeadline() time.Time { return time.Now().Add(time.Second) }

func (h *Hub) recordResult(rec *game.FinalRecord) {
	entry := leaderboard.NewEntry(rec)
	if err := h.store.Record(context.Background(), entry); err != nil {
		h.log.Error().Str("game_id", rec.GameID).Err(err).Msg("leaderboard record failed")
		return
	}
	h.log.Info().Str("game_id", rec.GameID).Int("points", entry.Points).
		Str("winner", entry.Name).Msg("result recorded")
}
