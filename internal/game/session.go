package game

import (
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rollthedice/backend/internal/rules"
)

const (
	chatHistoryMax = 50
	chatTextMax    = 400
)

// Player is a seat in the game. The id doubles as the reconnect token.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Spectator watches and chats but never acts on the board.
type Spectator struct {
	ID   string
	Name string
}

// ChatEntry is one chat line, kept in a bounded per-game history.
type ChatEntry struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// EmojiEvent is a quick reaction relayed to everyone, never persisted.
type EmojiEvent struct {
	FromID string `json:"from_id"`
	From   string `json:"from"`
	Emoji  string `json:"emoji"`
	TS     string `json:"ts"`
}

// Result is one line of the final ranking.
type Result struct {
	Player string `json:"player"`
	Total  int    `json:"total"`
}

type writeRecord struct {
	Row       int
	Col       string
	RollsUsed int
}

type writeMeta struct {
	Announced string
	RollIndex int
	First4OAK int
}

// Session is one game room. A single mutex serializes every mutating action;
// snapshots are built inside the lock and broadcast outside it by the hub.
type Session struct {
	ID   string
	Name string
	Mode string

	mu         sync.Mutex
	expected   int
	passphrase string

	players    []*Player
	spectators []*Spectator
	teamOf     map[string]string
	boards     map[string]Board
	teamBoards map[string]Board

	turn           *Turn
	dice           [5]int
	holds          [5]bool
	rollsUsed      int
	rollsMax       int
	announced      string
	announcedBy    string
	announcedBoard string
	correction     *Correction

	lastWrite map[string]writeRecord
	lastDice  map[string][5]int
	lastMeta  map[string]writeMeta

	started   bool
	finished  bool
	aborted   bool
	startedAt time.Time
	updatedAt time.Time
	results   []Result
	chat      []ChatEntry

	ruleset rules.Ruleset
	roll    func() int
	log     zerolog.Logger
}

func expectedForMode(mode string) (int, bool) {
	switch mode {
	case "1":
		return 1, true
	case "2":
		return 2, true
	case "3":
		return 3, true
	case "2v2":
		return 4, true
	}
	return 0, false
}

func defaultRoller() int { return rand.IntN(6) + 1 }

// NewSession creates a fresh room in the forming state.
func NewSession(id, name, mode, passphrase string, rs rules.Ruleset, log zerolog.Logger) (*Session, error) {
	expected, ok := expectedForMode(mode)
	if !ok {
		return nil, illegalf("unknown mode %q", mode)
	}
	if name == "" {
		name = "Game " + id
	}
	s := &Session{
		ID:         id,
		Name:       name,
		Mode:       mode,
		expected:   expected,
		passphrase: passphrase,
		teamOf:     make(map[string]string),
		boards:     make(map[string]Board),
		teamBoards: make(map[string]Board),
		lastWrite:  make(map[string]writeRecord),
		lastDice:   make(map[string][5]int),
		lastMeta:   make(map[string]writeMeta),
		rollsMax:   rollsMaxDefault,
		ruleset:    rs,
		roll:       defaultRoller,
		updatedAt:  time.Now().UTC(),
		log:        log.With().Str("game_id", id).Logger(),
	}
	if s.teamMode() {
		s.teamBoards["A"] = Board{}
		s.teamBoards["B"] = Board{}
	}
	return s, nil
}

func (s *Session) teamMode() bool { return s.Mode == "2v2" }

func newShortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func (s *Session) touch() { s.updatedAt = time.Now().UTC() }

// boardFor resolves the board an actor writes to: the shared team sheet in
// 2v2, the player's own sheet otherwise.
func (s *Session) boardFor(pid string) Board {
	if s.teamMode() {
		return s.teamBoards[s.teamOf[pid]]
	}
	return s.boards[pid]
}

// boardKeyFor is the id the board is published under (team id or player id).
func (s *Session) boardKeyFor(pid string) string {
	if s.teamMode() {
		return s.teamOf[pid]
	}
	return pid
}

func (s *Session) playerByID(pid string) *Player {
	for _, p := range s.players {
		if p.ID == pid {
			return p
		}
	}
	return nil
}

// PlayerName resolves a player id to a display name.
func (s *Session) PlayerName(pid string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.playerByID(pid); p != nil {
		return p.Name, true
	}
	return "", false
}

// SpectatorName resolves a spectator id to a display name.
func (s *Session) SpectatorName(sid string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.spectators {
		if sp.ID == sid {
			return sp.Name, true
		}
	}
	return "", false
}

func (s *Session) checkPassLocked(pass string) error {
	if s.passphrase != "" && strings.TrimSpace(pass) != s.passphrase {
		return &AuthError{Reason: "wrong passphrase"}
	}
	return nil
}

// CheckPass validates a passphrase attempt (HTTP preflight).
func (s *Session) CheckPass(pass string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkPassLocked(pass) == nil
}

// Join adds a player. When the seat count reaches the mode's expectation the
// game starts and the first player's turn begins.
func (s *Session) Join(name, pass string) (string, *Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPassLocked(pass); err != nil {
		return "", nil, err
	}
	if s.finished || s.aborted {
		return "", nil, illegalf("game is over")
	}
	if s.started || len(s.players) >= s.expected {
		return "", nil, illegalf("game is full")
	}

	pid := newShortID(6)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Guest"
	}
	s.players = append(s.players, &Player{ID: pid, Name: name})
	s.boards[pid] = Board{}
	if s.teamMode() {
		// Seats 1 and 3 form team A, seats 2 and 4 team B.
		if len(s.players)%2 == 1 {
			s.teamOf[pid] = "A"
		} else {
			s.teamOf[pid] = "B"
		}
	}

	if len(s.players) == s.expected && !s.started {
		s.started = true
		s.startedAt = time.Now().UTC()
		s.turn = &Turn{PlayerID: s.players[0].ID}
		s.setRollCap()
		if s.expected == 1 {
			s.autoRollLocked()
		}
	}

	s.touch()
	s.log.Info().Str("player_id", pid).Str("action", "join_game").Msg("player joined")
	return pid, s.snapshotLocked(), nil
}

// Rejoin re-attaches a returning player. An unknown id falls back to a fresh
// join while the room is still open and unlocked.
func (s *Session) Rejoin(pid string) (string, *Snapshot, error) {
	s.mu.Lock()
	if p := s.playerByID(pid); p != nil {
		s.touch()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.log.Info().Str("player_id", pid).Str("action", "rejoin_game").Msg("player rejoined")
		return pid, snap, nil
	}
	joinable := !s.started && !s.finished && !s.aborted &&
		len(s.players) < s.expected && s.passphrase == ""
	s.mu.Unlock()

	if joinable {
		return s.Join("Guest", "")
	}
	return "", nil, &NotFoundError{What: "player"}
}

// Spectate registers a watcher; it never counts toward the seat total.
func (s *Session) Spectate(name, pass string) (string, *Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPassLocked(pass); err != nil {
		return "", nil, err
	}
	sid := newShortID(6)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Guest"
	}
	s.spectators = append(s.spectators, &Spectator{ID: sid, Name: name})
	s.touch()
	return sid, s.snapshotLocked(), nil
}

// SpectatorLeft removes a watcher and reports the departed name.
func (s *Session) SpectatorLeft(sid string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sp := range s.spectators {
		if sp.ID == sid {
			s.spectators = append(s.spectators[:i], s.spectators[i+1:]...)
			return sp.Name, true
		}
	}
	return "", false
}

// PlayerDetached handles a player socket going away. The seat stays (the id
// is the rejoin token); a pending correction by that player is dropped.
// Reports whether state changed.
func (s *Session) PlayerDetached(pid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.correction != nil && s.correction.PlayerID == pid {
		s.correction = nil
		s.touch()
		return true
	}
	return false
}

func (s *Session) requireTurnLocked(pid string) error {
	if s.finished || s.aborted {
		return illegalf("game is over")
	}
	if s.turn == nil || s.turn.PlayerID != pid {
		return illegalf("not your turn")
	}
	return nil
}

func (s *Session) setRollCap() {
	s.rollsMax = rollsMaxDefault
	if s.turn != nil {
		if b := s.boardFor(s.turn.PlayerID); b != nil && b.Remaining() == 1 {
			s.rollsMax = rollsMaxLastCell
		}
	}
}

// announceLockBlocksRoll enforces the late-game announce rule: with three or
// more columns complete and at least two open announce cells, every roll
// after the first needs an announcement. The last open cell lifts the rule.
func (s *Session) announceLockBlocksRoll(pid string) bool {
	if s.rollsUsed < 1 || s.announced != "" {
		return false
	}
	b := s.boardFor(pid)
	if b == nil || b.Remaining() == 1 {
		return false
	}
	complete := 0
	for _, col := range Columns {
		if b.ColumnComplete(col) {
			complete++
		}
	}
	return complete >= 3 && b.OpenCells("ang") >= 2
}

func (s *Session) doRollLocked() {
	for i := range s.dice {
		if !s.holds[i] {
			s.dice[i] = s.roll()
		}
	}
	s.rollsUsed++
	s.turn.recordRoll(s.dice)
}

// autoRollLocked performs the single-player convenience roll at turn start.
func (s *Session) autoRollLocked() {
	if s.expected != 1 || s.turn == nil || s.finished || s.aborted {
		return
	}
	s.doRollLocked()
}

// RollDice rerolls every die that is not held.
func (s *Session) RollDice(pid string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTurnLocked(pid); err != nil {
		return nil, err
	}
	if s.correction != nil {
		return nil, illegalf("not allowed during correction")
	}
	if s.rollsUsed >= s.rollsMax {
		return nil, illegalf("no rolls left")
	}
	if s.announceLockBlocksRoll(pid) {
		return nil, illegalf("announcement required before rolling again")
	}

	s.doRollLocked()
	s.touch()
	s.log.Debug().Str("player_id", pid).Str("action", "roll_dice").
		Int("roll_index", s.turn.RollIndex).Msg("dice rolled")
	return s.snapshotLocked(), nil
}

// SetHold updates the keep-mask. Unrolled dice cannot be held.
func (s *Session) SetHold(pid string, holds [5]bool) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.aborted {
		return nil, illegalf("game is over")
	}
	if s.correction != nil {
		if s.correction.PlayerID != pid {
			return nil, illegalf("not allowed during correction")
		}
	} else if err := s.requireTurnLocked(pid); err != nil {
		return nil, err
	}
	for i, h := range holds {
		if h && s.dice[i] == 0 {
			return nil, illegalf("cannot hold an unrolled die")
		}
	}
	s.holds = holds
	s.touch()
	return s.snapshotLocked(), nil
}

// Announce declares the category the actor commits to in the announce
// column. Allowed, and changeable, only right after the first roll.
func (s *Session) Announce(pid, field string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTurnLocked(pid); err != nil {
		return nil, err
	}
	if s.correction != nil {
		return nil, illegalf("not allowed during correction")
	}
	if s.rollsUsed != 1 {
		return nil, illegalf("announcement only right after roll 1")
	}
	row, ok := rules.FieldRow[field]
	if !ok {
		return nil, illegalf("unknown category %q", field)
	}
	// Announcing the same category again toggles it off.
	if s.announced == field {
		s.announced = ""
		s.announcedBy = ""
		s.announcedBoard = ""
		s.touch()
		return s.snapshotLocked(), nil
	}
	if s.boardFor(pid).Filled(row, "ang") {
		return nil, illegalf("announce cell for %s is already filled", field)
	}

	s.announced = field
	s.announcedBy = pid
	s.announcedBoard = s.boardKeyFor(pid)
	s.touch()
	s.log.Info().Str("player_id", pid).Str("action", "announce_row4").
		Str("field", field).Msg("announced")
	return s.snapshotLocked(), nil
}

// Unannounce withdraws the announcement, only while still on roll 1.
func (s *Session) Unannounce(pid string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTurnLocked(pid); err != nil {
		return nil, err
	}
	if s.correction != nil {
		return nil, illegalf("not allowed during correction")
	}
	if s.rollsUsed != 1 {
		return nil, illegalf("announcement can only be withdrawn right after roll 1")
	}
	if s.announced == "" {
		return nil, illegalf("no announcement active")
	}

	s.announced = ""
	s.announcedBy = ""
	s.announcedBoard = ""
	s.touch()
	return s.snapshotLocked(), nil
}

// canWriteNow validates the cell choice against the column and announce
// rules. The last open cell is always writable, whatever was announced.
func (s *Session) canWriteNow(pid string, row int, col string) error {
	field, ok := rules.RowField[row]
	if !ok {
		return illegalf("row %d is not writable", row)
	}
	b := s.boardFor(pid)

	if b.Remaining() == 1 {
		return nil
	}

	if s.announced != "" {
		if col != "ang" {
			return illegalf("announcement active: only the announce column for %s is allowed", s.announced)
		}
		if s.announced != field {
			return illegalf("announced is %s, not %s", s.announced, field)
		}
		return nil
	}

	switch col {
	case "free":
		return nil
	case "ang":
		// Right after roll 1 the announce column is open without a
		// spoken announcement.
		if s.rollsUsed == 1 {
			return nil
		}
		return illegalf("no announcement active")
	case "down", "up":
		next, open := b.NextRequiredRow(col)
		if !open {
			return illegalf("column already complete")
		}
		if row != next {
			return illegalf("row %d is next in this column", next)
		}
		return nil
	}
	return illegalf("unknown column %q", col)
}

// WriteField books the current dice into a cell, ends the turn, and detects
// the end of the game. It returns a record for the leaderboard exactly once,
// on the write that completes the last board.
func (s *Session) WriteField(pid string, row int, col string, strike bool) (*Snapshot, *FinalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTurnLocked(pid); err != nil {
		return nil, nil, err
	}
	if s.correction != nil {
		return nil, nil, illegalf("not allowed during correction")
	}
	if s.rollsUsed < 1 {
		return nil, nil, illegalf("roll first")
	}
	if !validColumn(col) {
		return nil, nil, illegalf("unknown column %q", col)
	}
	field, ok := rules.RowField[row]
	if !ok {
		return nil, nil, illegalf("row %d is not writable", row)
	}
	if err := s.canWriteNow(pid, row, col); err != nil {
		return nil, nil, err
	}

	b := s.boardFor(pid)
	if b.Filled(row, col) {
		return nil, nil, illegalf("cell is already filled")
	}

	if field == "poker" {
		allowed := pokerAllowsPoints(s.dice, s.turn.RollIndex, s.turn.First4OAK,
			col == "ang", s.announced == "poker")
		if rules.Score("poker", s.dice) > 0 && !allowed {
			// Gambled past the quad roll: the write silently becomes a
			// strike instead of being rejected.
			strike = true
		}
	}

	value := rules.Score(field, s.dice)
	if strike {
		value = 0
	}
	b[CellKey(row, col)] = value

	s.lastWrite[pid] = writeRecord{Row: row, Col: col, RollsUsed: s.rollsUsed}
	s.lastDice[pid] = s.dice
	s.lastMeta[pid] = writeMeta{
		Announced: s.announced,
		RollIndex: s.turn.RollIndex,
		First4OAK: s.turn.First4OAK,
	}

	s.dice = [5]int{}
	s.holds = [5]bool{}
	s.rollsUsed = 0
	s.announced = ""
	s.announcedBy = ""
	s.announcedBoard = ""
	s.turn = &Turn{PlayerID: s.nextAfter(pid)}
	s.setRollCap()

	var rec *FinalRecord
	if s.allBoardsFull() {
		s.started = false
		s.finished = true
		s.results = s.computeResultsLocked()
		rec = s.finalRecordLocked()
	} else {
		s.autoRollLocked()
	}

	s.touch()
	s.log.Info().Str("player_id", pid).Str("action", "write_field").
		Int("row", row).Str("col", col).Int("value", value).Msg("field written")
	return s.snapshotLocked(), rec, nil
}

func (s *Session) nextAfter(pid string) string {
	for i, p := range s.players {
		if p.ID == pid {
			return s.players[(i+1)%len(s.players)].ID
		}
	}
	if len(s.players) > 0 {
		return s.players[0].ID
	}
	return ""
}

func (s *Session) allBoardsFull() bool {
	if len(s.players) == 0 {
		return false
	}
	if s.teamMode() {
		return s.teamBoards["A"].Remaining() == 0 && s.teamBoards["B"].Remaining() == 0
	}
	for _, p := range s.players {
		if s.boards[p.ID].Remaining() != 0 {
			return false
		}
	}
	return true
}

// entityTotals returns the overall total per scoring entity (team id in 2v2,
// player id otherwise).
func (s *Session) entityTotals() map[string]int {
	totals := make(map[string]int)
	if s.teamMode() {
		for tid, b := range s.teamBoards {
			_, overall := b.Totals(s.ruleset)
			totals[tid] = overall
		}
		return totals
	}
	for _, p := range s.players {
		_, overall := s.boards[p.ID].Totals(s.ruleset)
		totals[p.ID] = overall
	}
	return totals
}

func (s *Session) computeResultsLocked() []Result {
	totals := s.entityTotals()
	var res []Result
	if s.teamMode() {
		for _, tid := range []string{"A", "B"} {
			res = append(res, Result{Player: "Team " + tid, Total: totals[tid]})
		}
	} else {
		for _, p := range s.players {
			res = append(res, Result{Player: p.Name, Total: totals[p.ID]})
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Total > res[j].Total })
	return res
}

func (s *Session) teamMembers(tid string) []string {
	var out []string
	for _, p := range s.players {
		if s.teamOf[p.ID] == tid {
			out = append(out, p.ID)
		}
	}
	return out
}

// End aborts the game on request. Aborted games never reach the leaderboard.
func (s *Session) End(pid, byName string) (string, *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName = strings.TrimSpace(byName)
	if byName == "" {
		if p := s.playerByID(pid); p != nil {
			byName = p.Name
		} else {
			byName = "Player"
		}
	}
	if s.finished || s.aborted {
		return byName, s.snapshotLocked()
	}
	s.aborted = true
	s.results = nil
	s.started = false
	s.finished = true
	s.correction = nil
	s.touch()
	s.log.Info().Str("player_id", pid).Str("action", "end_game").Msg("game ended early")
	return byName, s.snapshotLocked()
}

// Chat appends a line to the bounded history and returns it for relay.
func (s *Session) Chat(sender, text string) (ChatEntry, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatEntry{}, false
	}
	if len(text) > chatTextMax {
		text = text[:chatTextMax]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := ChatEntry{Sender: sender, Text: text}
	s.chat = append(s.chat, entry)
	if len(s.chat) > chatHistoryMax {
		s.chat = s.chat[len(s.chat)-chatHistoryMax:]
	}
	s.touch()
	return entry, true
}

// ChatHistory returns a copy of the retained chat lines.
func (s *Session) ChatHistory() []ChatEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatEntry, len(s.chat))
	copy(out, s.chat)
	return out
}

// Emoji builds a reaction event for relay.
func (s *Session) Emoji(fromID, fromName, emoji string) (EmojiEvent, bool) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return EmojiEvent{}, false
	}
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
	return EmojiEvent{
		FromID: fromID,
		From:   fromName,
		Emoji:  emoji,
		TS:     time.Now().UTC().Format(time.RFC3339Nano),
	}, true
}

// Terminal reports whether the session reached an end state.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished || s.aborted
}

// UpdatedAt is the last-activity timestamp.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// ExpireIfIdle aborts a running session that saw no activity within the
// timeout. Reports whether it flipped the state.
func (s *Session) ExpireIfIdle(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished || s.aborted {
		return false
	}
	if time.Since(s.updatedAt) < timeout {
		return false
	}
	s.aborted = true
	s.results = nil
	s.started = false
	s.finished = true
	s.correction = nil
	s.touch()
	s.log.Warn().Str("action", "timeout").Msg("game aborted after inactivity")
	return true
}
