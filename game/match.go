package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

type Player int

const (
	PlayerNone Player = iota
	Player1
	Player2
)

func (p Player) String() string {
	switch p {
	case Player1:
		return "Player 1"
	case Player2:
		return "Player 2"
	default:
		return "None"
	}
}

// Label returns the display name of the player.
func (p Player) Label() string {
	return fmt.Sprintf("玩家 %d", int(p))
}

func (p Player) IsValid() bool {
	return p == Player1 || p == Player2
}

// Opponent returns the other player.
func (p Player) Opponent() Player {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return PlayerNone
	}
}

type Phase int

const (
	PhasePlacement Phase = iota
	PhaseCombat
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhasePlacement:
		return "Placement"
	case PhaseCombat:
		return "Combat"
	case PhaseFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Abilities tells which special abilities a player has used.
type Abilities struct {
	Recon bool `json:"recon"`
	Sonar bool `json:"sonar"`
}

// PlayerState is everything the match tracks for one player.
type PlayerState struct {
	Board *Board

	// Pending is the queue of ships still to place, front first.
	Pending []ShipID

	// Sunk holds the names of opponent ships this player has sunk.
	Sunk []string

	Used Abilities
}

func newPlayerState() *PlayerState {
	return &PlayerState{
		Board:   NewBoard(),
		Pending: Roster(),
		Sunk:    []string{},
	}
}

// Option configures a Match.
type Option func(*Match)

// WithRand sets the random source used to pick exposed cells.
func WithRand(r *rand.Rand) Option {
	return func(m *Match) {
		m.rand = r
	}
}

// WithClock sets the time source for the action log.
func WithClock(now func() time.Time) Option {
	return func(m *Match) {
		m.now = now
	}
}

// Match is the state of one game between two players on a shared
// screen. It is not safe for concurrent use; callers serialize intents.
type Match struct {
	players     [2]*PlayerState
	phase       Phase
	active      Player
	orientation Orientation
	winner      Player

	actions   []Action
	startedAt time.Time
	endedAt   time.Time

	rand *rand.Rand
	now  func() time.Time
}

// NewMatch creates a match in the placement phase with player 1 to place
// the first ship.
func NewMatch(opts ...Option) *Match {
	m := &Match{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rand == nil {
		m.rand = rand.New(rand.NewSource(m.now().UnixNano()))
	}
	m.reset()
	return m
}

func (m *Match) reset() {
	m.players = [2]*PlayerState{newPlayerState(), newPlayerState()}
	m.phase = PhasePlacement
	m.active = Player1
	m.orientation = Horizontal
	m.winner = PlayerNone
	m.actions = nil
	m.startedAt = m.now()
	m.endedAt = time.Time{}
}

// Restart throws away the current game and starts a fresh one.
func (m *Match) Restart() {
	m.reset()
}

func (m *Match) player(p Player) *PlayerState {
	return m.players[p-1]
}

// Phase returns the current phase.
func (m *Match) Phase() Phase {
	return m.phase
}

// Active returns the player expected to act. It is PlayerNone once the
// match is finished.
func (m *Match) Active() Player {
	if m.phase == PhaseFinished {
		return PlayerNone
	}
	return m.active
}

// Orientation returns the orientation used for the next placement.
func (m *Match) Orientation() Orientation {
	return m.orientation
}

// Winner returns the winning player, or PlayerNone.
func (m *Match) Winner() Player {
	return m.winner
}

// StartedAt returns the time the current game started.
func (m *Match) StartedAt() time.Time {
	return m.startedAt
}

// EndedAt returns the time the current game finished, zero until then.
func (m *Match) EndedAt() time.Time {
	return m.endedAt
}

// Board returns a copy of the player's board.
func (m *Match) Board(p Player) *Board {
	if !p.IsValid() {
		return nil
	}
	return m.player(p).Board.clone()
}

// Pending returns the ships the player has still to place.
func (m *Match) Pending(p Player) []ShipID {
	if !p.IsValid() {
		return nil
	}
	return append([]ShipID(nil), m.player(p).Pending...)
}

// Sunk returns the names of the opponent ships the player has sunk.
func (m *Match) Sunk(p Player) []string {
	if !p.IsValid() {
		return nil
	}
	return append([]string{}, m.player(p).Sunk...)
}

// AbilitiesUsed returns the abilities the player has spent.
func (m *Match) AbilitiesUsed(p Player) Abilities {
	if !p.IsValid() {
		return Abilities{}
	}
	return m.player(p).Used
}

// Actions returns the log of accepted actions of the current game.
func (m *Match) Actions() []Action {
	return append([]Action(nil), m.actions...)
}

// ToggleOrientation flips the placement orientation. It does nothing
// outside the placement phase and reports whether it changed anything.
func (m *Match) ToggleOrientation() (Orientation, bool) {
	if m.phase != PhasePlacement {
		return m.orientation, false
	}
	m.orientation = m.orientation.Toggle()
	return m.orientation, true
}

// PreviewPlacement returns the cells the active player's next ship would
// occupy at the anchor, and the reason it could not be placed there, if
// any. The match is not changed. Cells off the board are left out.
func (m *Match) PreviewPlacement(board Player, row, col int) ([]Coord, error) {
	if m.phase != PhasePlacement {
		return nil, reject(ErrNotYourPhase, "")
	}
	if board != m.active {
		return nil, reject(ErrWrongBoard, "請在你的棋盤上放置船艦！")
	}
	ps := m.player(m.active)
	sp := ShipPlacement{
		ID:          ps.Pending[0],
		Anchor:      Coord{Row: row, Col: col},
		Orientation: m.orientation,
	}
	var cells []Coord
	for _, c := range sp.Coordinates() {
		if c.InBounds() {
			cells = append(cells, c)
		}
	}
	if err := ps.Board.ValidatePlacement(sp); err != nil {
		return cells, asRejection(err)
	}
	return cells, nil
}

// PlaceShip places the active player's next ship with its anchor at
// (row, col) using the current orientation.
//
// Player 1 places the whole fleet first, then player 2. When both fleets
// are placed the match moves on to combat with player 1 to fire.
func (m *Match) PlaceShip(board Player, row, col int) (*Result, error) {
	if m.phase != PhasePlacement {
		return nil, reject(ErrNotYourPhase, "")
	}
	if board != m.active {
		return nil, reject(ErrWrongBoard, "請在你的棋盤上放置船艦！")
	}

	ps := m.player(m.active)
	sp := ShipPlacement{
		ID:          ps.Pending[0],
		Anchor:      Coord{Row: row, Col: col},
		Orientation: m.orientation,
	}
	if err := ps.Board.ApplyPlacement(sp); err != nil {
		return nil, asRejection(err)
	}
	ps.Pending = ps.Pending[1:]

	anchor := sp.Anchor
	res := &Result{
		Actor:   m.active,
		Kind:    ActionPlace,
		Outcome: OutcomePlaced,
		Target:  &anchor,
		Ship:    sp.ID,
	}
	m.record(res)

	p1, p2 := m.player(Player1), m.player(Player2)
	switch {
	case len(p1.Pending) == 0 && len(p2.Pending) == 0:
		m.phase = PhaseCombat
		m.active = Player1
		res.Message = "艦隊佈局完成！" + Player1.Label() + "，請攻擊！"
	case len(p1.Pending) == 0:
		m.active = Player2
		res.Message = m.Prompt()
	default:
		res.Message = m.Prompt()
	}
	res.Next = m.Active()
	return res, nil
}

// Fire attacks the cell (row, col) on the given board, which has to be
// the opponent's.
func (m *Match) Fire(board Player, row, col int) (*Result, error) {
	if m.phase != PhaseCombat {
		return nil, reject(ErrNotYourPhase, "")
	}
	if board != m.active.Opponent() {
		return nil, reject(ErrWrongBoard, "請點擊對手的棋盤進行攻擊！")
	}
	target := Coord{Row: row, Col: col}
	if !target.InBounds() {
		return nil, reject(ErrOutOfBounds, "超出棋盤範圍，請重新點選！")
	}

	attacker, defender := m.player(m.active), m.player(board)
	ship, err := defender.Board.receiveFire(target)
	if err != nil {
		return nil, asRejection(err)
	}

	res := &Result{
		Actor:  m.active,
		Kind:   ActionFire,
		Target: &target,
		Ship:   ship,
	}
	switch {
	case ship == ShipUndefined:
		res.Outcome = OutcomeMiss
		res.Message = "未命中..."
	case defender.Board.IsSunk(ship):
		attacker.Sunk = append(attacker.Sunk, ship.Name())
		res.Outcome = OutcomeSunk
		res.Sunk = true
		res.Message = "擊沉了對方的" + ship.Name() + "！"
	default:
		res.Outcome = OutcomeHit
		res.Message = "擊中了！"
	}
	m.record(res)

	if m.checkWinner() {
		res.Winner = m.winner
		res.Message = m.Prompt()
		return res, nil
	}

	m.switchTurn()
	res.Next = m.active
	res.Message += " " + m.Prompt()
	return res, nil
}

// checkWinner ends the match if either player has sunk the whole
// opposing fleet.
func (m *Match) checkWinner() bool {
	for _, p := range []Player{Player1, Player2} {
		if len(m.player(p).Sunk) >= FleetSize {
			m.phase = PhaseFinished
			m.winner = p
			m.endedAt = m.now()
			return true
		}
	}
	return false
}

func (m *Match) switchTurn() {
	m.active = m.active.Opponent()
}

// Prompt returns the standing instruction for the current state.
func (m *Match) Prompt() string {
	switch m.phase {
	case PhasePlacement:
		ps := m.player(m.active)
		return fmt.Sprintf("%s，請放置你的%s！按下 \"R\" 鍵切換方向。", m.active.Label(), ps.Pending[0].Name())
	case PhaseCombat:
		return fmt.Sprintf("輪到%s 攻擊了。", m.active.Label())
	case PhaseFinished:
		return fmt.Sprintf("%s 獲勝！你擊沉了對方所有船艦！", m.winner.Label())
	default:
		return ""
	}
}

func (m *Match) record(res *Result) {
	a := Action{
		Seq:     len(m.actions) + 1,
		Actor:   res.Actor,
		Kind:    res.Kind,
		Ship:    res.Ship,
		Outcome: res.Outcome,
		At:      m.now(),
	}
	if res.Target != nil {
		t := *res.Target
		a.Target = &t
	}
	if len(res.Found) > 0 {
		a.Found = append([]Coord(nil), res.Found...)
	}
	if res.Exposed != nil {
		e := *res.Exposed
		a.Exposed = &e
	}
	m.actions = append(m.actions, a)
}

func asRejection(err error) error {
	var r Reason
	if errors.As(err, &r) {
		return reject(r, "")
	}
	return err
}
