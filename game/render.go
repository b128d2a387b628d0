package game

import (
	"fmt"
	"strings"
)

// CellView is what a renderer shows for a cell.
type CellView int

const (
	ViewEmpty CellView = iota
	ViewShip
	ViewHit
	ViewMiss
	ViewRevealed
	ViewExposed
)

var cellViewNames = []string{"empty", "ship", "hit", "miss", "revealed", "exposed"}

func (v CellView) String() string {
	if v < 0 || int(v) >= len(cellViewNames) {
		return "unknown"
	}
	return cellViewNames[v]
}

// Glyph returns a single character for text renderers.
func (v CellView) Glyph() byte {
	switch v {
	case ViewShip:
		return 'S'
	case ViewHit:
		return 'X'
	case ViewMiss:
		return 'o'
	case ViewRevealed:
		return '?'
	case ViewExposed:
		return '!'
	default:
		return '.'
	}
}

func (v CellView) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *CellView) UnmarshalText(b []byte) error {
	for i, name := range cellViewNames {
		if name == string(b) {
			*v = CellView(i)
			return nil
		}
	}
	return fmt.Errorf("unknown cell view: %q", b)
}

// View is the display-ready projection of a board.
type View [BoardSize][BoardSize]CellView

// Rows renders the view as one line of glyphs per row.
func (v View) Rows() []string {
	rows := make([]string, BoardSize)
	var sb strings.Builder
	for r := range v {
		sb.Reset()
		for c := range v[r] {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(v[r][c].Glyph())
		}
		rows[r] = sb.String()
	}
	return rows
}

// Project maps a board to what a renderer should show. Unattacked ships
// are only shown when showShips is set; hits, misses and ability markers
// are always shown.
func Project(b *Board, showShips bool) View {
	var v View
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			switch b.cells[r][c].State {
			case CellOccupied:
				if showShips {
					v[r][c] = ViewShip
				}
			case CellHit:
				v[r][c] = ViewHit
			case CellMiss:
				v[r][c] = ViewMiss
			case CellRevealed:
				v[r][c] = ViewRevealed
			case CellExposed:
				v[r][c] = ViewExposed
			}
		}
	}
	return v
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(p.String())), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for _, v := range []Phase{PhasePlacement, PhaseCombat, PhaseFinished} {
		if strings.EqualFold(v.String(), string(b)) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown phase: %q", b)
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(o.String())), nil
}

func (o *Orientation) UnmarshalText(b []byte) error {
	for _, v := range []Orientation{Horizontal, Vertical} {
		if strings.EqualFold(v.String(), string(b)) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("unknown orientation: %q", b)
}

// BoardSnapshot is one player's side of a Snapshot.
type BoardSnapshot struct {
	Owner     Player    `json:"owner"`
	Cells     View      `json:"cells"`
	Pending   []string  `json:"pending"`
	Sunk      []string  `json:"sunk"`
	Abilities Abilities `json:"abilities"`
}

// Snapshot is the whole match as seen on the shared screen.
type Snapshot struct {
	Phase       Phase            `json:"phase"`
	Active      Player           `json:"active"`
	Orientation Orientation      `json:"orientation"`
	Winner      Player           `json:"winner,omitempty"`
	Boards      [2]BoardSnapshot `json:"boards"`
	Prompt      string           `json:"prompt"`
}

// Board returns the snapshot of the player's board, or an empty one if
// p is not a player.
func (s Snapshot) Board(p Player) BoardSnapshot {
	if !p.IsValid() {
		return BoardSnapshot{}
	}
	return s.Boards[p-1]
}

// Snapshot projects the match for renderers. During placement only the
// placing player's ships are shown, during combat none, and once the
// match is finished every remaining ship is revealed.
func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		Phase:       m.phase,
		Active:      m.Active(),
		Orientation: m.orientation,
		Winner:      m.winner,
		Prompt:      m.Prompt(),
	}
	for _, p := range []Player{Player1, Player2} {
		ps := m.player(p)
		var show bool
		switch m.phase {
		case PhasePlacement:
			show = p == m.active
		case PhaseFinished:
			show = true
		}
		pending := make([]string, len(ps.Pending))
		for i, id := range ps.Pending {
			pending[i] = id.Name()
		}
		s.Boards[p-1] = BoardSnapshot{
			Owner:     p,
			Cells:     Project(ps.Board, show),
			Pending:   pending,
			Sunk:      append([]string{}, ps.Sunk...),
			Abilities: ps.Used,
		}
	}
	return s
}
