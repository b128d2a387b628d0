package game

type CellState int

const (
	CellEmpty CellState = iota
	CellOccupied
	CellHit
	CellMiss
	CellRevealed
	CellExposed
)

func (s CellState) String() string {
	switch s {
	case CellEmpty:
		return "Empty"
	case CellOccupied:
		return "Occupied"
	case CellHit:
		return "Hit"
	case CellMiss:
		return "Miss"
	case CellRevealed:
		return "Revealed"
	case CellExposed:
		return "Exposed"
	default:
		return "Unknown"
	}
}

// Cell is a single board cell. Ship is set for every state that sits on a
// ship (Occupied, Hit, Revealed, Exposed) and is ShipUndefined otherwise.
type Cell struct {
	State CellState `json:"state"`
	Ship  ShipID    `json:"ship,omitempty"`
}

// HasShip reports whether a ship occupies the cell, attacked or not.
func (c Cell) HasShip() bool {
	return c.Ship != ShipUndefined
}

// Attacked reports whether the cell has been fired at.
func (c Cell) Attacked() bool {
	return c.State == CellHit || c.State == CellMiss
}

// Visible reports whether an ability already shows the ship on the cell
// to the opponent.
func (c Cell) Visible() bool {
	return c.State == CellRevealed || c.State == CellExposed
}

// Board is one player's grid together with the ships placed on it.
type Board struct {
	cells      [BoardSize][BoardSize]Cell
	placements []ShipPlacement
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Cell returns the cell at the coordinate. The coordinate must be in
// bounds.
func (b *Board) Cell(c Coord) Cell {
	return b.cells[c.Row][c.Col]
}

func (b *Board) set(c Coord, cell Cell) {
	b.cells[c.Row][c.Col] = cell
}

// Placements returns the ships placed so far, in placement order.
func (b *Board) Placements() []ShipPlacement {
	out := make([]ShipPlacement, len(b.placements))
	copy(out, b.placements)
	return out
}

// Placement returns the placement of the given ship, if placed.
func (b *Board) Placement(id ShipID) (ShipPlacement, bool) {
	for _, p := range b.placements {
		if p.ID == id {
			return p, true
		}
	}
	return ShipPlacement{}, false
}

// ValidatePlacement checks a placement against the board. Bounds are
// checked before overlap.
func (b *Board) ValidatePlacement(sp ShipPlacement) error {
	if !sp.ID.IsValid() {
		return ErrOutOfBounds
	}
	cords := sp.Coordinates()
	for _, c := range cords {
		if !c.InBounds() {
			return ErrOutOfBounds
		}
	}
	for _, c := range cords {
		if b.Cell(c).State != CellEmpty {
			return ErrOverlapping
		}
	}
	return nil
}

// ApplyPlacement occupies the placement cells. The placement is
// validated again and rejected the same way ValidatePlacement does.
func (b *Board) ApplyPlacement(sp ShipPlacement) error {
	if err := b.ValidatePlacement(sp); err != nil {
		return err
	}
	for _, c := range sp.Coordinates() {
		b.set(c, Cell{State: CellOccupied, Ship: sp.ID})
	}
	b.placements = append(b.placements, sp)
	return nil
}

// ShipCoordinates returns every cell of the ship in row-then-column scan
// order. The first element is the head and the last the tail.
func (b *Board) ShipCoordinates(id ShipID) []Coord {
	if id == ShipUndefined {
		return nil
	}
	var cords []Coord
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b.cells[row][col].Ship == id {
				cords = append(cords, Coord{Row: row, Col: col})
			}
		}
	}
	return cords
}

// IsSunk returns true if the ship is placed and every one of its cells is
// hit.
func (b *Board) IsSunk(id ShipID) bool {
	cords := b.ShipCoordinates(id)
	if len(cords) == 0 {
		return false
	}
	for _, c := range cords {
		if b.Cell(c).State != CellHit {
			return false
		}
	}
	return true
}

// receiveFire resolves a shot on the board.
func (b *Board) receiveFire(c Coord) (hit ShipID, err error) {
	cell := b.Cell(c)
	if cell.Attacked() {
		return ShipUndefined, ErrAlreadyAttacked
	}
	if !cell.HasShip() {
		b.set(c, Cell{State: CellMiss})
		return ShipUndefined, nil
	}
	b.set(c, Cell{State: CellHit, Ship: cell.Ship})
	return cell.Ship, nil
}

func (b *Board) clone() *Board {
	c := &Board{cells: b.cells}
	c.placements = append([]ShipPlacement(nil), b.placements...)
	return c
}
