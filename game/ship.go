package game

import "fmt"

const (
	BoardSize = 10

	// FleetSize is the number of ships a player has to sink to win.
	FleetSize = 4
)

type ShipID int

const (
	ShipUndefined ShipID = iota
	ShipIDCarrier
	ShipIDCruiser
	ShipIDDestroyer
	ShipIDSubmarine
)

func (s ShipID) String() string {
	switch s {
	case ShipIDCarrier:
		return "Carrier"
	case ShipIDCruiser:
		return "Cruiser"
	case ShipIDDestroyer:
		return "Destroyer"
	case ShipIDSubmarine:
		return "Submarine"
	default:
		return "Unknown"
	}
}

// Name returns the display name of the ship used in status messages.
func (s ShipID) Name() string {
	switch s {
	case ShipIDCarrier:
		return "航空母艦"
	case ShipIDCruiser:
		return "巡洋艦"
	case ShipIDDestroyer:
		return "驅逐艦"
	case ShipIDSubmarine:
		return "潛艇"
	default:
		return ""
	}
}

func (s ShipID) IsValid() bool {
	return s >= ShipIDCarrier && s <= ShipIDSubmarine
}

func (s ShipID) Size() int {
	switch s {
	case ShipIDCarrier:
		return 5
	case ShipIDCruiser:
		return 4
	case ShipIDDestroyer:
		return 3
	case ShipIDSubmarine:
		return 2
	default:
		return 0
	}
}

// Roster returns the fixed fleet in placement order.
func Roster() []ShipID {
	return []ShipID{
		ShipIDCarrier,
		ShipIDCruiser,
		ShipIDDestroyer,
		ShipIDSubmarine,
	}
}

type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "Horizontal"
	case Vertical:
		return "Vertical"
	default:
		return "Unknown"
	}
}

// Label returns the display label of the orientation.
func (o Orientation) Label() string {
	if o == Vertical {
		return "直向"
	}
	return "橫向"
}

// Toggle returns the other orientation.
func (o Orientation) Toggle() Orientation {
	if o == Vertical {
		return Horizontal
	}
	return Vertical
}

// step returns the row and column increment along the orientation axis.
func (o Orientation) step() (dr, dc int) {
	if o == Vertical {
		return 1, 0
	}
	return 0, 1
}

// Coord is a cell position on a board.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// InBounds reports whether the coordinate lies on the board.
func (c Coord) InBounds() bool {
	return c.Row >= 0 && c.Row < BoardSize && c.Col >= 0 && c.Col < BoardSize
}

// ShipPlacement represents a ship's placement.
type ShipPlacement struct {
	ID          ShipID      `json:"id"`
	Anchor      Coord       `json:"anchor"`
	Orientation Orientation `json:"orientation"`
}

func (sp ShipPlacement) String() string {
	return fmt.Sprintf("%s at %s %s", sp.ID, sp.Anchor, sp.Orientation)
}

// Coordinates returns the cells the placement would occupy, anchor first.
// The cells are not bound checked.
func (sp ShipPlacement) Coordinates() []Coord {
	dr, dc := sp.Orientation.step()
	cords := make([]Coord, sp.ID.Size())
	for i := range cords {
		cords[i] = Coord{Row: sp.Anchor.Row + i*dr, Col: sp.Anchor.Col + i*dc}
	}
	return cords
}
