package game

import "fmt"

// Rect is an inclusive rectangle of cells. It may reach off the board.
type Rect struct {
	From Coord `json:"from"`
	To   Coord `json:"to"`
}

// Contains reports whether the coordinate lies inside the rectangle.
func (r Rect) Contains(c Coord) bool {
	return c.Row >= r.From.Row && c.Row <= r.To.Row &&
		c.Col >= r.From.Col && c.Col <= r.To.Col
}

// Cells returns every cell of the rectangle in scan order.
func (r Rect) Cells() []Coord {
	var cords []Coord
	for row := r.From.Row; row <= r.To.Row; row++ {
		for col := r.From.Col; col <= r.To.Col; col++ {
			cords = append(cords, Coord{Row: row, Col: col})
		}
	}
	return cords
}

// isVertical tells the axis of a ship from its scan-ordered cells.
func isVertical(cords []Coord) bool {
	return len(cords) > 1 && cords[0].Col == cords[len(cords)-1].Col
}

// ReconRegion is the area scanned from a ship: the band between its head
// and tail, widened by one cell on each side across the ship's axis.
func ReconRegion(cords []Coord) []Coord {
	if len(cords) == 0 {
		return nil
	}
	head, tail := cords[0], cords[len(cords)-1]
	if isVertical(cords) {
		return Rect{
			From: Coord{Row: head.Row, Col: head.Col - 1},
			To:   Coord{Row: tail.Row, Col: head.Col + 1},
		}.Cells()
	}
	return Rect{
		From: Coord{Row: head.Row - 1, Col: head.Col},
		To:   Coord{Row: head.Row + 1, Col: tail.Col},
	}.Cells()
}

// SonarRegion is the 3x3 block around the middle cell of a ship plus one
// cell beyond each end along the ship's axis.
func SonarRegion(cords []Coord) []Coord {
	if len(cords) == 0 {
		return nil
	}
	head, tail := cords[0], cords[len(cords)-1]
	mid := cords[len(cords)/2]
	region := Rect{
		From: Coord{Row: mid.Row - 1, Col: mid.Col - 1},
		To:   Coord{Row: mid.Row + 1, Col: mid.Col + 1},
	}.Cells()
	if isVertical(cords) {
		return append(region,
			Coord{Row: head.Row - 1, Col: head.Col},
			Coord{Row: tail.Row + 1, Col: tail.Col},
		)
	}
	return append(region,
		Coord{Row: head.Row, Col: head.Col - 1},
		Coord{Row: tail.Row, Col: tail.Col + 1},
	)
}

// ProtectionZone is the ship's extent plus a one cell halo on every side.
// It returns false for a ship that is not on the board.
func ProtectionZone(cords []Coord) (Rect, bool) {
	if len(cords) == 0 {
		return Rect{}, false
	}
	zone := Rect{From: cords[0], To: cords[0]}
	for _, c := range cords[1:] {
		zone.From.Row = min(zone.From.Row, c.Row)
		zone.From.Col = min(zone.From.Col, c.Col)
		zone.To.Row = max(zone.To.Row, c.Row)
		zone.To.Col = max(zone.To.Col, c.Col)
	}
	zone.From.Row--
	zone.From.Col--
	zone.To.Row++
	zone.To.Col++
	return zone, true
}

// ability describes one of the special abilities.
type ability struct {
	kind   ActionKind
	name   string
	anchor ShipID

	// jammer is the opponent ship whose protection zone hides cells from
	// the scan, or ShipUndefined.
	jammer ShipID
	region func([]Coord) []Coord
	used   func(*Abilities) *bool
}

var (
	reconAbility = ability{
		kind:   ActionRecon,
		name:   "偵察",
		anchor: ShipIDCarrier,
		jammer: ShipIDCruiser,
		region: ReconRegion,
		used:   func(a *Abilities) *bool { return &a.Recon },
	}
	sonarAbility = ability{
		kind:   ActionSonar,
		name:   "聲納",
		anchor: ShipIDDestroyer,
		region: SonarRegion,
		used:   func(a *Abilities) *bool { return &a.Sonar },
	}
)

// Recon scans around the active player's carrier. Cells near the
// opponent's cruiser are jammed and never detected. One cell of the
// carrier is exposed to the opponent in return.
func (m *Match) Recon() (*Result, error) {
	return m.useAbility(reconAbility)
}

// Sonar pings around the active player's destroyer. One cell of the
// destroyer is exposed to the opponent in return.
func (m *Match) Sonar() (*Result, error) {
	return m.useAbility(sonarAbility)
}

func (m *Match) useAbility(ab ability) (*Result, error) {
	if m.phase != PhaseCombat {
		return nil, reject(ErrNotYourPhase, "")
	}

	caster, opponent := m.player(m.active), m.player(m.active.Opponent())
	used := ab.used(&caster.Used)
	if *used {
		return nil, reject(ErrAbilityUnavailable, fmt.Sprintf("%s已經使用過了！", ab.name))
	}
	own := caster.Board.ShipCoordinates(ab.anchor)
	if len(own) == 0 || caster.Board.IsSunk(ab.anchor) {
		return nil, reject(ErrAbilityUnavailable,
			fmt.Sprintf("你的%s已被擊沉，無法使用%s！", ab.anchor.Name(), ab.name))
	}

	var zone Rect
	jammed := false
	if ab.jammer != ShipUndefined {
		zone, jammed = ProtectionZone(opponent.Board.ShipCoordinates(ab.jammer))
	}

	var found []Coord
	for _, c := range ab.region(own) {
		if !c.InBounds() || (jammed && zone.Contains(c)) {
			continue
		}
		cell := opponent.Board.Cell(c)
		if cell.State != CellOccupied {
			continue
		}
		opponent.Board.set(c, Cell{State: CellRevealed, Ship: cell.Ship})
		found = append(found, c)
	}

	exposed := m.expose(caster.Board, ab.anchor)
	*used = true

	res := &Result{
		Actor:   m.active,
		Kind:    ab.kind,
		Outcome: OutcomeScanned,
		Ship:    ab.anchor,
		Found:   found,
		Exposed: &exposed,
	}
	if len(found) > 0 {
		res.Message = fmt.Sprintf("%s發現了 %d 個敵方船艦位置！", ab.name, len(found))
	} else {
		res.Message = fmt.Sprintf("%s沒有發現任何船艦。", ab.name)
	}
	res.Message += fmt.Sprintf(" 你的%s位置暴露了！", ab.anchor.Name())
	m.record(res)

	m.switchTurn()
	res.Next = m.active
	res.Message += " " + m.Prompt()
	return res, nil
}

// expose marks one random unhit cell of the ship as visible to the
// opponent. The ship must not be sunk.
func (m *Match) expose(b *Board, id ShipID) Coord {
	var candidates []Coord
	for _, c := range b.ShipCoordinates(id) {
		if b.Cell(c).State != CellHit {
			candidates = append(candidates, c)
		}
	}
	c := candidates[m.rand.Intn(len(candidates))]
	b.set(c, Cell{State: CellExposed, Ship: id})
	return c
}
