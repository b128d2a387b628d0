package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yookoala/battleship/game"
)

func TestReconRegion(t *testing.T) {
	horizontal := []game.Coord{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}}
	region := game.ReconRegion(horizontal)
	assert.Len(t, region, 15)
	assert.Equal(t, game.Coord{Row: -1, Col: 0}, region[0])
	assert.Equal(t, game.Coord{Row: 1, Col: 4}, region[len(region)-1])

	vertical := []game.Coord{{3, 5}, {4, 5}, {5, 5}, {6, 5}, {7, 5}}
	region = game.ReconRegion(vertical)
	assert.Len(t, region, 15)
	for _, c := range region {
		assert.True(t, c.Row >= 3 && c.Row <= 7, "row of %s", c)
		assert.True(t, c.Col >= 4 && c.Col <= 6, "col of %s", c)
	}

	assert.Nil(t, game.ReconRegion(nil))
}

func TestSonarRegion(t *testing.T) {
	vertical := []game.Coord{{3, 5}, {4, 5}, {5, 5}}
	region := game.SonarRegion(vertical)
	require.Len(t, region, 11)
	assert.Contains(t, region, game.Coord{Row: 2, Col: 5})
	assert.Contains(t, region, game.Coord{Row: 6, Col: 5})
	assert.Contains(t, region, game.Coord{Row: 4, Col: 4})
	assert.NotContains(t, region, game.Coord{Row: 2, Col: 4})

	horizontal := []game.Coord{{0, 0}, {0, 1}, {0, 2}}
	region = game.SonarRegion(horizontal)
	require.Len(t, region, 11)
	assert.Contains(t, region, game.Coord{Row: 0, Col: -1})
	assert.Contains(t, region, game.Coord{Row: 0, Col: 3})
	assert.Contains(t, region, game.Coord{Row: -1, Col: 1})
}

func TestProtectionZone(t *testing.T) {
	cruiser := []game.Coord{{2, 2}, {3, 2}, {4, 2}, {5, 2}}
	zone, ok := game.ProtectionZone(cruiser)
	require.True(t, ok)
	assert.Equal(t, game.Rect{From: game.Coord{Row: 1, Col: 1}, To: game.Coord{Row: 6, Col: 3}}, zone)
	assert.Len(t, zone.Cells(), 18)
	assert.True(t, zone.Contains(game.Coord{Row: 2, Col: 2}))
	assert.False(t, zone.Contains(game.Coord{Row: 2, Col: 4}))

	_, ok = game.ProtectionZone(nil)
	assert.False(t, ok)
}

var (
	// carrier upright at column 3, rows 0-4.
	reconFleet = []spot{{0, 3, true}, {9, 0, false}, {6, 6, false}, {8, 8, false}}

	// cruiser upright at (2,2), destroyer upright next to it at column 4.
	jammingFleet = []spot{{8, 0, false}, {2, 2, true}, {0, 4, true}, {9, 8, false}}
)

func TestRecon_CruiserJamsNearbyCells(t *testing.T) {
	m := combatMatch(t, reconFleet, jammingFleet)

	res, err := m.Recon()
	require.NoError(t, err)

	assert.Equal(t, game.ActionRecon, res.Kind)
	assert.Equal(t, game.OutcomeScanned, res.Outcome)
	assert.Equal(t, []game.Coord{{0, 4}, {1, 4}, {2, 4}}, res.Found)

	opp := m.Board(game.Player2)
	for _, c := range res.Found {
		assert.Equal(t, game.CellRevealed, opp.Cell(c).State)
		assert.Equal(t, game.ShipIDDestroyer, opp.Cell(c).Ship)
	}
	// (2,2) is in the scan and occupied, but inside the cruiser's halo.
	assert.Equal(t, game.CellOccupied, opp.Cell(game.Coord{Row: 2, Col: 2}).State)
	assert.Equal(t, game.CellOccupied, opp.Cell(game.Coord{Row: 3, Col: 2}).State)

	require.NotNil(t, res.Exposed)
	own := m.Board(game.Player1)
	assert.Contains(t, own.ShipCoordinates(game.ShipIDCarrier), *res.Exposed)
	assert.Equal(t, game.CellExposed, own.Cell(*res.Exposed).State)

	assert.True(t, m.AbilitiesUsed(game.Player1).Recon)
	assert.False(t, m.AbilitiesUsed(game.Player1).Sonar)
	assert.Equal(t, game.Player2, m.Active())
	assert.Equal(t, game.Player2, res.Next)
}

func TestRecon_SunkCruiserStillJams(t *testing.T) {
	m := combatMatch(t, reconFleet, jammingFleet)

	// p1 sinks the cruiser at (2..5,2) while p2 misses.
	misses := []game.Coord{{0, 0}, {0, 1}, {0, 2}, {1, 0}}
	for i := 0; i < 4; i++ {
		fire(t, m, 2+i, 2)
		fire(t, m, misses[i].Row, misses[i].Col)
	}
	require.True(t, m.Board(game.Player2).IsSunk(game.ShipIDCruiser))
	require.Equal(t, game.Player1, m.Active())

	res, err := m.Recon()
	require.NoError(t, err)
	assert.Equal(t, []game.Coord{{0, 4}, {1, 4}, {2, 4}}, res.Found)
	assert.NotContains(t, res.Found, game.Coord{Row: 2, Col: 2})
}

func TestRecon_SunkCruiserStillJamsOtherShips(t *testing.T) {
	// submarine upright at (1,3)-(2,3): in the recon scan and inside the
	// cruiser's halo.
	fleet := []spot{{8, 0, false}, {2, 2, true}, {0, 4, true}, {1, 3, true}}
	m := combatMatch(t, reconFleet, fleet)

	misses := []game.Coord{{0, 0}, {0, 1}, {0, 2}, {1, 0}}
	for i := 0; i < 4; i++ {
		fire(t, m, 2+i, 2)
		fire(t, m, misses[i].Row, misses[i].Col)
	}
	require.True(t, m.Board(game.Player2).IsSunk(game.ShipIDCruiser))

	res, err := m.Recon()
	require.NoError(t, err)
	assert.Equal(t, []game.Coord{{0, 4}, {1, 4}, {2, 4}}, res.Found)
	opp := m.Board(game.Player2)
	assert.Equal(t, game.CellOccupied, opp.Cell(game.Coord{Row: 1, Col: 3}).State)
	assert.Equal(t, game.CellOccupied, opp.Cell(game.Coord{Row: 2, Col: 3}).State)
}

func TestRecon_SkipsRevealedCells(t *testing.T) {
	// p1 destroyer upright at (0,5), so its ping covers column 4, rows 0-2.
	fleet := []spot{{0, 3, true}, {9, 0, false}, {0, 5, true}, {8, 8, false}}
	m := combatMatch(t, fleet, jammingFleet)

	res, err := m.Sonar()
	require.NoError(t, err)
	require.Equal(t, []game.Coord{{0, 4}, {1, 4}, {2, 4}}, res.Found)
	fire(t, m, 9, 9) // p2

	res, err = m.Recon()
	require.NoError(t, err)
	assert.Empty(t, res.Found)
	for _, c := range []game.Coord{{0, 4}, {1, 4}, {2, 4}} {
		assert.Equal(t, game.CellRevealed, m.Board(game.Player2).Cell(c).State)
	}
}

func TestRecon_OncePerMatch(t *testing.T) {
	m := combatMatch(t, reconFleet, jammingFleet)

	_, err := m.Recon()
	require.NoError(t, err)
	fire(t, m, 9, 9) // p2

	_, err = m.Recon()
	assert.ErrorIs(t, err, game.ErrAbilityUnavailable)
	assert.Equal(t, game.Player1, m.Active())

	// The other ability is still there.
	_, err = m.Sonar()
	assert.NoError(t, err)
}

func TestRecon_RevealedCellStillAttackable(t *testing.T) {
	m := combatMatch(t, reconFleet, jammingFleet)

	_, err := m.Recon()
	require.NoError(t, err)
	fire(t, m, 9, 9) // p2

	res := fire(t, m, 0, 4)
	assert.Equal(t, game.OutcomeHit, res.Outcome)
	assert.Equal(t, game.CellHit, m.Board(game.Player2).Cell(game.Coord{Row: 0, Col: 4}).State)
}

func TestRecon_ExposedCellStillAttackable(t *testing.T) {
	m := combatMatch(t, reconFleet, jammingFleet)

	res, err := m.Recon()
	require.NoError(t, err)

	hit := fire(t, m, res.Exposed.Row, res.Exposed.Col) // p2 fires at the exposed cell
	assert.Equal(t, game.OutcomeHit, hit.Outcome)
	assert.Equal(t, game.ShipIDCarrier, hit.Ship)
}

func TestRecon_SunkCarrier(t *testing.T) {
	m := combatMatch(t, rowFleet, rowFleet)

	// p1 keeps missing while p2 sinks p1's carrier on row 0.
	for col := 0; col < 5; col++ {
		fire(t, m, 9, col)
		fire(t, m, 0, col)
	}
	require.True(t, m.Board(game.Player1).IsSunk(game.ShipIDCarrier))
	require.Equal(t, game.Player1, m.Active())
	actions := len(m.Actions())

	_, err := m.Recon()
	assert.ErrorIs(t, err, game.ErrAbilityUnavailable)
	assert.Equal(t, "你的航空母艦已被擊沉，無法使用偵察！", game.StatusMessage(err))
	assert.False(t, m.AbilitiesUsed(game.Player1).Recon)
	assert.Equal(t, game.Player1, m.Active())
	assert.Len(t, m.Actions(), actions)
}

func TestSonar_PingsAroundDestroyer(t *testing.T) {
	// p1 destroyer upright at (4,5): rows 4-6. p2 submarine sits at (3,4)-(3,5)
	// with only (3,5) on the ping's extension, and its cruiser runs along
	// column 6, rows 5-8.
	sonarFleet := []spot{{0, 0, false}, {9, 0, false}, {4, 5, true}, {8, 8, false}}
	targetFleet := []spot{{0, 0, false}, {5, 6, true}, {9, 0, false}, {3, 4, false}}
	m := combatMatch(t, sonarFleet, targetFleet)

	res, err := m.Sonar()
	require.NoError(t, err)
	assert.Equal(t, game.ActionSonar, res.Kind)
	assert.Equal(t, game.ShipIDDestroyer, res.Ship)

	// Sonar is not jammed by the cruiser.
	assert.ElementsMatch(t, []game.Coord{{3, 5}, {5, 6}, {6, 6}}, res.Found)

	require.NotNil(t, res.Exposed)
	assert.Contains(t, m.Board(game.Player1).ShipCoordinates(game.ShipIDDestroyer), *res.Exposed)
	assert.True(t, m.AbilitiesUsed(game.Player1).Sonar)
	assert.Equal(t, game.Player2, m.Active())
}

func TestSonar_SkipsHitCells(t *testing.T) {
	sonarFleet := []spot{{0, 0, false}, {9, 0, false}, {4, 5, true}, {8, 8, false}}
	targetFleet := []spot{{0, 0, false}, {5, 6, true}, {9, 0, false}, {3, 4, false}}
	m := combatMatch(t, sonarFleet, targetFleet)

	fire(t, m, 3, 5)    // p1 hits the submarine
	_, err := m.Sonar() // p2
	require.NoError(t, err)

	res, err := m.Sonar() // p1
	require.NoError(t, err)
	assert.ElementsMatch(t, []game.Coord{{5, 6}, {6, 6}}, res.Found)
	assert.Equal(t, game.CellHit, m.Board(game.Player2).Cell(game.Coord{Row: 3, Col: 5}).State)
}

func TestSonar_SunkDestroyer(t *testing.T) {
	m := combatMatch(t, rowFleet, rowFleet)

	// p2 sinks p1's destroyer on row 4.
	for col := 0; col < 3; col++ {
		fire(t, m, 9, col)
		fire(t, m, 4, col)
	}
	_, err := m.Sonar()
	assert.ErrorIs(t, err, game.ErrAbilityUnavailable)
	assert.False(t, m.AbilitiesUsed(game.Player1).Sonar)
	assert.Equal(t, game.Player1, m.Active())

	// Recon is keyed on the carrier, which is still afloat.
	_, err = m.Recon()
	assert.NoError(t, err)
}
