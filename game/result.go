package game

import (
	"fmt"
	"time"
)

type ActionKind int

const (
	ActionPlace ActionKind = iota + 1
	ActionFire
	ActionRecon
	ActionSonar
)

func (k ActionKind) String() string {
	switch k {
	case ActionPlace:
		return "place"
	case ActionFire:
		return "fire"
	case ActionRecon:
		return "recon"
	case ActionSonar:
		return "sonar"
	default:
		return "unknown"
	}
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ActionKind) UnmarshalText(b []byte) error {
	for _, v := range []ActionKind{ActionPlace, ActionFire, ActionRecon, ActionSonar} {
		if v.String() == string(b) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown action kind: %q", b)
}

type Outcome int

const (
	OutcomePlaced Outcome = iota + 1
	OutcomeMiss
	OutcomeHit
	OutcomeSunk
	OutcomeScanned
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlaced:
		return "placed"
	case OutcomeMiss:
		return "miss"
	case OutcomeHit:
		return "hit"
	case OutcomeSunk:
		return "sunk"
	case OutcomeScanned:
		return "scanned"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	for _, v := range []Outcome{OutcomePlaced, OutcomeMiss, OutcomeHit, OutcomeSunk, OutcomeScanned} {
		if v.String() == string(b) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("unknown outcome: %q", b)
}

// Result describes an accepted operation.
type Result struct {
	Actor   Player     `json:"actor"`
	Kind    ActionKind `json:"kind"`
	Outcome Outcome    `json:"outcome"`
	Target  *Coord     `json:"target,omitempty"`
	Ship    ShipID     `json:"ship,omitempty"`
	Sunk    bool       `json:"sunk,omitempty"`

	// Found lists the opponent cells revealed by an ability.
	Found []Coord `json:"found,omitempty"`

	// Exposed is the caster's own cell given away by an ability.
	Exposed *Coord `json:"exposed,omitempty"`

	// Next is the player to act after this operation.
	Next   Player `json:"next,omitempty"`
	Winner Player `json:"winner,omitempty"`

	Message string `json:"message"`
}

// Action is an entry of the match log.
type Action struct {
	Seq     int        `json:"seq"`
	Actor   Player     `json:"actor"`
	Kind    ActionKind `json:"kind"`
	Target  *Coord     `json:"target,omitempty"`
	Ship    ShipID     `json:"ship,omitempty"`
	Outcome Outcome    `json:"outcome"`
	Found   []Coord    `json:"found,omitempty"`
	Exposed *Coord     `json:"exposed,omitempty"`
	At      time.Time  `json:"at"`
}
