package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yookoala/battleship/comms"
	"github.com/yookoala/battleship/game"
	"github.com/yookoala/battleship/host"
	"github.com/yookoala/battleship/internal/history"
)

var errQuit = errors.New("quit")

// gameClient renders what the host broadcasts and turns typed commands
// into requests. Both players share the one terminal.
type gameClient struct {
	out io.Writer

	lock sync.Mutex
	mw   comms.MessageWriter
	snap *game.Snapshot

	ready chan struct{}
}

func newGameClient(out io.Writer) *gameClient {
	return &gameClient{
		out:   out,
		ready: make(chan struct{}),
	}
}

func (c *gameClient) HandleMessage(ctx context.Context, m comms.Message, mw comms.MessageWriter) error {
	switch m.Type() {
	case comms.TypeSignal:
		switch m.(comms.Signal).Signal() {
		case comms.SignalClientInit:
			c.lock.Lock()
			c.mw = mw
			c.lock.Unlock()
			close(c.ready)
			return mw.WriteMessage(comms.NewRequest(uuid.NewString(), host.RequestState, nil))
		case comms.SignalClientClose:
			fmt.Fprintln(c.out, "disconnected")
		}
		return nil

	case comms.TypeEvent:
		ev := m.(comms.Event)
		switch ev.EventType() {
		case host.EventUpdate:
			var snap game.Snapshot
			if err := ev.ReadDataTo(&snap); err != nil {
				return err
			}
			c.setSnapshot(snap)
			c.render(snap)
		case host.EventFinished:
			var fin host.FinishedEvent
			if err := ev.ReadDataTo(&fin); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "*** %s ***\n", fin.Message)
		}
		return nil

	case comms.TypeResponse:
		return c.handleResponse(m.(comms.Response))
	}
	return fmt.Errorf("unexpected message type: %s", m.Type())
}

func (c *gameClient) handleResponse(resp comms.Response) error {
	if resp.Code() != 200 {
		fmt.Fprintf(c.out, "! %s\n", resp.ErrorString())
		return nil
	}
	switch resp.RequestType() {
	case host.RequestState, host.RequestRestart:
		var snap game.Snapshot
		if err := resp.ReadDataTo(&snap); err != nil {
			return err
		}
		c.setSnapshot(snap)
		c.render(snap)
	case host.RequestPlace, host.RequestFire, host.RequestRecon, host.RequestSonar:
		var res game.Result
		if err := resp.ReadDataTo(&res); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "> %s\n", res.Message)
	case host.RequestPreview:
		var cords []game.Coord
		if err := resp.ReadDataTo(&cords); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "> %v\n", cords)
	case host.RequestRotate:
		var rot host.RotateResponse
		if err := resp.ReadDataTo(&rot); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "> %s\n", rot.Orientation.Label())
	case host.RequestHistory:
		var records []history.Record
		if err := resp.ReadDataTo(&records); err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(c.out, "> no finished match yet")
		}
		for _, r := range records {
			fmt.Fprintf(c.out, "> %s  %s won in %d turns\n",
				r.EndedAt.Local().Format("2006-01-02 15:04"), r.Winner.Label(), r.Turns)
		}
	}
	return nil
}

func (c *gameClient) setSnapshot(snap game.Snapshot) {
	c.lock.Lock()
	c.snap = &snap
	c.lock.Unlock()
}

func (c *gameClient) active() game.Player {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.snap == nil {
		return game.Player1
	}
	return c.snap.Active
}

// render prints both boards side by side, with the prompt below.
func (c *gameClient) render(snap game.Snapshot) {
	var sb strings.Builder
	b1, b2 := snap.Board(game.Player1), snap.Board(game.Player2)
	fmt.Fprintf(&sb, "\n   %-22s   %s\n", game.Player1.Label(), game.Player2.Label())
	fmt.Fprintf(&sb, "   %-22s   %s\n", "0 1 2 3 4 5 6 7 8 9", "0 1 2 3 4 5 6 7 8 9")
	left, right := b1.Cells.Rows(), b2.Cells.Rows()
	for r := range left {
		fmt.Fprintf(&sb, "%2d %-22s%2d %s\n", r, left[r], r, right[r])
	}
	for _, b := range []game.BoardSnapshot{b1, b2} {
		if len(b.Sunk) > 0 {
			fmt.Fprintf(&sb, "%s 擊沉: %s\n", b.Owner.Label(), strings.Join(b.Sunk, ", "))
		}
	}
	if snap.Phase == game.PhasePlacement {
		fmt.Fprintf(&sb, "方向: %s\n", snap.Orientation.Label())
	}
	fmt.Fprintln(&sb, snap.Prompt)
	io.WriteString(c.out, sb.String())
}

// send parses a typed command and writes the request to the host.
func (c *gameClient) send(line string) error {
	requestType, data, err := parseCommand(line, c.active())
	if err != nil {
		return err
	}
	if requestType == "" {
		return nil
	}
	c.lock.Lock()
	mw := c.mw
	c.lock.Unlock()
	if mw == nil {
		return errors.New("not connected")
	}
	return mw.WriteMessage(comms.NewRequest(uuid.NewString(), requestType, data))
}

const usage = `commands:
  place <row> <col>    place the next ship on your board
  preview <row> <col>  show where the next ship would go
  rotate (r)           toggle placement orientation
  fire <row> <col>     attack the opponent board
  recon | sonar        use an ability
  state | restart | history [n] | quit`

// parseCommand maps a typed line to a request. Cell commands target the
// active player's own board while placing and the opponent's board when
// firing.
func parseCommand(line string, active game.Player) (requestType string, data any, err error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return "", nil, nil
	}

	cell := func(board game.Player) (any, error) {
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: %s <row> <col>", fields[0])
		}
		row, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid row: %q", fields[1])
		}
		col, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid col: %q", fields[2])
		}
		return host.CellRequest{Board: board, Row: row, Col: col}, nil
	}

	switch fields[0] {
	case "place", "p":
		data, err = cell(active)
		return host.RequestPlace, data, err
	case "preview":
		data, err = cell(active)
		return host.RequestPreview, data, err
	case "fire", "f":
		data, err = cell(active.Opponent())
		return host.RequestFire, data, err
	case "rotate", "r":
		return host.RequestRotate, nil, nil
	case "recon":
		return host.RequestRecon, nil, nil
	case "sonar":
		return host.RequestSonar, nil, nil
	case "state":
		return host.RequestState, nil, nil
	case "restart":
		return host.RequestRestart, nil, nil
	case "history":
		q := host.HistoryRequest{}
		if len(fields) > 1 {
			if q.Limit, err = strconv.Atoi(fields[1]); err != nil {
				return "", nil, fmt.Errorf("invalid limit: %q", fields[1])
			}
		}
		return host.RequestHistory, q, nil
	case "quit", "exit":
		return "", nil, errQuit
	}
	return "", nil, fmt.Errorf("unknown command: %q\n%s", fields[0], usage)
}
