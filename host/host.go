// Package host runs a single match behind the comms message queue.
//
// Every session connected to the host shares the same match: it is a
// hot-seat game, so whoever sends an intent plays for the active player.
// The message queue serializes intents, so the match is only ever touched
// by one goroutine.
package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/yookoala/battleship/comms"
	"github.com/yookoala/battleship/game"
	"github.com/yookoala/battleship/internal/history"
)

// Request types.
const (
	RequestState   = "state"
	RequestPlace   = "place"
	RequestPreview = "preview"
	RequestFire    = "fire"
	RequestRecon   = "recon"
	RequestSonar   = "sonar"
	RequestRotate  = "rotate"
	RequestRestart = "restart"
	RequestHistory = "history"
)

// Event types.
const (
	EventUpdate   = "match:update"
	EventFinished = "match:finished"
)

// CellRequest is the payload of place, preview and fire.
type CellRequest struct {
	Board game.Player `json:"board"`
	Row   int         `json:"row"`
	Col   int         `json:"col"`
}

// HistoryRequest is the payload of history.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// RotateResponse is the data of a rotate response.
type RotateResponse struct {
	Orientation game.Orientation `json:"orientation"`
	Changed     bool             `json:"changed"`
}

// FinishedEvent is the data of a match:finished event.
type FinishedEvent struct {
	Winner   game.Player `json:"winner"`
	RecordID string      `json:"recordID,omitempty"`
	Message  string      `json:"message"`
}

// Host owns one match and answers requests about it.
type Host struct {
	match    *game.Match
	recorder history.Recorder
	recorded bool
}

// New creates a host for the match. rec may be nil, in which case
// finished matches are not kept.
func New(m *game.Match, rec history.Recorder) *Host {
	if rec == nil {
		rec = history.Discard
	}
	return &Host{match: m, recorder: rec}
}

// Match returns the hosted match.
func (h *Host) Match() *game.Match {
	return h.match
}

// HandleMessage implements comms.MessageHandler.
func (h *Host) HandleMessage(ctx context.Context, m comms.Message, mw comms.MessageWriter) error {
	req, ok := m.(comms.Request)
	if !ok || m.Type() != comms.TypeRequest {
		return fmt.Errorf("invalid message type: %v", m.Type())
	}
	l := comms.GetLogger(ctx)
	comms.LogEvent(l.Debug(), m).Msg("request received")

	r := &reply{
		ctx:       ctx,
		sessionID: comms.GetSessionID(ctx),
		req:       req,
		mw:        mw,
		log:       l,
	}

	switch req.RequestType() {
	case RequestState:
		return r.ok(h.match.Snapshot())

	case RequestPlace:
		var c CellRequest
		if err := req.ReadDataTo(&c); err != nil {
			return r.badRequest(err)
		}
		return h.apply(r, func() (*game.Result, error) {
			return h.match.PlaceShip(c.Board, c.Row, c.Col)
		})

	case RequestPreview:
		var c CellRequest
		if err := req.ReadDataTo(&c); err != nil {
			return r.badRequest(err)
		}
		cords, err := h.match.PreviewPlacement(c.Board, c.Row, c.Col)
		if err != nil {
			return r.rejected(err)
		}
		return r.ok(cords)

	case RequestFire:
		var c CellRequest
		if err := req.ReadDataTo(&c); err != nil {
			return r.badRequest(err)
		}
		return h.apply(r, func() (*game.Result, error) {
			return h.match.Fire(c.Board, c.Row, c.Col)
		})

	case RequestRecon:
		return h.apply(r, h.match.Recon)

	case RequestSonar:
		return h.apply(r, h.match.Sonar)

	case RequestRotate:
		o, changed := h.match.ToggleOrientation()
		err := r.ok(RotateResponse{Orientation: o, Changed: changed})
		if changed {
			err = errors.Join(err, h.broadcast(r))
		}
		return err

	case RequestRestart:
		h.match.Restart()
		h.recorded = false
		l.Info().Msg("match restarted")
		return errors.Join(r.ok(h.match.Snapshot()), h.broadcast(r))

	case RequestHistory:
		var q HistoryRequest
		if err := req.ReadDataTo(&q); err != nil && !errors.Is(err, comms.ErrNoData) {
			return r.badRequest(err)
		}
		records, err := h.recorder.Recent(ctx, q.Limit)
		if err != nil {
			l.Error().Err(err).Msg("unable to read match history")
			return r.fail(http.StatusInternalServerError, "history unavailable", err)
		}
		return r.ok(records)
	}

	return r.fail(http.StatusNotFound, "unknown request", fmt.Errorf("unknown request type: %s", req.RequestType()))
}

// apply runs a match operation, answers the requester and, on success,
// broadcasts the new snapshot.
func (h *Host) apply(r *reply, op func() (*game.Result, error)) error {
	res, err := op()
	if err != nil {
		return r.rejected(err)
	}
	r.log.Info().
		Str("actor", res.Actor.String()).
		Str("kind", res.Kind.String()).
		Str("outcome", res.Outcome.String()).
		Msg(res.Message)

	// The requester may be gone; everyone else still gets the update.
	err = errors.Join(r.ok(res), h.broadcast(r))
	if h.match.Phase() == game.PhaseFinished && !h.recorded {
		err = errors.Join(err, h.finish(r))
	}
	return err
}

// finish records the finished match and announces the winner.
func (h *Host) finish(r *reply) error {
	h.recorded = true
	ev := FinishedEvent{
		Winner:  h.match.Winner(),
		Message: h.match.Prompt(),
	}

	rec, err := history.NewRecord(h.match)
	if err == nil {
		err = h.recorder.Save(r.ctx, rec)
	}
	if err != nil {
		r.log.Error().Err(err).Msg("unable to record finished match")
	} else {
		ev.RecordID = rec.ID
	}
	r.log.Info().Str("winner", ev.Winner.String()).Str("record", ev.RecordID).Msg("match finished")

	return r.mw.WriteMessage(comms.NewEvent(EventFinished, ev))
}

func (h *Host) broadcast(r *reply) error {
	return r.mw.WriteMessage(comms.NewEvent(EventUpdate, h.match.Snapshot()))
}

// reply writes responses to the session that sent req.
type reply struct {
	ctx       context.Context
	sessionID string
	req       comms.Request
	mw        comms.MessageWriter
	log       *zerolog.Logger
}

func (r *reply) ok(data any) error {
	return r.mw.WriteMessage(comms.NewResponse(
		r.sessionID,
		r.req.RequestID(),
		r.req.RequestType(),
		http.StatusOK,
		"success",
		data,
	))
}

func (r *reply) fail(code int, response string, err error) error {
	return r.mw.WriteMessage(comms.NewErrorResponse(
		r.sessionID,
		r.req.RequestID(),
		r.req.RequestType(),
		code,
		response,
		err.Error(),
	))
}

func (r *reply) badRequest(err error) error {
	r.log.Warn().Err(err).Str("request", r.req.RequestType()).Msg("bad request payload")
	return r.fail(http.StatusBadRequest, "bad request", err)
}

// rejected answers with the rejection reason code and its status text.
func (r *reply) rejected(err error) error {
	var reason game.Reason
	if !errors.As(err, &reason) {
		return r.fail(http.StatusInternalServerError, "error", err)
	}
	r.log.Debug().Str("reason", reason.Code()).Msg("request rejected")
	return r.fail(http.StatusConflict, reason.Code(), errors.New(game.StatusMessage(err)))
}
