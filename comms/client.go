package comms

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/rs/zerolog/log"
)

// Client side signals sent to the MessageHandler by StartClient.
const (
	SignalClientInit  = "client:init"
	SignalClientClose = "client:close"
)

// StartClient reads the greeting from conn, then feeds every message
// received to the MessageHandler until the connection is closed. The
// handler writes back to the server through the session.
//
// The handler first gets a "client:init" signal, carrying the greeting,
// and a "client:close" signal once the connection ends.
func StartClient(ctx context.Context, mh MessageHandler, conn io.ReadWriteCloser) error {
	sess, greeting, err := NewSessionFromConn(conn)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx = WithSessionID(ctx, sess.ID())
	ctx = WithLogger(ctx, log.With().Str("session", sess.ID()).Logger())

	if err := mh.HandleMessage(ctx, NewSignal(SignalClientInit, greeting), sess); err != nil {
		return err
	}

	for {
		m, err := sess.ReadMessage()
		if err == io.EOF || errors.Is(err, net.ErrClosed) {
			return mh.HandleMessage(ctx, NewSignal(SignalClientClose, nil), sess)
		}
		if errors.Is(err, ErrMalformedMessage) {
			GetLogger(ctx).Warn().Err(err).Msg("skip malformed message")
			continue
		}
		if err != nil {
			return err
		}
		if err := mh.HandleMessage(ctx, m, sess); err != nil {
			GetLogger(ctx).Error().Err(err).Msg("unexpected handle error")
		}
	}
}
