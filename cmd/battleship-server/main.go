// Command battleship-server hosts one hot-seat match for the terminal
// client on a unix socket, and for browsers on a websocket if configured.
package main

import (
	"errors"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/yookoala/battleship/comms"
	"github.com/yookoala/battleship/game"
	"github.com/yookoala/battleship/host"
	"github.com/yookoala/battleship/internal/config"
	"github.com/yookoala/battleship/internal/history"
	"github.com/yookoala/battleship/internal/logging"
)

func main() {
	configDir := os.Getenv("BATTLESHIP_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load config")
	}
	logger, err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to set up logging")
	}

	rec, err := history.Open(history.Config{
		Driver: cfg.History.Driver,
		Path:   cfg.History.Path,
		DSN:    cfg.DB.DSN(),
	}, logger.With().Str("component", "history").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("unable to open match history")
	}

	h := host.New(game.NewMatch(), rec)

	// Prepare the input (mq) and output (mw) ends of the match.
	sc := comms.NewSessionCollection()
	sc.OnAdd(func(s *comms.Session) {
		log.Info().Str("session", s.ID()).Int("sessions", sc.Len()).Msg("session added")
	})
	sc.OnRemove(func(s *comms.Session) {
		log.Info().Str("session", s.ID()).Int("sessions", sc.Len()).Msg("session removed")
	})
	mq := comms.NewSimpleMessageQueue(sc, 0) // Fan-in session messages
	mw := comms.NewSimpleMessageBroker(sc)   // Route messages to sessions
	mq.Start(h, mw)

	// A socket file left by a previous run blocks the listener.
	if _, err := os.Stat(cfg.Server.Socket); err == nil {
		log.Warn().Str("socket", cfg.Server.Socket).Msg("removing stale socket")
		if err := os.Remove(cfg.Server.Socket); err != nil {
			log.Fatal().Err(err).Msg("unable to remove stale socket")
		}
	}
	l, err := net.Listen("unix", cfg.Server.Socket)
	if err != nil {
		log.Fatal().Err(err).Str("socket", cfg.Server.Socket).Msg("listen error")
	}
	log.Info().Str("socket", cfg.Server.Socket).Msg("listening")

	closers := []io.Closer{l}
	if cfg.Server.WebSocket != "" {
		srv := &http.Server{
			Addr:    cfg.Server.WebSocket,
			Handler: comms.NewWebSocketServer(mq, sc),
		}
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("websocket listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("websocket server ended")
			}
		}()
		closers = append(closers, srv)
	}
	comms.CloseOnSignal([]os.Signal{os.Interrupt}, closers...)

	// Start passing socket sessions to the message queue.
	if err := comms.StartServer(l, mq); err != nil {
		log.Error().Err(err).Msg("server ended with error")
	}

	mq.Stop()
	mq.Wait()
	if err := rec.Close(); err != nil {
		log.Warn().Err(err).Msg("unable to close match history")
	}
	log.Info().Msg("bye")
}
