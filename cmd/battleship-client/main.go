// Command battleship-client is the shared terminal for a hot-seat match
// hosted by battleship-server.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/yookoala/battleship/comms"
	"github.com/yookoala/battleship/internal/config"
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
	// The board owns stdout, logs go to stderr and default to warnings.
	level := cfg.LogLevel
	if os.Getenv(config.EnvPrefix+"_LOGLEVEL") == "" {
		level = "warn"
	}
	if _, err := logging.Setup(os.Stderr, level, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("unable to set up logging")
	}

	conn, err := net.Dial("unix", cfg.Server.Socket)
	if err != nil {
		log.Fatal().Err(err).Str("socket", cfg.Server.Socket).Msg("unable to connect")
	}
	comms.CloseOnSignal([]os.Signal{os.Interrupt}, conn)

	cli := newGameClient(os.Stdout)
	done := make(chan error, 1)
	go func() {
		done <- comms.StartClient(context.Background(), cli, conn)
	}()

	select {
	case <-cli.ready:
	case err := <-done:
		log.Fatal().Err(err).Msg("unable to start client")
	}
	fmt.Println(usage)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			err := cli.send(scanner.Text())
			if errors.Is(err, errQuit) {
				break
			}
			if err != nil {
				fmt.Println(err)
			}
		}
		conn.Close()
	}()

	if err := <-done; err != nil {
		log.Error().Err(err).Msg("client ended with error")
	}
}
