package comms

import (
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
)

// CloseOnSignal closes the Closers, in order, when any of the specified
// OS signals is sent to the process.
func CloseOnSignal(sig []os.Signal, cls ...io.Closer) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig...)
	go func() {
		s := <-ch
		signal.Stop(ch)
		log.Info().Str("signal", s.String()).Msg("shutting down")
		for _, cl := range cls {
			if err := cl.Close(); err != nil {
				log.Warn().Err(err).Msg("error on close")
			}
		}
	}()
}
