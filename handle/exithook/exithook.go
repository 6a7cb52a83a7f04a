// Package exithook closes resources when the process receives a
// termination signal.
//
// Importing this package installs a process-wide handler for SIGINT,
// SIGTERM, SIGQUIT and SIGTSTP through github.com/dc0d/onexit. The handler
// runs every registered hook but does not end the process; a program that
// imports it owns its own shutdown. Libraries must not import it.
//
//	sc, err := handle.NewSharedConnections()
//	...
//	exithook.CloseOnExit(sc, logger)
package exithook

import (
	"errors"
	"io"
	"log/slog"

	"github.com/dc0d/onexit"

	"github.com/adamwoolhether/fetcher/engine"
)

// CloseOnExit registers c to be closed when a termination signal arrives.
// A nil logger selects slog.Default. Closing something already closed is
// not reported.
func CloseOnExit(c io.Closer, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	onexit.Register(func() {
		if err := c.Close(); err != nil {
			if !errors.Is(err, engine.ErrShareClosed) {
				logger.Error("closing on exit", "error", err)
			}
			return
		}
		logger.Info("closed on exit")
	})
}
