// Command usagewiden joins a monthly usage report onto a master table,
// adding one column per resource.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.Default().Error().Err(err).Msg("usagewiden failed")
		cancel()
		os.Exit(1)
	}
	cancel()
}
