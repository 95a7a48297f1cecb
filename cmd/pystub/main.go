package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teranos/pystub/cmd/pystub/commands"
	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.RootCmd.ExecuteContext(ctx)
	stop()
	logger.Cleanup()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode follows check's contract: 1 for stale stubs, 2 for failures.
func exitCode(err error) int {
	if errors.Is(err, errors.ErrStale) {
		return 1
	}
	return 2
}
