package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marrs-acoustics/reefscape/cmd"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := pipeline.NewRuntime()
	rootCmd := cmd.RootCommand(rt)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = rt.Close()
		stop()
		os.Exit(1)
	}
}
