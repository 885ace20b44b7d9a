package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/recruitstat/internal/rostertool"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rostertool.NewRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("rosterctl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
