package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mentordesk/mentordesk/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cli.DefaultOpener).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "mentorctl:", err)
		stop()
		os.Exit(1)
	}
}
