package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/appsnap/cli/cmd"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx, version); err != nil {
		stop()
		os.Exit(1)
	}
}
