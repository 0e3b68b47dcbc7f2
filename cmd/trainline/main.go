package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"trainline.dev/trainline/internal/cli"
	"trainline.dev/trainline/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	tui.ConfigureColors()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewRootCmd(version, commit, date))
	stop()
	os.Exit(code)
}
