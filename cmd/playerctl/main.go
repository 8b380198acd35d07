package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/b0bbywan/go-playerctl/cli"
	"github.com/b0bbywan/go-playerctl/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.RunPlayerctl(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	logger.Sync()
	os.Exit(code)
}
