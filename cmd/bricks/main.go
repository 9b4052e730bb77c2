package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ormtour/internal/cli"
	applog "ormtour/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := cli.NewBricks(os.Stdout, os.Stderr).Execute(ctx, os.Args[1:])
	stop()
	_ = applog.Sync()
	os.Exit(code)
}
