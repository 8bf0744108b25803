package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	graphctlcmd "github.com/telekom/graphctl/pkg/graphctl/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := graphctlcmd.DefaultConfig()
	cfg.Context = ctx
	if err := graphctlcmd.Execute(cfg, args); err != nil {
		return 1
	}
	return 0
}
