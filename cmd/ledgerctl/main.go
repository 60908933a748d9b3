package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/freelanceflow/freelanceflow/cmd/ledgerctl/cli"
	"github.com/freelanceflow/freelanceflow/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	// Operator output goes to stdout; logs stay on stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	root := cli.NewRootCommand(cli.Env{
		Runtime: func(ctx context.Context) (*app.Runtime, error) {
			return app.NewRuntime(ctx, cfg, logger)
		},
		Jobs: func() *cli.JobsCLI {
			return cli.NewJobsCLI(cfg.RedisAddr)
		},
		Out: os.Stdout,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}
