package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danielgermany/penny-cli/internal/cli"
	"github.com/danielgermany/penny-cli/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("PENNY_LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	repo := cli.OpenStorage(logger, cfg)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cli.RunTimeout)
	defer cancel()

	// The assistant is optional: without credentials every command still
	// works on stored rules and the heuristic parser.
	var assistant services.Assistant
	var adviser services.Adviser
	if client := cli.NewAssistant(ctx, cfg); client != nil {
		assistant = client
		adviser = client
	}

	app := cli.NewApp(cfg, repo, assistant, adviser, os.Stdout)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "penny: %v\n", err)
		os.Exit(1)
	}
}
