package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Karthik-Ragunath/screencap/config"
	"github.com/Karthik-Ragunath/screencap/internal/app"
	"github.com/Karthik-Ragunath/screencap/internal/cli"
	"github.com/Karthik-Ragunath/screencap/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	// A .env in the working directory is optional; real env vars win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	deps := &cli.Dependencies{
		App:    application,
		Config: cfg,
	}

	return cli.NewRootCmd(deps).Execute()
}
