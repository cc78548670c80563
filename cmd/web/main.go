package main

import (
	"fmt"
	"log/slog"
	"os"

	"fishpulse/internal/app"
	"fishpulse/internal/infrastructure"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run()
}
