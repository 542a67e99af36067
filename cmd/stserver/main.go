// Command stserver serves dataset samples over HTTP and WebSocket until it
// receives SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"stflow/internal/app"
	"stflow/internal/infrastructure"
	"stflow/pkg/contracts"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $STFLOW_CONFIG or config.yaml)")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.Bootstrap(context.Background(), *configPath)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
