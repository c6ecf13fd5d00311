package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agilira/orpheus/pkg/orpheus"

	"github.com/nanragav/pathbreach/internal/applog"
	"github.com/nanragav/pathbreach/internal/cliapp"
)

func main() {
	logger := applog.Setup(os.Getenv("LOG_LEVEL"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("cancellation signal received")
		cancel()
	}()

	app := cliapp.New(ctx, logger)

	err := app.Run(os.Args[1:])
	if err != nil {
		if orpheusErr, ok := err.(*orpheus.OrpheusError); ok {
			fmt.Fprintf(os.Stderr, "Error: %s\n", orpheusErr.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		}
	}
	os.Exit(cliapp.ExitCode(err))
}
