// Command ledger executes one JSON command read from stdin and writes the
// JSON response to stdout. The exit status is 0 on success, 1 when the
// command was rejected and 2 when ledger storage failed.
package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/app"
	"github.com/smarttransit/route-ledger/internal/config"
	"github.com/smarttransit/route-ledger/internal/processor"
)

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr))
}

func run(stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stdout carries the response, so logs go to stderr
	logrus.SetOutput(stderr)
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("Failed to load configuration")
		writeJSON(stdout, map[string]string{"error": err.Error()})
		return processor.ExitFatal
	}
	logger := app.NewLogger(cfg.Server.LogLevel, stderr)

	req, err := processor.DecodeRequest(stdin)
	if err != nil {
		writeJSON(stdout, map[string]string{"error": err.Error()})
		return processor.ExitFailure
	}

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize ledger runtime")
		writeJSON(stdout, map[string]string{"error": err.Error()})
		return processor.ExitFatal
	}
	defer rt.Close()

	res := rt.Processor.Execute(ctx, req)
	if err := writeJSON(stdout, res.Payload()); err != nil {
		logger.WithError(err).Error("Failed to write response")
		return processor.ExitFatal
	}
	return res.ExitCode()
}

func writeJSON(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}
