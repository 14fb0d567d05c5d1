// SPDX-License-Identifier: MIT

// Command gravcal calibrates the doubly-constrained gravity model for every
// configured transport mode and writes the predictions and statistics.
//
//	gravcal --config appsettings.yaml --workers 3 -v 1
//
// Exit codes: 0 success, 1 configuration or I/O failure, 2 some modes failed
// (their outputs are missing, the rest are written).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/katalvlaran/gravcal/config"
	"github.com/katalvlaran/gravcal/logging"
	"github.com/katalvlaran/gravcal/pipeline"
	flag "github.com/spf13/pflag"
)

const (
	exitFailure     = 1
	exitModesFailed = 2
)

func main() {
	fs := flag.NewFlagSet("gravcal", flag.ExitOnError)
	config.BindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	os.Exit(run(fs))
}

func run(fs *flag.FlagSet) int {
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gravcal: %v\n", err)
		return exitFailure
	}
	log, err := logging.New(cfg.Log.V, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gravcal: %v\n", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, log.WithName("gravcal"))

	sum, err := pipeline.New(cfg).Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrModesFailed):
		log.Error(err, "run finished with failed modes", "outputs", len(sum.Written))
		return exitModesFailed
	case err != nil:
		log.Error(err, "run failed")
		return exitFailure
	}
	log.Info("run finished", "outputs", len(sum.Written))

	return 0
}
