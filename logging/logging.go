// SPDX-License-Identifier: MIT

// Package logging builds the zap-backed logr.Logger used across gravcal.
//
// Verbosity follows logr: V(0) per-mode summaries, V(1) per-trial and
// per-solve diagnostics, V(2) and up reserved for debugging.
package logging

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DEBUG is the verbosity of per-trial diagnostics.
const DEBUG = 1

// New returns a logger that emits records up to verbosity v. Development
// mode uses the console encoder and stack traces on warnings; production
// mode emits JSON.
func New(v int, development bool) (logr.Logger, error) {
	if v < 0 {
		return logr.Discard(), fmt.Errorf("logging: verbosity %d must be >= 0", v)
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	// logr V(n) maps to zap level -n.
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-v))
	cfg.DisableStacktrace = !development

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("logging: %w", err)
	}

	return zapr.NewLogger(zl), nil
}

// IntoContext returns a copy of ctx carrying log.
func IntoContext(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

// FromContext returns the logger carried by ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
