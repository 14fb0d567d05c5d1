// SPDX-License-Identifier: MIT

package logging

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger creates a development logger at DEBUG verbosity that writes
// through t.Log, so output is attached to the test that produced it.
func NewTestLogger(t testing.TB) logr.Logger {
	return zapr.NewLogger(zaptest.NewLogger(t,
		zaptest.Level(zapcore.Level(-DEBUG)),
		zaptest.WrapOptions(zap.AddCaller()),
	))
}

// NewTestLoggerIntoContext creates a test logger and inserts it into ctx.
func NewTestLoggerIntoContext(ctx context.Context, t testing.TB) context.Context {
	return IntoContext(ctx, NewTestLogger(t))
}
