// SPDX-License-Identifier: MIT

// Package config resolves the immutable run configuration of a calibration.
//
// Sources, highest precedence first: command-line flags, environment
// (GRAVCAL_ prefix, plus the legacy Q2_OpCode), the appsettings file
// (JSON or YAML), defaults.
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime"

	"github.com/katalvlaran/gravcal/balance"
	"github.com/katalvlaran/gravcal/calibrate"
)

// OpCalibrate is the only supported operation code.
const OpCalibrate = "calibrate"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid run configuration")

// ModeConfig names one transport mode and its input matrices, relative to
// the model runs directory unless absolute.
type ModeConfig struct {
	Name string `mapstructure:"name"`
	TObs string `mapstructure:"tobs"`
	Dis  string `mapstructure:"dis"`
}

// ConstraintsConfig controls destination capacity clamping.
type ConstraintsConfig struct {
	Enabled  bool
	Capacity string // capacity vector file (green belt constraints)
	WriteTo  string // attraction write-back file (Constraints_B)
}

// TablesConfig points at the CSV tables.
type TablesConfig struct {
	Population       string
	PopulationColumn string
	ZoneCodes        string
}

// CalibrationConfig mirrors the calibrate and balance options.
type CalibrationConfig struct {
	Tolerance            float64
	MaxIterations        int
	MaxBracketSteps      int
	Method               string
	Workers              int
	BalanceTolerance     float64
	BalanceMaxIterations int
}

// OutputsConfig names the files written into OutputDir.
type OutputsConfig struct {
	Statistics      string // .xml or .yaml
	Manifest        string // inputs listing, empty disables
	MetricsTextfile string // Prometheus textfile, empty disables
}

// LogConfig selects verbosity and encoder.
type LogConfig struct {
	V           int
	Development bool
}

// RunConfig is the resolved configuration of one run. It is a plain value:
// pass it by value and do not mutate it after Load.
type RunConfig struct {
	ModelRunsDir string
	OutputDir    string
	InputsDir    string
	OpCode       string

	Modes       []ModeConfig
	Constraints ConstraintsConfig
	Tables      TablesConfig
	Calibration CalibrationConfig
	Outputs     OutputsConfig
	Log         LogConfig
}

// InputPath resolves name against ModelRunsDir.
func (c RunConfig) InputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.ModelRunsDir, name)
}

// OutputPath resolves name against OutputDir.
func (c RunConfig) OutputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.OutputDir, name)
}

// CalibrateOptions converts the calibration block into calibrate options.
// Workers <= 0 means GOMAXPROCS. Call Validate first.
func (c RunConfig) CalibrateOptions() ([]calibrate.Option, error) {
	method, err := calibrate.ParseMethod(c.Calibration.Method)
	if err != nil {
		return nil, err
	}
	workers := c.Calibration.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return []calibrate.Option{
		calibrate.WithTolerance(c.Calibration.Tolerance),
		calibrate.WithMaxIterations(c.Calibration.MaxIterations),
		calibrate.WithMaxBracketSteps(c.Calibration.MaxBracketSteps),
		calibrate.WithMethod(method),
		calibrate.WithWorkers(workers),
		calibrate.WithBalanceOptions(
			balance.WithTolerance(c.Calibration.BalanceTolerance),
			balance.WithMaxIterations(c.Calibration.BalanceMaxIterations),
		),
	}, nil
}

// Validate fails fast on configurations the pipeline cannot run.
func (c RunConfig) Validate() error {
	if c.OpCode != OpCalibrate {
		return fmt.Errorf("%w: unsupported operation %q (only %q)", ErrInvalid, c.OpCode, OpCalibrate)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalid)
	}
	if len(c.Modes) == 0 {
		return fmt.Errorf("%w: at least one mode is required", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Modes))
	for k, m := range c.Modes {
		if m.Name == "" {
			return fmt.Errorf("%w: mode %d has no name", ErrInvalid, k)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: duplicate mode %q", ErrInvalid, m.Name)
		}
		seen[m.Name] = true
		if m.TObs == "" || m.Dis == "" {
			return fmt.Errorf("%w: mode %q needs both tobs and dis files", ErrInvalid, m.Name)
		}
	}
	if c.Constraints.Enabled && c.Constraints.Capacity == "" {
		return fmt.Errorf("%w: constraints enabled without a capacity file", ErrInvalid)
	}
	cal := c.Calibration
	if !positive(cal.Tolerance) || !positive(cal.BalanceTolerance) {
		return fmt.Errorf("%w: tolerances must be > 0", ErrInvalid)
	}
	if cal.MaxIterations <= 0 || cal.BalanceMaxIterations <= 0 || cal.MaxBracketSteps <= 0 {
		return fmt.Errorf("%w: iteration caps must be > 0", ErrInvalid)
	}
	if _, err := calibrate.ParseMethod(cal.Method); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Log.V < 0 {
		return fmt.Errorf("%w: log verbosity must be >= 0", ErrInvalid)
	}

	return nil
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
