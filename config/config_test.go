// SPDX-License-Identifier: MIT
package config_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/gravcal/config"
	"github.com/stretchr/testify/assert"
)

func valid() config.RunConfig {
	return config.RunConfig{
		ModelRunsDir: "runs",
		OutputDir:    "out",
		OpCode:       config.OpCalibrate,
		Modes:        []config.ModeConfig{{Name: "road", TObs: "t.bin", Dis: "d.bin"}},
		Calibration: config.CalibrationConfig{
			Tolerance: 1e-3, MaxIterations: 100, MaxBracketSteps: 40, Method: "illinois",
			BalanceTolerance: 1e-6, BalanceMaxIterations: 1000,
		},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, valid().Validate())

	cases := map[string]func(*config.RunConfig){
		"opcode":         func(c *config.RunConfig) { c.OpCode = "run" },
		"no output":      func(c *config.RunConfig) { c.OutputDir = "" },
		"no modes":       func(c *config.RunConfig) { c.Modes = nil },
		"unnamed mode":   func(c *config.RunConfig) { c.Modes[0].Name = "" },
		"duplicate mode": func(c *config.RunConfig) { c.Modes = append(c.Modes, c.Modes[0]) },
		"missing dis":    func(c *config.RunConfig) { c.Modes[0].Dis = "" },
		"capacity":       func(c *config.RunConfig) { c.Constraints.Enabled = true },
		"tolerance":      func(c *config.RunConfig) { c.Calibration.Tolerance = 0 },
		"inf tolerance":  func(c *config.RunConfig) { c.Calibration.BalanceTolerance = math.Inf(1) },
		"iterations":     func(c *config.RunConfig) { c.Calibration.BalanceMaxIterations = 0 },
		"method":         func(c *config.RunConfig) { c.Calibration.Method = "newton" },
		"negative logs":  func(c *config.RunConfig) { c.Log.V = -1 },
		"bracket steps":  func(c *config.RunConfig) { c.Calibration.MaxBracketSteps = -3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			c.Modes = append([]config.ModeConfig(nil), c.Modes...)
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), config.ErrInvalid)
		})
	}
}
