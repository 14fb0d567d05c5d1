// SPDX-License-Identifier: MIT
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/gravcal/calibrate"
	"github.com/katalvlaran/gravcal/config"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSettings = `
dirs:
  ModelRunsDir: /data/runs
  OutputDir: file-out
opcode: calibrate
modes:
  - name: road
    tobs: TObs_1.bin
    dis: dis_roads_min.bin
  - name: rail
    tobs: TObs_3.bin.sz
    dis: dis_rail_min.bin.sz
tables:
  GreenBeltConstraints: GreenBeltConstraints.bin
  Constraints_B: Constraints_B.bin
  ZoneCodes: ZoneCodesText.csv
constraints:
  enabled: true
calibration:
  tolerance: 0.01
  method: bisection
  workers: 2
`

const legacyJSON = `{
  "dirs": { "ModelRunsDir": "model-runs", "OutputDir": "outputs" },
  "matrices": {
    "TObs1": "TObs_1.bin", "TObs2": "TObs_2.bin", "TObs3": "TObs_3.bin",
    "dis_roads": "dis_roads_min.bin", "dis_buses": "dis_bus_min.bin", "dis_rail": "dis_gbrail_min.bin"
  },
  "tables": { "PopulationArea": "EWS_Population.csv", "ZoneCodes": "EWS_ZoneCodes.csv" }
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func flags(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("gravcal", flag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse(args))

	return fs
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "appsettings.yaml", yamlSettings)

	cfg, err := config.Load(flags(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "/data/runs", cfg.ModelRunsDir)
	assert.Equal(t, "file-out", cfg.OutputDir)
	assert.Equal(t, "inputs", cfg.InputsDir)
	assert.Equal(t, []config.ModeConfig{
		{Name: "road", TObs: "TObs_1.bin", Dis: "dis_roads_min.bin"},
		{Name: "rail", TObs: "TObs_3.bin.sz", Dis: "dis_rail_min.bin.sz"},
	}, cfg.Modes)
	assert.True(t, cfg.Constraints.Enabled)
	assert.Equal(t, "GreenBeltConstraints.bin", cfg.Constraints.Capacity)
	assert.Equal(t, "Constraints_B.bin", cfg.Constraints.WriteTo)
	assert.Equal(t, 0.01, cfg.Calibration.Tolerance)
	assert.Equal(t, 100, cfg.Calibration.MaxIterations)
	assert.Equal(t, "bisection", cfg.Calibration.Method)
	assert.Equal(t, 2, cfg.Calibration.Workers)
	assert.Equal(t, 1e-6, cfg.Calibration.BalanceTolerance)
	assert.Equal(t, "StatisticsData.xml", cfg.Outputs.Statistics)
	assert.Equal(t, "files.txt", cfg.Outputs.Manifest)
	assert.Equal(t, "population", cfg.Tables.PopulationColumn)

	assert.Equal(t, "/data/runs/TObs_1.bin", cfg.InputPath("TObs_1.bin"))
	assert.Equal(t, "/abs/x.bin", cfg.InputPath("/abs/x.bin"))
	assert.Equal(t, filepath.Join("file-out", "TPred_1.bin"), cfg.OutputPath("TPred_1.bin"))
}

func TestLoad_LegacyJSONKeys(t *testing.T) {
	path := writeFile(t, "appsettings.json", legacyJSON)

	cfg, err := config.Load(flags(t, "--config", path))
	require.NoError(t, err)
	require.Len(t, cfg.Modes, 3)
	assert.Equal(t, config.ModeConfig{Name: "road", TObs: "TObs_1.bin", Dis: "dis_roads_min.bin"}, cfg.Modes[0])
	assert.Equal(t, "bus", cfg.Modes[1].Name)
	assert.Equal(t, "dis_gbrail_min.bin", cfg.Modes[2].Dis)
	assert.Equal(t, "EWS_Population.csv", cfg.Tables.Population)
	assert.False(t, cfg.Constraints.Enabled)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "appsettings.yaml", yamlSettings)
	t.Setenv("GRAVCAL_DIRS_OUTPUTDIR", "env-out")
	t.Setenv("GRAVCAL_CALIBRATION_WORKERS", "5")

	cfg, err := config.Load(flags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "env-out", cfg.OutputDir, "env beats file")
	assert.Equal(t, 5, cfg.Calibration.Workers)

	cfg, err = config.Load(flags(t, "--config", path, "--output-dir", "flag-out", "-v", "2"))
	require.NoError(t, err)
	assert.Equal(t, "flag-out", cfg.OutputDir, "flag beats env")
	assert.Equal(t, 2, cfg.Log.V)
	assert.Equal(t, 5, cfg.Calibration.Workers, "unset flag does not mask env")
}

func TestLoad_OpCodeFromLegacyEnv(t *testing.T) {
	path := writeFile(t, "appsettings.yaml", yamlSettings)
	t.Setenv("Q2_OpCode", "simulate")

	_, err := config.Load(flags(t, "--config", path))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(nil)
	assert.ErrorIs(t, err, config.ErrInvalid, "no modes configured")

	_, err = config.Load(flags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestCalibrateOptions(t *testing.T) {
	path := writeFile(t, "appsettings.yaml", yamlSettings)
	cfg, err := config.Load(flags(t, "--config", path))
	require.NoError(t, err)

	opts, err := cfg.CalibrateOptions()
	require.NoError(t, err)
	o := calibrate.NewOptions(opts...)
	assert.Equal(t, 0.01, o.Tolerance())
	assert.Equal(t, calibrate.Bisection, o.Method())
	assert.Equal(t, 2, o.Workers())
}
