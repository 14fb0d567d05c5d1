// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Viper keys. Nested keys follow the appsettings layout (dirs:*, tables:*).
const (
	keyModelRunsDir = "dirs.modelrunsdir"
	keyOutputDir    = "dirs.outputdir"
	keyInputsDir    = "dirs.inputsdir"
	keyOpCode       = "opcode"
	keyModes        = "modes"

	keyConstraintsEnabled = "constraints.enabled"
	keyCapacity           = "tables.greenbeltconstraints"
	keyConstraintsB       = "tables.constraints_b"
	keyPopulation         = "tables.populationarea"
	keyPopulationColumn   = "tables.populationcolumn"
	keyZoneCodes          = "tables.zonecodes"

	keyTolerance        = "calibration.tolerance"
	keyMaxIterations    = "calibration.maxiterations"
	keyMaxBracketSteps  = "calibration.maxbracketsteps"
	keyMethod           = "calibration.method"
	keyWorkers          = "calibration.workers"
	keyBalanceTolerance = "balance.tolerance"
	keyBalanceMaxIter   = "balance.maxiterations"

	keyStatistics      = "outputs.statistics"
	keyManifest        = "outputs.manifest"
	keyMetricsTextfile = "outputs.metricstextfile"

	keyLogV   = "log.v"
	keyLogDev = "log.development"
)

// EnvPrefix prefixes every environment override: GRAVCAL_DIRS_OUTPUTDIR etc.
const EnvPrefix = "GRAVCAL"

// FlagConfig names the flag that selects the appsettings file.
const FlagConfig = "config"

// flagBindings maps viper keys to pflag names.
var flagBindings = map[string]string{
	keyModelRunsDir:       "model-runs-dir",
	keyOutputDir:          "output-dir",
	keyInputsDir:          "inputs-dir",
	keyOpCode:             "opcode",
	keyConstraintsEnabled: "constraints",
	keyTolerance:          "tolerance",
	keyMaxIterations:      "max-iterations",
	keyMethod:             "method",
	keyWorkers:            "workers",
	keyStatistics:         "statistics",
	keyMetricsTextfile:    "metrics-textfile",
	keyLogV:               "v",
	keyLogDev:             "dev",
}

// legacyModes are the three modes of the original appsettings layout.
var legacyModes = []struct{ name, tobs, dis string }{
	{"road", "matrices.tobs1", "matrices.dis_roads"},
	{"bus", "matrices.tobs2", "matrices.dis_buses"},
	{"gbrail", "matrices.tobs3", "matrices.dis_rail"},
}

// BindFlags registers the command-line flags understood by Load.
func BindFlags(fs *flag.FlagSet) {
	fs.String(FlagConfig, "", "appsettings file (JSON or YAML); default ./appsettings.{json,yaml} if present")
	fs.String("model-runs-dir", "", "directory holding the input matrices and tables")
	fs.String("output-dir", "", "directory receiving TPred, statistics and CSV outputs")
	fs.String("inputs-dir", "", "directory listed into the inputs manifest")
	fs.String("opcode", "", "operation to run (only \"calibrate\")")
	fs.Bool("constraints", false, "clamp destinations to the green belt capacity vector")
	fs.Float64("tolerance", 0, "beta search tolerance on CBar, minutes")
	fs.Int("max-iterations", 0, "cap on balancing solves per mode")
	fs.String("method", "", "root finder: illinois or bisection")
	fs.Int("workers", 0, "modes calibrated in parallel (0 = GOMAXPROCS)")
	fs.String("statistics", "", "statistics report file name (.xml or .yaml)")
	fs.String("metrics-textfile", "", "write Prometheus metrics to this file")
	fs.IntP("v", "v", 0, "log verbosity")
	fs.Bool("dev", false, "human-readable development logging")
}

// Load resolves a RunConfig and validates it (fail-fast).
// Precedence: flags > env > appsettings file > defaults.
// flagSet may be nil (e.g. in tests that don't set CLI flags).
func Load(flagSet *flag.FlagSet) (RunConfig, error) {
	v := viper.New()
	setDefaults(v)

	if err := readConfigFile(v, flagSet); err != nil {
		return RunConfig{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(keyOpCode, EnvPrefix+"_OPCODE", "Q2_OpCode", "Q2_OPCODE")

	if flagSet != nil {
		for key, name := range flagBindings {
			if f := flagSet.Lookup(name); f != nil && f.Changed {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	cfg := RunConfig{
		ModelRunsDir: v.GetString(keyModelRunsDir),
		OutputDir:    v.GetString(keyOutputDir),
		InputsDir:    v.GetString(keyInputsDir),
		OpCode:       strings.ToLower(strings.TrimSpace(v.GetString(keyOpCode))),
		Constraints: ConstraintsConfig{
			Enabled:  v.GetBool(keyConstraintsEnabled),
			Capacity: v.GetString(keyCapacity),
			WriteTo:  v.GetString(keyConstraintsB),
		},
		Tables: TablesConfig{
			Population:       v.GetString(keyPopulation),
			PopulationColumn: v.GetString(keyPopulationColumn),
			ZoneCodes:        v.GetString(keyZoneCodes),
		},
		Calibration: CalibrationConfig{
			Tolerance:            v.GetFloat64(keyTolerance),
			MaxIterations:        v.GetInt(keyMaxIterations),
			MaxBracketSteps:      v.GetInt(keyMaxBracketSteps),
			Method:               v.GetString(keyMethod),
			Workers:              v.GetInt(keyWorkers),
			BalanceTolerance:     v.GetFloat64(keyBalanceTolerance),
			BalanceMaxIterations: v.GetInt(keyBalanceMaxIter),
		},
		Outputs: OutputsConfig{
			Statistics:      v.GetString(keyStatistics),
			Manifest:        v.GetString(keyManifest),
			MetricsTextfile: v.GetString(keyMetricsTextfile),
		},
		Log: LogConfig{
			V:           v.GetInt(keyLogV),
			Development: v.GetBool(keyLogDev),
		},
	}

	modes, err := loadModes(v)
	if err != nil {
		return RunConfig{}, err
	}
	cfg.Modes = modes

	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyModelRunsDir, "model-runs")
	v.SetDefault(keyOutputDir, "outputs")
	v.SetDefault(keyInputsDir, "inputs")
	v.SetDefault(keyOpCode, OpCalibrate)
	v.SetDefault(keyConstraintsEnabled, false)
	v.SetDefault(keyPopulationColumn, "population")
	v.SetDefault(keyTolerance, 1e-3)
	v.SetDefault(keyMaxIterations, 100)
	v.SetDefault(keyMaxBracketSteps, 40)
	v.SetDefault(keyMethod, "illinois")
	v.SetDefault(keyWorkers, 0)
	v.SetDefault(keyBalanceTolerance, 1e-6)
	v.SetDefault(keyBalanceMaxIter, 1000)
	v.SetDefault(keyStatistics, "StatisticsData.xml")
	v.SetDefault(keyManifest, "files.txt")
	v.SetDefault(keyMetricsTextfile, "")
	v.SetDefault(keyLogV, 0)
	v.SetDefault(keyLogDev, false)
}

// readConfigFile loads the --config file, or ./appsettings.* when present.
func readConfigFile(v *viper.Viper, flagSet *flag.FlagSet) error {
	var path string
	if flagSet != nil {
		if f := flagSet.Lookup(FlagConfig); f != nil {
			path = f.Value.String()
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", path, err)
		}

		return nil
	}

	v.SetConfigName("appsettings")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) {
			return nil
		}

		return fmt.Errorf("config: reading appsettings: %w", err)
	}

	return nil
}

// loadModes reads the ordered "modes" list, falling back to the legacy
// matrices:TObs1..3 / dis_* keys.
func loadModes(v *viper.Viper) ([]ModeConfig, error) {
	if v.IsSet(keyModes) {
		var modes []ModeConfig
		if err := v.UnmarshalKey(keyModes, &modes); err != nil {
			return nil, fmt.Errorf("config: modes: %w", err)
		}

		return modes, nil
	}

	var modes []ModeConfig
	for _, l := range legacyModes {
		if v.IsSet(l.tobs) || v.IsSet(l.dis) {
			modes = append(modes, ModeConfig{Name: l.name, TObs: v.GetString(l.tobs), Dis: v.GetString(l.dis)})
		}
	}

	return modes, nil
}
