package goident

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the user settings of an identification run.
type Config struct {
	// NOBR is the number of block rows of the Hankel matrices, the prediction horizon.
	NOBR int `mapstructure:"nobr"`
	// NUser is the requested order. Values <= 0 let the order be estimated, values >= NOBR are invalid.
	NUser int `mapstructure:"nuser"`
	// Method: 0 MOESP, 1 N4SID, 2 N4SID preprocessing with combined estimation.
	Method int `mapstructure:"method"`
	// Algorithm: 0 Cholesky, 1 fast QR, 2 QR.
	Algorithm int `mapstructure:"algorithm"`
	// Connectivity: 0 when the experiments are connected.
	Connectivity int `mapstructure:"connectivity"`
	// Control: 0 to confirm the estimated order with the OrderConfirmer.
	Control int `mapstructure:"control"`
	// RCond is the rank tolerance of the realization and initial state least squares.
	RCond float64 `mapstructure:"rcond"`
	// Tol is the order selection tolerance.
	Tol float64 `mapstructure:"tol"`
	// Workers bounds the initial state goroutines.
	Workers int `mapstructure:"workers"`
	// InitialStateJob is "D" to use the feedthrough when estimating x0, "N" to ignore it.
	InitialStateJob string `mapstructure:"initial_state_job"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		NOBR:            10,
		Connectivity:    1,
		Control:         1,
		Workers:         runtime.GOMAXPROCS(0),
		InitialStateJob: string(UseFeedthrough),
	}
}

// Selectors returns the mode selectors of the configuration.
func (c Config) Selectors() Selectors {
	return Selectors{
		Method:       c.Method,
		Algorithm:    c.Algorithm,
		Connectivity: c.Connectivity,
		Control:      c.Control,
	}
}

// Job returns the initial state job.
func (c Config) Job() InitialStateJob {
	if c.InitialStateJob == "" {
		return UseFeedthrough
	}
	return InitialStateJob(strings.ToUpper(c.InitialStateJob)[0])
}

// Validate checks for invalid configuration values.
func (c Config) Validate() error {
	var errs []error
	if c.NOBR < 2 {
		errs = append(errs, fmt.Errorf("nobr must be at least 2, got %d", c.NOBR))
	}
	if c.NUser >= c.NOBR && c.NOBR >= 2 {
		errs = append(errs, &OrderError{N: c.NUser, NOBR: c.NOBR})
	}
	if _, err := TranslateModes(c.Selectors()); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	switch strings.ToUpper(c.InitialStateJob) {
	case string(UseFeedthrough), string(IgnoreFeedthrough):
	default:
		errs = append(errs, fmt.Errorf("initial_state_job must be D or N, got %q", c.InitialStateJob))
	}
	return errors.Join(errs...)
}

// BindFlags registers the configuration flags on fs, with the defaults of DefaultConfig.
func BindFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.Int("nobr", d.NOBR, "number of block rows")
	fs.Int("nuser", d.NUser, "state order, estimated when <= 0, must be below nobr")
	fs.Int("method", d.Method, "0: MOESP, 1: N4SID, 2: combined")
	fs.Int("algorithm", d.Algorithm, "0: Cholesky, 1: fast QR, 2: QR")
	fs.Int("connectivity", d.Connectivity, "0: connected experiments")
	fs.Int("control", d.Control, "0: confirm the estimated order")
	fs.Float64("rcond", d.RCond, "rank tolerance of the least squares problems")
	fs.Float64("tol", d.Tol, "order selection tolerance")
	fs.Int("workers", d.Workers, "initial state workers")
	fs.String("initial-state-job", d.InitialStateJob, "D: use the feedthrough for x0, N: ignore it")
}

// LoadConfig reads the configuration from the file at path (YAML, JSON or TOML,
// skipped when path is empty), GOIDENT_ environment variables and the flags
// of fs when not nil, in increasing order of precedence.
func LoadConfig(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("nobr", d.NOBR)
	v.SetDefault("nuser", d.NUser)
	v.SetDefault("method", d.Method)
	v.SetDefault("algorithm", d.Algorithm)
	v.SetDefault("connectivity", d.Connectivity)
	v.SetDefault("control", d.Control)
	v.SetDefault("rcond", d.RCond)
	v.SetDefault("tol", d.Tol)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("initial_state_job", d.InitialStateJob)

	v.SetEnvPrefix("GOIDENT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("goident: reading config %s: %w", path, err)
		}
	}
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("goident: binding flags: %w", err)
		}
		if f := fs.Lookup("initial-state-job"); f != nil {
			if err := v.BindPFlag("initial_state_job", f); err != nil {
				return Config{}, fmt.Errorf("goident: binding flags: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("goident: decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("goident: invalid config: %w", err)
	}
	return cfg, nil
}
