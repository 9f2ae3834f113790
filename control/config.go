// File: control/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// File-backed configuration. Values are read from YAML over the defaults,
// validated as a whole and converted to pool settings.

package control

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/core/concurrency"
	"github.com/momentics/forkjoin/internal/logger"
)

// PoolConfig holds the settings of one pool.
type PoolConfig struct {
	Name        string `yaml:"name"`
	Parallelism int    `yaml:"parallelism"` // 0 means GOMAXPROCS
	Threshold   int64  `yaml:"threshold"`   // 0 derives it from parallelism
	AsyncMode   bool   `yaml:"async_mode"`
	PinWorkers  bool   `yaml:"pin_workers"`
}

// RunConfig holds workload settings of the command line tools.
type RunConfig struct {
	Size  int64 `yaml:"size"`  // reduce 1..Size
	Times int   `yaml:"times"` // repetitions
}

// Config is the top-level configuration file.
type Config struct {
	Pool    PoolConfig    `yaml:"pool"`
	Run     RunConfig     `yaml:"run"`
	Log     logger.Config `yaml:"log"`
	Metrics bool          `yaml:"metrics"`
	Debug   bool          `yaml:"debug"`
}

// DefaultConfig returns the defaults used for missing keys.
func DefaultConfig() Config {
	return Config{
		Pool:    PoolConfig{Name: "forkjoin"},
		Run:     RunConfig{Size: 100, Times: 10},
		Log:     logger.DefaultConfig(),
		Metrics: true,
		Debug:   false,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, api.NewError(api.ErrCodeConfiguration, "cannot read config").
			WithContext("path", path).
			WithCause(err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			apiErr.WithContext("path", path)
		}
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, api.NewError(api.ErrCodeConfiguration, "malformed config").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs error
	if c.Pool.Parallelism < 0 {
		errs = multierr.Append(errs, fmt.Errorf("pool.parallelism %d is negative", c.Pool.Parallelism))
	}
	if c.Pool.Threshold < 0 {
		errs = multierr.Append(errs, fmt.Errorf("pool.threshold %d is negative", c.Pool.Threshold))
	}
	if c.Run.Size < 1 {
		errs = multierr.Append(errs, fmt.Errorf("run.size %d must be at least 1", c.Run.Size))
	}
	if c.Run.Times < 1 {
		errs = multierr.Append(errs, fmt.Errorf("run.times %d must be at least 1", c.Run.Times))
	}
	switch c.Log.Output {
	case "", "stdout", "file", "both", "none":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log.output %q is unknown", c.Log.Output))
	}
	if (c.Log.Output == "file" || c.Log.Output == "both") && c.Log.FilePath == "" {
		errs = multierr.Append(errs, errors.New("log.file_path is required for file output"))
	}
	if errs != nil {
		return api.NewError(api.ErrCodeConfiguration, "invalid config").WithCause(errs)
	}
	return nil
}

// EffectiveParallelism resolves the 0 default.
func (pc PoolConfig) EffectiveParallelism() int {
	if pc.Parallelism == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return pc.Parallelism
}

// ToPool converts the settings for concurrency.NewPool.
func (pc PoolConfig) ToPool(log *zap.Logger) concurrency.Config {
	return concurrency.Config{
		Name:        pc.Name,
		Parallelism: pc.Parallelism,
		Threshold:   pc.Threshold,
		AsyncMode:   pc.AsyncMode,
		PinWorkers:  pc.PinWorkers,
		Logger:      log,
	}
}

// Snapshot flattens the configuration for diagnostics.
func (c Config) Snapshot() map[string]any {
	return map[string]any{
		"pool.name":        c.Pool.Name,
		"pool.parallelism": c.Pool.EffectiveParallelism(),
		"pool.threshold":   c.Pool.Threshold,
		"pool.async_mode":  c.Pool.AsyncMode,
		"pool.pin_workers": c.Pool.PinWorkers,
		"run.size":         c.Run.Size,
		"run.times":        c.Run.Times,
		"log.level":        c.Log.Level,
		"log.output":       c.Log.Output,
		"metrics":          c.Metrics,
		"debug":            c.Debug,
	}
}
