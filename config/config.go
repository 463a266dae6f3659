// Package config loads solver settings and calibration session files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/meenmo/curvekit/numeric"
	"github.com/meenmo/curvekit/utils"
)

// EnvPrefix marks environment variables that override the config file,
// e.g. CURVEKIT_SOLVER_ROOT_TOLERANCE -> solver.root_tolerance.
const EnvPrefix = "CURVEKIT_"

const maxConfigFileSize = 1024 * 1024

// Config holds solver and curve construction parameters.
type Config struct {
	Solver    Solver    `koanf:"solver"`
	Optimizer Optimizer `koanf:"optimizer"`
	Curve     Curve     `koanf:"curve"`
	Log       Log       `koanf:"log"`
}

// Solver bounds the bootstrap root search.
type Solver struct {
	// RootTolerance is the par-residual tolerance for Newton convergence.
	RootTolerance float64 `koanf:"root_tolerance"`

	// MaxRootIterations is the maximum iterations per pillar.
	MaxRootIterations int `koanf:"max_root_iterations"`

	// DampingFactor limits Newton step size to prevent overshooting.
	// Delta is clamped to DampingFactor * max(|guess|, 1).
	DampingFactor float64 `koanf:"damping_factor"`

	// MinDiscountFactor is the lower edge of the discount factor bracket.
	MinDiscountFactor float64 `koanf:"min_discount_factor"`

	// DerivativeThreshold is the minimum derivative magnitude.
	// Below this, Newton iteration stops to avoid division by near-zero.
	DerivativeThreshold float64 `koanf:"derivative_threshold"`
}

// Optimizer bounds the differentiable calibration.
type Optimizer struct {
	GradientThreshold float64 `koanf:"gradient_threshold"`
	MaxIterations     int     `koanf:"max_iterations"`
	// LossTolerance accepts a fit whose sum of squared residuals is below it
	// even when the optimizer stopped on its iteration cap.
	LossTolerance float64 `koanf:"loss_tolerance"`
}

// Curve holds defaults applied to produced curves.
type Curve struct {
	// DayCount is the time-axis basis when a strategy names none.
	DayCount utils.DayCount `koanf:"day_count"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Solver: Solver{
		RootTolerance:       1e-12,
		MaxRootIterations:   100,
		DampingFactor:       0.5,
		MinDiscountFactor:   1e-9,
		DerivativeThreshold: 1e-15,
	},
	Optimizer: Optimizer{
		GradientThreshold: 1e-10,
		MaxIterations:     1000,
		LossTolerance:     1e-16,
	},
	Curve: Curve{DayCount: utils.Act365F},
	Log:   Log{Level: "info", Format: "json"},
}

// RootSettings converts the solver section for numeric.SolveRoot.
func (s Solver) RootSettings() numeric.RootSettings {
	return numeric.RootSettings{
		Tolerance:           s.RootTolerance,
		MaxIterations:       s.MaxRootIterations,
		DampingFactor:       s.DampingFactor,
		DerivativeThreshold: s.DerivativeThreshold,
	}
}

// Load reads the YAML file at path (optional, "" skips it), then applies
// CURVEKIT_* environment overrides and defaults.
func Load(path string) (*Config, error) {
	var content []byte
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config.Load: %s exceeds %d bytes", path, maxConfigFileSize)
		}
		content, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}
	return Parse(content)
}

// Parse is Load over in-memory YAML.
func Parse(content []byte) (*Config, error) {
	k := koanf.New(".")

	if len(content) > 0 {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: failed to parse yaml: %w", err)
		}
	}

	// CURVEKIT_SOLVER_ROOT_TOLERANCE -> solver.root_tolerance
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("config: failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	d := DefaultConfig
	if cfg.Solver.RootTolerance == 0 {
		cfg.Solver.RootTolerance = d.Solver.RootTolerance
	}
	if cfg.Solver.MaxRootIterations == 0 {
		cfg.Solver.MaxRootIterations = d.Solver.MaxRootIterations
	}
	if cfg.Solver.DampingFactor == 0 {
		cfg.Solver.DampingFactor = d.Solver.DampingFactor
	}
	if cfg.Solver.MinDiscountFactor == 0 {
		cfg.Solver.MinDiscountFactor = d.Solver.MinDiscountFactor
	}
	if cfg.Solver.DerivativeThreshold == 0 {
		cfg.Solver.DerivativeThreshold = d.Solver.DerivativeThreshold
	}
	if cfg.Optimizer.GradientThreshold == 0 {
		cfg.Optimizer.GradientThreshold = d.Optimizer.GradientThreshold
	}
	if cfg.Optimizer.MaxIterations == 0 {
		cfg.Optimizer.MaxIterations = d.Optimizer.MaxIterations
	}
	if cfg.Optimizer.LossTolerance == 0 {
		cfg.Optimizer.LossTolerance = d.Optimizer.LossTolerance
	}
	if cfg.Curve.DayCount == "" {
		cfg.Curve.DayCount = d.Curve.DayCount
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}

// Validate checks ranges and normalises the curve day count.
func (c *Config) Validate() error {
	var errs []error
	if c.Solver.RootTolerance <= 0 {
		errs = append(errs, errors.New("solver.root_tolerance must be positive"))
	}
	if c.Solver.MaxRootIterations <= 0 {
		errs = append(errs, errors.New("solver.max_root_iterations must be positive"))
	}
	if c.Solver.DampingFactor <= 0 || c.Solver.DampingFactor > 1 {
		errs = append(errs, errors.New("solver.damping_factor must be in (0, 1]"))
	}
	if c.Solver.MinDiscountFactor <= 0 || c.Solver.MinDiscountFactor >= 1 {
		errs = append(errs, errors.New("solver.min_discount_factor must be in (0, 1)"))
	}
	if c.Optimizer.MaxIterations <= 0 {
		errs = append(errs, errors.New("optimizer.max_iterations must be positive"))
	}
	if c.Optimizer.GradientThreshold <= 0 {
		errs = append(errs, errors.New("optimizer.gradient_threshold must be positive"))
	}
	dc, err := utils.ParseDayCount(string(c.Curve.DayCount))
	if err != nil {
		errs = append(errs, fmt.Errorf("curve.day_count: %w", err))
	} else {
		c.Curve.DayCount = dc
	}
	return errors.Join(errs...)
}
