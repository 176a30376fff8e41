package thumbcrop

import (
	"math"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default analyzer settings.
const (
	DefaultStride     = 8
	DefaultDownSample = 8
	DefaultScaleStep  = 0.1
)

// ScaleSweep describes the candidate scales, from Max down to Min inclusive
// in Step decrements. Max == Min scans exactly one scale.
type ScaleSweep struct {
	Max  float64 `yaml:"max"`
	Min  float64 `yaml:"min"`
	Step float64 `yaml:"step"`
}

// SingleScale is the default sweep: every candidate has the full crop size.
var SingleScale = ScaleSweep{Max: 1.0, Min: 1.0, Step: DefaultScaleStep}

// Levels returns the active scale values in scan order.
func (s ScaleSweep) Levels() []float64 {
	if s.Max == s.Min || s.Step <= 0 {
		return []float64{s.Max}
	}
	// The epsilon absorbs the rounding of (Max-Min)/Step, e.g. (1.0-0.9)/0.1.
	n := int(math.Floor((s.Max-s.Min)/s.Step+1e-9)) + 1
	levels := make([]float64, n)
	for i := range levels {
		levels[i] = s.Max - float64(i)*s.Step
	}
	return levels
}

func (s ScaleSweep) validate() error {
	switch {
	case s.Max <= 0 || s.Min <= 0:
		return configErrorf("scales", "bounds must be positive, got max=%v min=%v", s.Max, s.Min)
	case s.Min > s.Max:
		return configErrorf("scales", "min %v is greater than max %v", s.Min, s.Max)
	case s.Max != s.Min && s.Step <= 0:
		return configErrorf("scales", "step must be positive, got %v", s.Step)
	}
	return nil
}

// Config holds the tunable parameters of the crop analyzer.
//
// A zero Stride, DownSample, Scales or Workers is replaced by its default
// before validation, so Config{} is a valid configuration. Negative Stride
// or DownSample values are rejected with ErrInvalidConfig. GenerateCrops
// and DownSample apply no defaults and reject zero as well. A zero
// MaxCandidates means no limit.
type Config struct {
	Stride        int        `yaml:"stride"`
	DownSample    int        `yaml:"downsample"`
	Scales        ScaleSweep `yaml:"scales"`
	MaxCandidates int        `yaml:"max_candidates"`
	Workers       int        `yaml:"workers"`
}

// DefaultConfig returns the settings used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		Stride:     DefaultStride,
		DownSample: DefaultDownSample,
		Scales:     SingleScale,
		Workers:    runtime.NumCPU(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Stride == 0 {
		c.Stride = def.Stride
	}
	if c.DownSample == 0 {
		c.DownSample = def.DownSample
	}
	if c.Scales == (ScaleSweep{}) {
		c.Scales = def.Scales
	}
	if c.Scales.Step == 0 {
		c.Scales.Step = DefaultScaleStep
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	return c
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Stride <= 0 {
		return configErrorf("stride", "must be positive, got %d", c.Stride)
	}
	if c.DownSample <= 0 {
		return configErrorf("downsample", "must be positive, got %d", c.DownSample)
	}
	if c.MaxCandidates < 0 {
		return configErrorf("max_candidates", "must not be negative, got %d", c.MaxCandidates)
	}
	return c.Scales.validate()
}

// LoadConfig reads a YAML configuration file. Missing keys keep their
// default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
