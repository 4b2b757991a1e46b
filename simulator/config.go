package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SimConfig holds simulation parameters shared by the predictive engine and
// the fixed-timestep baseline
type SimConfig struct {
	// DT is the time-step granularity in virtual milliseconds. The
	// predictive engine quantizes predicted crossing times to multiples of
	// DT; the fixed-timestep baseline steps by it.
	DT float64 `json:"dt" yaml:"dt"`

	// MaxPredictionSteps is the prediction horizon: crossings beyond
	// MaxPredictionSteps*DT from now are treated as "will not fire"
	MaxPredictionSteps int `json:"maxPredictionSteps" yaml:"max_prediction_steps"`

	// MaxProcessedEvents aborts a runaway simulation (e.g. a
	// self-exciting loop) after this many processed events. 0 = unlimited.
	MaxProcessedEvents uint64 `json:"maxProcessedEvents" yaml:"max_processed_events"`

	// RecordVoltages enables the per-neuron voltage log. Spike logging is
	// always on; voltage samples are only bookkeeping for inspection.
	RecordVoltages bool `json:"recordVoltages" yaml:"record_voltages"`
}

// DefaultConfig returns the standard STICK simulation parameters
func DefaultConfig() SimConfig {
	return SimConfig{
		DT:                 0.001,
		MaxPredictionSteps: 10000,
		MaxProcessedEvents: 0,
		RecordVoltages:     true,
	}
}

// Validate checks configuration parameters
func (c SimConfig) Validate() error {
	if c.DT <= 0 {
		return ErrInvalidConfig(fmt.Sprintf("dt must be positive, got %g", c.DT))
	}
	if c.MaxPredictionSteps <= 0 {
		return ErrInvalidConfig(fmt.Sprintf("max_prediction_steps must be positive, got %d", c.MaxPredictionSteps))
	}
	return nil
}

// LoadConfig reads a SimConfig from a YAML file, filling unset fields from
// DefaultConfig
func LoadConfig(path string) (SimConfig, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}
