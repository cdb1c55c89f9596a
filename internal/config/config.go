package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/username/feiertage-export/internal/holiday"
)

// Config represents application configuration. Every field has a usable
// default, so running without a config file is fine.
type Config struct {
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	States   StatesConfig   `mapstructure:"states"`
}

// OutputConfig controls where exports are written
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig controls logging output
type LogConfig struct {
	File  string `mapstructure:"file"` // empty: console logging
	Level string `mapstructure:"level"`
}

// CalendarConfig controls the holiday source
type CalendarConfig struct {
	// ExtraFile is an optional file with additional holiday records
	// overlaid on the built-in ruleset
	ExtraFile string `mapstructure:"extra_file"`
}

// StatesConfig carries the per-state population shares used for
// nationwide aggregation
type StatesConfig struct {
	Weights map[string]float64 `mapstructure:"weights"`
}

// population shares per state (Destatis, 2019 census figures), matching
// the shares the report's nationwide aggregation was calibrated with
var defaultWeights = map[string]float64{
	"BW": 0.13352220384597055,
	"BY": 0.15802030065986025,
	"BE": 0.04406333514565102,
	"BB": 0.030437977949884957,
	"HB": 0.008179060146102285,
	"HH": 0.022277401351699335,
	"HE": 0.0756797745646923,
	"MV": 0.01937073416520042,
	"NI": 0.09624698474347271,
	"NW": 0.215568075490225,
	"RP": 0.04928614601803227,
	"SL": 0.011833210668877029,
	"SN": 0.026224318285684965,
	"ST": 0.04878767948508131,
	"SH": 0.03500539853084776,
	"TH": 0.02549739894871785,
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from file. A missing config file is not an
// error: the defaults are returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.feiertage-export")
		v.AddConfigPath("/etc/feiertage-export")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	// viper lowercases map keys during unmarshal; state codes are upper case
	if len(c.States.Weights) > 0 {
		normalized := make(map[string]float64, len(c.States.Weights))
		for code, weight := range c.States.Weights {
			normalized[strings.ToUpper(code)] = weight
		}
		c.States.Weights = normalized
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if len(c.States.Weights) == 0 {
		c.States.Weights = defaultWeights
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.States.Weights) != 16 {
		return fmt.Errorf("states.weights must cover all 16 states, got %d entries", len(c.States.Weights))
	}

	sum := 0.0
	for code, weight := range c.States.Weights {
		if !holiday.IsValid(holiday.StateCode(code)) {
			return fmt.Errorf("states.weights contains unknown state code %q", code)
		}
		if weight <= 0 {
			return fmt.Errorf("states.weights[%s] must be positive, got %v", code, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("states.weights must sum to 1, got %v", sum)
	}

	return nil
}

// Weights returns the population shares keyed by state code
func (c *Config) Weights() map[holiday.StateCode]float64 {
	weights := make(map[holiday.StateCode]float64, len(c.States.Weights))
	for code, weight := range c.States.Weights {
		weights[holiday.StateCode(code)] = weight
	}
	return weights
}
