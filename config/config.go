//
//  Copyright 2012 Dmitry Kolesnikov, All Rights Reserved
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

// Package config loads settings of snowflake generators from yaml files
// and environment, machine id is usually assigned by deployment.
//
//	snowflake:
//	  machine_id: 378
//	  epoch: 1288834974657
//	  on_time_reversed: use_previous_time
//	  on_time_changed: reset
//	  sequence_reset_threshold: 0
//	log:
//	  level: debug
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fogfish/snowflake"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root of configuration file
type Config struct {
	Snowflake Snowflake `mapstructure:"snowflake" yaml:"snowflake"`
	Log       Log       `mapstructure:"log" yaml:"log"`
}

// Snowflake settings, absent bit widths are derived by the generator.
// Machine id has no default, it must come from the file or environment.
type Snowflake struct {
	MachineID              *int64                 `mapstructure:"machine_id" yaml:"machine_id,omitempty"`
	Epoch                  int64                  `mapstructure:"epoch" yaml:"epoch"`
	ClockBits              *int                   `mapstructure:"clock_bits" yaml:"clock_bits,omitempty"`
	MachineBits            *int                   `mapstructure:"machine_bits" yaml:"machine_bits,omitempty"`
	SequenceBits           *int                   `mapstructure:"sequence_bits" yaml:"sequence_bits,omitempty"`
	OnTimeReversed         snowflake.TimeReversed `mapstructure:"on_time_reversed" yaml:"on_time_reversed"`
	OnTimeChanged          string                 `mapstructure:"on_time_changed" yaml:"on_time_changed"`
	SequenceResetThreshold int64                  `mapstructure:"sequence_reset_threshold" yaml:"sequence_reset_threshold"`
}

// Log settings
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// Values of on_time_changed
const (
	OnTimeChangedReset       = "reset"
	OnTimeChangedKeepCurrent = "keep_current"
)

// Default returns built-in defaults
func Default() Config {
	return Config{
		Snowflake: Snowflake{
			OnTimeReversed: snowflake.Throw,
			OnTimeChanged:  OnTimeChangedReset,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads configuration from yaml file and environment variables.
// configPath is the directory containing config file, configName is the
// name of file without extension. Missing file is not an error.
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug().Str("name", configName).Msg("config file not found, using defaults and environment")
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("config file loaded")
	}

	def := Default()
	v.SetDefault("snowflake.epoch", def.Snowflake.Epoch)
	v.SetDefault("snowflake.on_time_reversed", def.Snowflake.OnTimeReversed.String())
	v.SetDefault("snowflake.on_time_changed", def.Snowflake.OnTimeChanged)
	v.SetDefault("snowflake.sequence_reset_threshold", def.Snowflake.SequenceResetThreshold)
	v.SetDefault("log.level", def.Log.Level)

	for key, env := range map[string]string{
		"snowflake.machine_id":               "SNOWFLAKE_MACHINE_ID",
		"snowflake.epoch":                    "SNOWFLAKE_EPOCH",
		"snowflake.clock_bits":               "SNOWFLAKE_CLOCK_BITS",
		"snowflake.machine_bits":             "SNOWFLAKE_MACHINE_BITS",
		"snowflake.sequence_bits":            "SNOWFLAKE_SEQUENCE_BITS",
		"snowflake.on_time_reversed":         "SNOWFLAKE_ON_TIME_REVERSED",
		"snowflake.on_time_changed":          "SNOWFLAKE_ON_TIME_CHANGED",
		"snowflake.sequence_reset_threshold": "SNOWFLAKE_SEQUENCE_RESET_THRESHOLD",
		"log.level":                          "LOG_LEVEL",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Parse decodes yaml document on top of defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Marshal encodes configuration as yaml document
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Options converts configuration to options of generator
func (c Config) Options() ([]snowflake.Option, error) {
	sf := c.Snowflake

	opts := []snowflake.Option{
		snowflake.WithEpoch(sf.Epoch),
		snowflake.WithTimeReversed(sf.OnTimeReversed),
		snowflake.WithLogger(c.Log.Logger(os.Stderr)),
	}

	if sf.MachineID != nil {
		opts = append(opts, snowflake.WithMachineID(*sf.MachineID))
	}

	if sf.ClockBits != nil {
		opts = append(opts, snowflake.WithClockBits(*sf.ClockBits))
	}
	if sf.MachineBits != nil {
		opts = append(opts, snowflake.WithMachineBits(*sf.MachineBits))
	}
	if sf.SequenceBits != nil {
		opts = append(opts, snowflake.WithSequenceBits(*sf.SequenceBits))
	}

	switch strings.ToLower(strings.TrimSpace(sf.OnTimeChanged)) {
	case OnTimeChangedReset, "":
		opts = append(opts, snowflake.WithSequenceResetThreshold(sf.SequenceResetThreshold))
	case OnTimeChangedKeepCurrent:
		opts = append(opts, snowflake.WithTimeChanged(snowflake.KeepCurrent{}))
	default:
		return nil, fmt.Errorf("unknown on_time_changed %q: %w", sf.OnTimeChanged, snowflake.ErrInvalidSettings)
	}

	return opts, nil
}

// New creates 64-bit generator from configuration
func (c Config) New(opts ...snowflake.Option) (*snowflake.Snowflake, error) {
	base, err := c.Options()
	if err != nil {
		return nil, err
	}
	return snowflake.New(append(base, opts...)...)
}

// NewSafe creates 53-bit generator from configuration
func (c Config) NewSafe(opts ...snowflake.Option) (*snowflake.SafeSnowflake, error) {
	base, err := c.Options()
	if err != nil {
		return nil, err
	}
	return snowflake.NewSafe(append(base, opts...)...)
}

// Logger creates zerolog.Logger writing to w
func (l Log) Logger(w io.Writer) zerolog.Logger {
	if l.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(parseLevel(l.Level)).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
