/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the service configuration from a JSON file with
// environment variable overrides. Configuration problems are only fatal at
// startup; nothing here is reloaded at runtime.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/carverauto/printflow/pkg/logger"
	"github.com/carverauto/printflow/pkg/profiles"
)

const (
	// EnvPrefix namespaces the environment overrides.
	EnvPrefix = "PRINTFLOW_"

	defaultDiscoveryInterval = 30 * time.Second
	defaultPrinterTimeout    = 5 * time.Minute
)

var (
	ErrMQTTURLRequired  = errors.New("mqtt url is required")
	ErrInvalidDuration  = errors.New("invalid duration value")
	ErrManualHostNeeded = errors.New("manual printer requires a host")
)

// Duration is a wrapper around time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		*d = Duration(tmp)
	default:
		return ErrInvalidDuration
	}

	return nil
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	URL string `json:"url"`
}

// DiscoveryConfig configures the network discovery loop.
type DiscoveryConfig struct {
	Interval       Duration `json:"interval"`
	PrinterTimeout Duration `json:"printer_timeout"`
	DefaultModel   string   `json:"default_model"`
}

// ManualConfig statically registers one printer alongside discovery. A
// manual printer never ages out of the registry.
type ManualConfig struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Model string `json:"model"`
}

// MetricsConfig configures the optional Prometheus listener.
type MetricsConfig struct {
	ListenAddr string `json:"listen_addr"`
}

// Config is the full service configuration.
type Config struct {
	Logging   *logger.Config  `json:"logging"`
	MQTT      MQTTConfig      `json:"mqtt"`
	Discovery DiscoveryConfig `json:"discovery"`
	Manual    *ManualConfig   `json:"manual,omitempty"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// Load reads the JSON config at path and applies environment overrides.
// An empty path starts from defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file '%s': %w", path, err)
		}

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays PRINTFLOW_-prefixed environment variables on top of the
// file values.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPrefix + "MQTT_URL"); v != "" {
		c.MQTT.URL = v
	}

	if v := os.Getenv(EnvPrefix + "DISCOVERY_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Discovery.Interval = Duration(d)
		}
	}

	if v := os.Getenv(EnvPrefix + "PRINTER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Discovery.PrinterTimeout = Duration(d)
		}
	}

	if v := os.Getenv(EnvPrefix + "DEFAULT_MODEL"); v != "" {
		c.Discovery.DefaultModel = v
	}

	if v := os.Getenv(EnvPrefix + "MANUAL_HOST"); v != "" {
		if c.Manual == nil {
			c.Manual = &ManualConfig{}
		}

		c.Manual.Host = v
	}

	if v := os.Getenv(EnvPrefix + "METRICS_ADDR"); v != "" {
		c.Metrics.ListenAddr = v
	}
}

// Validate fills defaults and rejects unusable configurations.
func (c *Config) Validate() error {
	if c.MQTT.URL == "" {
		return ErrMQTTURLRequired
	}

	if c.Discovery.Interval <= 0 {
		c.Discovery.Interval = Duration(defaultDiscoveryInterval)
	}

	if c.Discovery.PrinterTimeout <= 0 {
		c.Discovery.PrinterTimeout = Duration(defaultPrinterTimeout)
	}

	if c.Discovery.DefaultModel == "" {
		c.Discovery.DefaultModel = profiles.DefaultModel
	}

	if c.Manual != nil {
		if c.Manual.Host == "" {
			return ErrManualHostNeeded
		}

		if c.Manual.Port <= 0 {
			c.Manual.Port = 9100
		}
	}

	if c.Logging == nil {
		c.Logging = &logger.Config{Level: "info"}
	}

	return nil
}
