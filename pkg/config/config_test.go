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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"mqtt": {"url": "tcp://broker:1883"},
		"discovery": {"interval": "10s", "printer_timeout": "2m", "default_model": "TM-T88IV"},
		"manual": {"host": "192.168.1.50", "model": "TM-P20"},
		"metrics": {"listen_addr": ":9090"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.URL)
	assert.Equal(t, 10*time.Second, time.Duration(cfg.Discovery.Interval))
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.Discovery.PrinterTimeout))
	assert.Equal(t, "TM-T88IV", cfg.Discovery.DefaultModel)
	require.NotNil(t, cfg.Manual)
	assert.Equal(t, "192.168.1.50", cfg.Manual.Host)
	assert.Equal(t, 9100, cfg.Manual.Port, "manual port defaults to the raw print port")
	assert.Equal(t, "TM-P20", cfg.Manual.Model)
	assert.Equal(t, ":9090", cfg.Metrics.ListenAddr)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{"mqtt": {"url": "tcp://broker:1883"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, time.Duration(cfg.Discovery.Interval))
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.Discovery.PrinterTimeout))
	assert.Equal(t, "default", cfg.Discovery.DefaultModel)
	assert.Nil(t, cfg.Manual)
	assert.Empty(t, cfg.Metrics.ListenAddr)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadRequiresMQTTURL(t *testing.T) {
	path := writeConfig(t, `{}`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMQTTURLRequired)
}

func TestLoadRejectsManualWithoutHost(t *testing.T) {
	path := writeConfig(t, `{"mqtt": {"url": "tcp://b:1883"}, "manual": {"model": "TM-P20"}}`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrManualHostNeeded)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{
		"mqtt": {"url": "tcp://file:1883"},
		"discovery": {"interval": "10s"}
	}`)

	t.Setenv(EnvPrefix+"MQTT_URL", "tcp://env:1883")
	t.Setenv(EnvPrefix+"DISCOVERY_INTERVAL", "45s")
	t.Setenv(EnvPrefix+"MANUAL_HOST", "10.0.0.9")
	t.Setenv(EnvPrefix+"METRICS_ADDR", ":2112")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://env:1883", cfg.MQTT.URL)
	assert.Equal(t, 45*time.Second, time.Duration(cfg.Discovery.Interval))
	require.NotNil(t, cfg.Manual)
	assert.Equal(t, "10.0.0.9", cfg.Manual.Host)
	assert.Equal(t, ":2112", cfg.Metrics.ListenAddr)
}

func TestEnvOnlyConfig(t *testing.T) {
	t.Setenv(EnvPrefix+"MQTT_URL", "tcp://env:1883")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tcp://env:1883", cfg.MQTT.URL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestDurationAcceptsNumbers(t *testing.T) {
	path := writeConfig(t, `{
		"mqtt": {"url": "tcp://b:1883"},
		"discovery": {"interval": 1000000000}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, time.Duration(cfg.Discovery.Interval))
}
