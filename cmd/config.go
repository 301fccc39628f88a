// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lumitag/beetlelink/pkg/peripheral"
)

// PinConfig names the hardware attachment points of one peripheral
type PinConfig struct {
	Trigger string `yaml:"trigger"`
	IRTx    string `yaml:"ir_tx"`
	IRRx    string `yaml:"ir_rx"`
	LEDPort string `yaml:"led_port"`
	I2CBus  string `yaml:"i2c_bus"`
}

// CalibrationConfig holds per-unit IMU zero offsets
type CalibrationConfig struct {
	AccX float64 `yaml:"acc_x"`
	AccY float64 `yaml:"acc_y"`
	AccZ float64 `yaml:"acc_z"`
	GyrX float64 `yaml:"gyr_x"`
	GyrY float64 `yaml:"gyr_y"`
	GyrZ float64 `yaml:"gyr_z"`
}

// DeviceConfig binds one peripheral to its transport and hardware
type DeviceConfig struct {
	MAC         string            `yaml:"mac"`
	Port        string            `yaml:"port"`
	URL         string            `yaml:"url"`
	Pins        PinConfig         `yaml:"pins"`
	Calibration CalibrationConfig `yaml:"calibration"`
}

// EngineConfig locates the central game engine
type EngineConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Config is the per-player configuration file. It binds devices to
// transports; nothing in it crosses the wire.
type Config struct {
	Player    int                     `yaml:"player"`
	Engine    EngineConfig            `yaml:"engine"`
	StateFile string                  `yaml:"state_file"`
	Devices   map[string]DeviceConfig `yaml:"devices"`
}

// defaultConfig returns the configuration used when no file is given
func defaultConfig() *Config {
	return &Config{
		Player:  1,
		Devices: map[string]DeviceConfig{},
	}
}

// LoadConfig reads the YAML config file. An empty path returns defaults; a
// named file that cannot be read or parsed is an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read config %s", path)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to parse config %s", path)
	}
	if cfg.Player != 1 && cfg.Player != 2 {
		return nil, pkgerrors.Errorf("invalid player id %d (want 1 or 2)", cfg.Player)
	}
	return cfg, nil
}

// Device returns the named device entry, or nil if absent
func (c *Config) Device(name string) *DeviceConfig {
	if dev, ok := c.Devices[name]; ok {
		return &dev
	}
	return nil
}

// StatePath returns the snapshot file path, defaulting per player
func (c *Config) StatePath() string {
	if c.StateFile != "" {
		return c.StateFile
	}
	return fmt.Sprintf("p%d_game_state.cbor", c.Player)
}

// calibration converts the config shape to the engine's
func (cc CalibrationConfig) calibration() peripheral.Calibration {
	return peripheral.Calibration{
		AccX: cc.AccX, AccY: cc.AccY, AccZ: cc.AccZ,
		GyrX: cc.GyrX, GyrY: cc.GyrY, GyrZ: cc.GyrZ,
	}
}
