// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "souk.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	DatabasePath    string `yaml:"databasePath"    split_words:"true"`
	Owner           string `yaml:"owner"`
	InitialHolder   string `yaml:"initialHolder"   split_words:"true"`
	InitialSupply   string `yaml:"initialSupply"   split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	BurnRate        uint64 `yaml:"burnRate"        split_words:"true"`
	RewardRate      uint64 `yaml:"rewardRate"      split_words:"true"`
	MarketplaceFee  uint64 `yaml:"marketplaceFee"  split_words:"true"`
	ApiPort         uint   `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint   `yaml:"metricsPort"     split_words:"true"`
	Tracing         bool   `yaml:"tracing"`
	TracingStdout   bool   `yaml:"tracingStdout"   split_words:"true"`
}

var globalConfig = &Config{
	BindAddr:        "0.0.0.0",
	DatabasePath:    ".souk",
	Owner:           "",
	InitialHolder:   "",
	InitialSupply:   "0",
	BurnRate:        0,
	RewardRate:      0,
	MarketplaceFee:  0,
	ApiPort:         3000,
	MetricsPort:     12798,
	ShutdownTimeout: DefaultShutdownTimeout,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.souk/souk.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".souk", "souk.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/souk/souk.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/souk/souk.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("souk", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
