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
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func resetGlobalConfig() {
	globalConfig = &Config{
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
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
bindAddr: "127.0.0.1"
databasePath: ".souk-test"
owner: "owner-addr"
initialHolder: "holder-addr"
initialSupply: "1000000"
shutdownTimeout: "10s"
burnRate: 200
rewardRate: 500
marketplaceFee: 250
apiPort: 8080
metricsPort: 9090
tracing: true
tracingStdout: true
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-souk.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	defer os.Remove(tmpFile)

	expected := &Config{
		BindAddr:        "127.0.0.1",
		DatabasePath:    ".souk-test",
		Owner:           "owner-addr",
		InitialHolder:   "holder-addr",
		InitialSupply:   "1000000",
		ShutdownTimeout: "10s",
		BurnRate:        200,
		RewardRate:      500,
		MarketplaceFee:  250,
		ApiPort:         8080,
		MetricsPort:     9090,
		Tracing:         true,
		TracingStdout:   true,
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Expected is the original default values from globalConfig
	expected := &Config{
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

	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf(
			"config mismatch without file:\nExpected: %+v\nGot:      %+v",
			expected,
			cfg,
		)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("SOUK_OWNER", "env-owner")
	t.Setenv("SOUK_BURN_RATE", "300")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Owner != "env-owner" {
		t.Errorf("expected Owner to be env-owner, got: %s", cfg.Owner)
	}
	if cfg.BurnRate != 300 {
		t.Errorf("expected BurnRate to be 300, got: %d", cfg.BurnRate)
	}
}

func TestConfigContext(t *testing.T) {
	resetGlobalConfig()
	cfg := GetConfig()
	ctx := WithContext(t.Context(), cfg)
	if FromContext(ctx) != cfg {
		t.Errorf("expected config from context to match")
	}
	if FromContext(t.Context()) != nil {
		t.Errorf("expected nil config from empty context")
	}
}
