// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads settings from an optional file and NEXUSGEN_* env
// vars. Env wins over the file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/cloudwego/nexusgen/llm"
)

type Config struct {
	Profile   string          `mapstructure:"profile"`
	Style     string          `mapstructure:"style"`
	Interval  time.Duration   `mapstructure:"interval"`
	OutputDir string          `mapstructure:"output_dir"`
	LogLevel  string          `mapstructure:"log_level"`
	Model     llm.ModelConfig `mapstructure:"model"`
}

var keys = []string{
	"profile",
	"style",
	"interval",
	"output_dir",
	"log_level",
	"model.name",
	"model.type",
	"model.base_url",
	"model.model_name",
	"model.max_tokens",
	"model.timeout",
}

// Load reads path (if set) and the environment. The credential is taken from
// NEXUSGEN_MODEL_API_KEY, falling back to API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("profile", "nexus")
	v.SetDefault("interval", "1500ms")
	v.SetDefault("output_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("model.name", "default")
	v.SetDefault("model.type", "openai")
	v.SetDefault("model.max_tokens", 16*1024)
	v.SetDefault("model.timeout", "600s")

	v.SetEnvPrefix("NEXUSGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	_ = v.BindEnv("model.api_key", "NEXUSGEN_MODEL_API_KEY", "API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.Model.APIType = llm.NewModelType(string(cfg.Model.APIType))
	return &cfg, nil
}

// Validate fails fast on settings that would only break at the first request.
func (c *Config) Validate() error {
	if c.Model.APIType == llm.ModelTypeUnknown {
		return fmt.Errorf("model.type: unsupported provider")
	}
	if c.Model.APIType.NeedsAPIKey() && c.Model.APIKey == "" {
		return fmt.Errorf("%w: set NEXUSGEN_MODEL_API_KEY or API_KEY", llm.ErrMissingCredential)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	return nil
}
