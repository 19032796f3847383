/* Copyright 2026 Memora Authors
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
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/consts"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/utils"
	"gopkg.in/yaml.v2"
)

// Config holds memora configuration
type Config struct {
	Editor             string `yaml:"editor"`
	APIEndpoint        string `yaml:"apiEndpoint"`
	EnableUpgradeCheck bool   `yaml:"enableUpgradeCheck"`
	SyncConcurrency    int    `yaml:"syncConcurrency"`
	ReconcileInterval  string `yaml:"reconcileInterval"`
}

// GetPath returns the path to the memora config file
func GetPath(ctx context.MemoraCtx) string {
	return fmt.Sprintf("%s/%s/%s", ctx.Paths.Config, consts.MemoraDirName, consts.ConfigFilename)
}

func getEnvPath(ctx context.MemoraCtx) string {
	return fmt.Sprintf("%s/%s/%s", ctx.Paths.Config, consts.MemoraDirName, consts.EnvFilename)
}

// loadEnv loads the optional env override file and applies MEMORA_* variables
// on top of the values read from the config file
func loadEnv(ctx context.MemoraCtx, cf *Config) error {
	envPath := getEnvPath(ctx)
	ok, err := utils.FileExists(envPath)
	if err != nil {
		return errors.Wrap(err, "checking env file")
	}
	if ok {
		if err := godotenv.Load(envPath); err != nil {
			return errors.Wrap(err, "loading env file")
		}
	}

	if v := os.Getenv("MEMORA_API_ENDPOINT"); v != "" {
		cf.APIEndpoint = v
	}
	if v := os.Getenv("MEMORA_EDITOR"); v != "" {
		cf.Editor = v
	}
	if v := os.Getenv("MEMORA_SYNC_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "parsing MEMORA_SYNC_CONCURRENCY")
		}
		cf.SyncConcurrency = n
	}

	return nil
}

// Read reads the config file
func Read(ctx context.MemoraCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	if err := loadEnv(ctx, &ret); err != nil {
		return ret, errors.Wrap(err, "applying env overrides")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.MemoraCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
