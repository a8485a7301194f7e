/*
 * Copyright 2024 KindaDB Authors
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

package restdb

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by LoadConfig.
const EnvPrefix = "RESTDB"

// LoadConfig loads the configuration from an optional config file and the
// environment.
//
// A ".env" file in the working directory is loaded first if present. When
// configFile is not empty it is read with viper (yaml, json or toml).
// RESTDB_NAME, RESTDB_ENDPOINT, RESTDB_TOKEN and RESTDB_TIMEOUT override the
// file. The result is not validated; NewClient does that.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"name", "endpoint", "token", "timeout"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	v.SetDefault("timeout", "0s")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
