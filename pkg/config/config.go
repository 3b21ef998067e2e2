// Copyright 2026 The picstash Authors
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
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/picstash-io/picstash/pkg/pslog"
)

// Config holds every tunable of the picstash server. Settings can come
// from the config file, from flags, or from PICSTASH_* environment
// variables (e.g. PICSTASH_IMAGE_SERVINGURLTTL).
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Image  ImageConfig  `mapstructure:"image"`
	Minio  MinioConfig  `mapstructure:"minio"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Store  StoreConfig  `mapstructure:"store"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CertFile    string   `mapstructure:"certFile"`
	KeyFile     string   `mapstructure:"keyFile"`
	LogLevel    string   `mapstructure:"logLevel"`
	TemplateDir string   `mapstructure:"templateDir"`
	CORSOrigins []string `mapstructure:"corsOrigins"`
}

// ImageConfig carries the image-library settings: how long serving
// URLs stay cached, how many lookup attempts are made, and which MIME
// types may be stored.
type ImageConfig struct {
	ServingURLTTL         time.Duration `mapstructure:"servingURLTTL"`
	ServingURLLookupTries int           `mapstructure:"servingURLLookupTries"`
	ValidMIMETypes        []string      `mapstructure:"validMIMETypes"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"useSSL"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig selects which entity store backs image records.
// Driver is either "mongo" or "postgres".
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	MongoURI      string `mapstructure:"mongoURI"`
	MongoDatabase string `mapstructure:"mongoDatabase"`
	PostgresDSN   string `mapstructure:"postgresDSN"`
}

var (
	once sync.Once

	mu sync.RWMutex

	config Config
)

func InitConfig() error {
	var initErr error
	once.Do(func() {
		initErr = LoadAndWatch()
	})
	return initErr
}

func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return config
}

func setDefaults() {
	viper.SetDefault("server.addr", "127.0.0.1:8080")
	viper.SetDefault("server.logLevel", "info")
	viper.SetDefault("server.templateDir", "templates")
	viper.SetDefault("image.servingURLTTL", time.Hour)
	viper.SetDefault("image.servingURLLookupTries", 3)
	viper.SetDefault("image.validMIMETypes", []string{"image/jpeg", "image/png", "image/gif"})
	viper.SetDefault("store.driver", "mongo")
	viper.SetDefault("store.mongoDatabase", "picstash")
}

func LoadAndWatch() error {
	pflag.String("server.addr", "", "HTTP service address (e.g., '127.0.0.1:8080')")
	pflag.String("server.certFile", "", "Path to the TLS certificate file.")
	pflag.String("server.keyFile", "", "Path to the TLS private key file.")
	pflag.String("server.logLevel", "", "Log level (debug, info, warn, error, fatal).")
	pflag.String("store.driver", "", "Image entity store driver ('mongo' or 'postgres').")
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return fmt.Errorf("failed to bind pflags: %w", err)
	}

	setDefaults()

	viper.SetEnvPrefix("PICSTASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/picstash/")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			pslog.Infof("Config file not found, using defaults.")
		} else {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	mu.Lock()
	if err := viper.Unmarshal(&config); err != nil {
		mu.Unlock()
		return fmt.Errorf("the initial configuration cannot be decoded into the struct: %w", err)
	}
	mu.Unlock()

	viper.OnConfigChange(func(e fsnotify.Event) {
		pslog.Infof("Config file changed: %s, reloading...", e.Name)

		mu.Lock()
		defer mu.Unlock()

		if err := viper.Unmarshal(&config); err != nil {
			pslog.Errorf("Error reloading the configuration: %v", err)
		} else {
			pslog.Infof("The configuration has been successfully reloaded.")
		}
	})
	viper.WatchConfig()

	return nil
}
