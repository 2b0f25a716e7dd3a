// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/spf13/viper"
)

type Config struct {
	Logger  log.Logger `yaml:"-" json:"-"`
	Logging Logging

	HTTP  HTTP
	Admin Admin

	Database Database

	Screening Screening
	Pipeline  Pipeline

	Tracing Tracing
}

type Logging struct {
	Format string
}

type HTTP struct {
	BindAddress string
}

type Admin struct {
	BindAddress string
}

// Tracing enables a Jaeger tracer. SampleRate of zero records every span.
type Tracing struct {
	Enabled    bool
	SampleRate float64
}

func Empty() *Config {
	return &Config{
		Logger: log.NewNopLogger(),
		HTTP: HTTP{
			BindAddress: ":8084",
		},
		Admin: Admin{
			BindAddress: ":9094",
		},
		Database: Database{
			// Set the default path inside this path if no other database is defined.
			SQLite: &SQLite{
				Path: "screener.db",
			},
		},
		Screening: Screening{
			Table:            DefaultSanctionsTable,
			NameColumn:       DefaultNameColumn,
			DefaultThreshold: DefaultThreshold,
		},
		Pipeline: Pipeline{
			Directory:        "./storage/",
			FilenameTemplate: DefaultFilenameTemplate,
			Schedule: &Schedule{
				Times: []string{"18:44"},
			},
		},
	}
}

func FromFile(path string) (*Config, error) {
	if path != "" {
		bs, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %v", path, err)
		}
		return Read(bs)
	}
	cfg := Empty()
	cfg.overrideFromEnv()
	cfg = SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Read(data []byte) (*Config, error) {
	vip := viper.New()
	vip.SetConfigType("yaml")
	if err := vip.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("problem reading config: %v", err)
	}

	cfg := Empty()
	if err := vip.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("problem unmarshaling config: %v", err)
	}

	cfg.overrideFromEnv()
	cfg = SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SetupLogger replaces cfg.Logger according to cfg.Logging.Format.
func SetupLogger(cfg *Config) *Config {
	if strings.EqualFold(cfg.Logging.Format, "json") {
		cfg.Logger = log.NewJSONLogger(os.Stderr)
	} else {
		cfg.Logger = log.NewLogfmtLogger(os.Stderr)
	}

	cfg.Logger = log.With(cfg.Logger, "ts", log.DefaultTimestampUTC)
	cfg.Logger = log.With(cfg.Logger, "caller", log.DefaultCaller)

	return cfg
}

// overrideFromEnv applies environment variables which were read by earlier
// deployments of the upload pipeline (FTPHOST, FTPUSER, FTPPASS).
func (cfg *Config) overrideFromEnv() {
	host := os.Getenv("FTPHOST")
	if host != "" && cfg.Pipeline.Upload.FTP == nil {
		cfg.Pipeline.Upload.FTP = &FTP{}
	}
	if ftp := cfg.Pipeline.Upload.FTP; ftp != nil {
		ftp.Hostname = or(host, ftp.Hostname)
		ftp.Username = or(os.Getenv("FTPUSER"), ftp.Username)
		ftp.Password = or(os.Getenv("FTPPASS"), ftp.Password)
	}
}

// Validate checks a Config fields and performs various confirmations
// their values conform to expectations.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.New("missing Config")
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %v", err)
	}
	if err := cfg.Screening.Validate(); err != nil {
		return fmt.Errorf("screening: %v", err)
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing: sample rate %v is outside [0, 1]", cfg.Tracing.SampleRate)
	}

	return nil
}

// or returns the first non-empty string
func or(options ...string) string {
	for i := range options {
		if v := strings.TrimSpace(options[i]); v != "" {
			return v
		}
	}
	return ""
}
