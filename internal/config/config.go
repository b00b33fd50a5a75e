// Package config assembles application configuration from defaults, an
// optional .env file, an optional YAML file and AGRI_* environment
// variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alexanderramin/agriadvisor/internal/llm"
	"github.com/alexanderramin/agriadvisor/internal/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AdvisorConfig tunes the response engine.
type AdvisorConfig struct {
	// ShareSnapshot makes the local resolver reuse the snapshot synthesized
	// for the remote prompt instead of drawing its own figures.
	ShareSnapshot bool `yaml:"share_snapshot"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the root configuration.
type Config struct {
	LLM     llm.LLMConfig  `yaml:"llm"`
	Advisor AdvisorConfig  `yaml:"advisor"`
	Log     logging.Config `yaml:"log"`
	Server  ServerConfig   `yaml:"server"`
	Archive ArchiveConfig  `yaml:"archive"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM:     llm.DefaultConfig(),
		Advisor: AdvisorConfig{ShareSnapshot: false},
		Log:     logging.DefaultConfig(),
		Server:  ServerConfig{Addr: ":8080"},
		Archive: ArchiveConfig{Enabled: true, Path: defaultArchivePath()},
	}
}

// Load builds the configuration. path may be empty, in which case
// AGRI_CONFIG is consulted; a missing default .env file is not an error.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("AGRI_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	llm.ApplyEnv(&c.LLM)

	if v := os.Getenv("AGRI_SHARE_SNAPSHOT"); v != "" {
		c.Advisor.ShareSnapshot, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("AGRI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("AGRI_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("AGRI_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("AGRI_ARCHIVE_ENABLED"); v != "" {
		c.Archive.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("AGRI_ARCHIVE_DB"); v != "" {
		c.Archive.Path = v
	}
}

func defaultArchivePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".agriadvisor", "transcripts.db")
	}
	return filepath.Join(home, ".agriadvisor", "transcripts.db")
}
