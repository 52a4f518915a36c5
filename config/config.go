// Package config loads the server settings from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Morgana119/spaceRescue/game"
)

type Config struct {
	Addr   string   `yaml:"addr"`
	Seed   int64    `yaml:"seed"`
	Agents []string `yaml:"agents"`
	// Layout is a layout JSON path; empty means the built-in house.
	Layout     string     `yaml:"layout"`
	Rules      game.Rules `yaml:"rules"`
	JournalDir string     `yaml:"journal_dir"`
	IndexDB    string     `yaml:"index_db"`
	LogLevel   string     `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Addr:     ":8080",
		Agents:   []string{"morado", "rosa", "rojo", "azul", "naranja", "verde"},
		Rules:    game.DefaultRules(),
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, fmt.Errorf("%s: %w", path, err)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: empty addr")
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("config: no agents")
	}
	for i, name := range c.Agents {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config: agent %d has no name", i)
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return c.Rules.Validate()
}

func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
