// Package config loads the YAML configuration that chooses a table's
// page-file path, buffer pool capacity, and replacement strategy.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/htdao/slotdb/internal/bufferpool"
)

// Config is the top-level YAML shape for cmd/slotdbctl.
type Config struct {
	Table struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"table"`
	BufferPool struct {
		Capacity   int    `mapstructure:"capacity"`
		Strategy   string `mapstructure:"strategy"`
		StratParam int    `mapstructure:"strat_param"`
	} `mapstructure:"buffer_pool"`
}

// Load reads and unmarshals a YAML config file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return &cfg, nil
}

// StrategyKind maps the config's strategy string onto a bufferpool.StrategyKind.
func (c *Config) StrategyKind() (bufferpool.StrategyKind, error) {
	switch c.BufferPool.Strategy {
	case "", "fifo":
		return bufferpool.FIFO, nil
	case "lru":
		return bufferpool.LRU, nil
	case "lruk":
		return bufferpool.LRUK, nil
	case "clock":
		return bufferpool.Clock, nil
	default:
		return "", fmt.Errorf("config: unknown buffer_pool.strategy %q", c.BufferPool.Strategy)
	}
}
