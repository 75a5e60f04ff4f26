package main

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the soak test configuration file structure.
type Config struct {
	Soak    SoakSection    `toml:"soak"`
	Metrics MetricsSection `toml:"metrics"`
}

type SoakSection struct {
	// Connections is the number of simulated connection endpoints, each with
	// its own factory and allocator budget.
	Connections int `toml:"connections"`
	// Ticks is how many simulation ticks each endpoint runs.
	Ticks int `toml:"ticks"`
	// BatchSize is how many messages each endpoint creates per tick.
	BatchSize int `toml:"batch_size"`
	// BlockEvery attaches a data block to every Nth message (0 disables).
	BlockEvery int `toml:"block_every"`
	// BlockSize is the attached block size in bytes.
	BlockSize int `toml:"block_size"`
	// AllocatorBudget is each endpoint's allocator budget in bytes.
	AllocatorBudget int `toml:"allocator_budget"`
	// PacketBudget is the per-tick packet capacity in bytes; messages are
	// measured against it before being written.
	PacketBudget int `toml:"packet_budget"`
	// RetainTicks holds an extra reference on each sent message for this many
	// ticks, simulating retransmit bookkeeping.
	RetainTicks int `toml:"retain_ticks"`
}

type MetricsSection struct {
	// ListenAddr serves prometheus metrics when non-empty, e.g. ":9100".
	ListenAddr string `toml:"listen_addr"`
}

// DefaultConfig returns the default soak configuration.
func DefaultConfig() Config {
	return Config{
		Soak: SoakSection{
			Connections:     16,
			Ticks:           1000,
			BatchSize:       32,
			BlockEvery:      10,
			BlockSize:       4096,
			AllocatorBudget: 256 * 1024,
			PacketBudget:    1200,
			RetainTicks:     8,
		},
		Metrics: MetricsSection{
			ListenAddr: "",
		},
	}
}

// LoadConfig loads configuration from a TOML file. An empty path or a missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config file")
	}
	return config, nil
}
