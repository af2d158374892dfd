package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/gridsmith/energyplanner/planner"
)

type StoreConfig struct {
	Path string `json:"path"`
}

type HistoryConfig struct {
	Path string `json:"path"`
}

type SupabaseConfig struct {
	Url string `json:"url"`
	// key is specified via env var
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

type MirrorConfig struct {
	InstallationID uuid.UUID      `json:"installationId"`
	Supabase       SupabaseConfig `json:"supabase"`
}

type Config struct {
	Planner planner.Config `json:"planner"`
	Store   StoreConfig    `json:"store"`
	History HistoryConfig  `json:"history"`
	Mirror  MirrorConfig   `json:"mirror"`
}

func Read(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	err = json.Unmarshal(content, &config)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return config, nil
}
