package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LeagueConfig хранит параметры движка структуры турнира. Читается из
// YAML файла, указанного в LEAGUE_CONFIG; отсутствующие ключи берут значения по умолчанию.
type LeagueConfig struct {
	StageNames    []string `yaml:"stage_names"`
	HistoryWindow int      `yaml:"history_window"`
	DefaultBestOf int      `yaml:"default_best_of"`
	// AdvancePerGroup — сколько команд из каждой группы выходят в плей-офф.
	AdvancePerGroup int           `yaml:"advance_per_group"`
	WorkspaceTTL    time.Duration `yaml:"workspace_ttl"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	MutationRate    float64       `yaml:"mutation_rate"`
	MutationBurst   int           `yaml:"mutation_burst"`
}

func DefaultLeague() LeagueConfig {
	return LeagueConfig{
		StageNames:      []string{"Quarterfinals", "Semifinals", "Grand Finals"},
		HistoryWindow:   5,
		DefaultBestOf:   3,
		AdvancePerGroup: 2,
		WorkspaceTTL:    30 * time.Minute,
		SweepInterval:   time.Minute,
		MutationRate:    5,
		MutationBurst:   20,
	}
}

func LoadLeague(path string) (LeagueConfig, error) {
	cfg := DefaultLeague()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading league config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing league config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid league configuration: %w", err)
	}
	return cfg, nil
}

func (c LeagueConfig) Validate() error {
	if len(c.StageNames) == 0 {
		return fmt.Errorf("stage_names must not be empty")
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("history_window must be positive, got %d", c.HistoryWindow)
	}
	if c.DefaultBestOf < 1 || c.DefaultBestOf%2 == 0 {
		return fmt.Errorf("default_best_of must be a positive odd number, got %d", c.DefaultBestOf)
	}
	if c.AdvancePerGroup < 1 {
		return fmt.Errorf("advance_per_group must be positive, got %d", c.AdvancePerGroup)
	}
	if c.WorkspaceTTL <= 0 {
		return fmt.Errorf("workspace_ttl must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive")
	}
	if c.MutationRate <= 0 || c.MutationBurst < 1 {
		return fmt.Errorf("mutation_rate and mutation_burst must be positive")
	}
	return nil
}
