// Package config loads and defaults the server's YAML configuration,
// following the teacher's config.Load/config.Default split.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	World    WorldConfig    `yaml:"world"`
	Database DatabaseConfig `yaml:"database"`
	Dev      DevConfig      `yaml:"dev"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// WorldConfig centralizes the engine-facing tunables from spec.md §6.4,
// grouped the way the teacher groups balance values in BalanceConfig.
type WorldConfig struct {
	Economy EconomyConfig `yaml:"economy"`
	Limits  LimitsConfig  `yaml:"limits"`
	Timing  TimingConfig  `yaml:"timing"`
}

// EconomyConfig holds tile/player economy tunables.
type EconomyConfig struct {
	ChunkSize                  int     `yaml:"chunk_size"`
	MaxTileEnergy              float64 `yaml:"max_tile_energy"`
	MaxPlayerEnergy            float64 `yaml:"max_player_energy"`
	InitialTileEnergy          float64 `yaml:"initial_tile_energy"`
	InitialTileIntegrity       float64 `yaml:"initial_tile_integrity"`
	InitialTileLevel           int     `yaml:"initial_tile_level"`
	InitialPlayerEnergy        float64 `yaml:"initial_player_energy"`
	EnergyRechargePerSecond    float64 `yaml:"energy_recharge_per_second"`
	IntegrityDecayPerMinute    float64 `yaml:"integrity_decay_per_minute"`
	FreeClaimCost              float64 `yaml:"free_claim_cost"`
	HostileClaimCostMultiplier float64 `yaml:"hostile_claim_cost_multiplier"`
	RepairCostEnergy           float64 `yaml:"repair_cost_energy"`
	RepairIntegrityGain        float64 `yaml:"repair_integrity_gain"`
	AllianceNeighborBonusMult  float64 `yaml:"alliance_neighbor_bonus_multiplier"`
}

// LimitsConfig holds claim-range and result-truncation limits.
type LimitsConfig struct {
	MaxClaimDistanceFromOwned int `yaml:"max_claim_distance_from_owned"`
	MaxLeaderboardEntries     int `yaml:"max_leaderboard_entries"`
	MaxRadarNexusPoints       int `yaml:"max_radar_nexus_points"`
	MaxRadarBasePoints        int `yaml:"max_radar_base_points"`
	MaxRadarHotspots          int `yaml:"max_radar_hotspots"`
}

// TimingConfig holds the background loop intervals and batch size.
type TimingConfig struct {
	RechargeIntervalMs int `yaml:"recharge_interval_ms"`
	SnapshotIntervalMs int `yaml:"snapshot_interval_ms"`
	SnapshotBatchSize  int `yaml:"snapshot_batch_size"`
}

// RechargeInterval returns the recharge tick period as a time.Duration.
func (t TimingConfig) RechargeInterval() time.Duration {
	return time.Duration(t.RechargeIntervalMs) * time.Millisecond
}

// SnapshotInterval returns the snapshot flush period as a time.Duration.
func (t TimingConfig) SnapshotInterval() time.Duration {
	return time.Duration(t.SnapshotIntervalMs) * time.Millisecond
}

// DatabaseConfig holds connection strings for the durable stores.
type DatabaseConfig struct {
	PostgresURL string `yaml:"postgres_url"`
	RedisURL    string `yaml:"redis_url"`
}

// DevConfig holds development-mode toggles.
type DevConfig struct {
	Enabled bool `yaml:"enabled"`
	NoDB    bool `yaml:"no_db"`
}

// Load reads a YAML config file from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the default configuration, matching spec.md §6.4.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		World:    DefaultWorldConfig(),
		Database: DatabaseConfig{},
		Dev:      DevConfig{},
	}
}

// DefaultWorldConfig returns the §6.4 default tunables.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Economy: EconomyConfig{
			ChunkSize:                  64,
			MaxTileEnergy:              100,
			MaxPlayerEnergy:            1000,
			InitialTileEnergy:          100,
			InitialTileIntegrity:       100,
			InitialTileLevel:           1,
			InitialPlayerEnergy:        100,
			EnergyRechargePerSecond:    1,
			IntegrityDecayPerMinute:    1,
			FreeClaimCost:              10,
			HostileClaimCostMultiplier: 50,
			RepairCostEnergy:           5,
			RepairIntegrityGain:        20,
			AllianceNeighborBonusMult:  1.05,
		},
		Limits: LimitsConfig{
			MaxClaimDistanceFromOwned: 8,
			MaxLeaderboardEntries:     10,
			MaxRadarNexusPoints:       64,
			MaxRadarBasePoints:        64,
			MaxRadarHotspots:          32,
		},
		Timing: TimingConfig{
			RechargeIntervalMs: 1000,
			SnapshotIntervalMs: 300000,
			SnapshotBatchSize:  1000,
		},
	}
}
