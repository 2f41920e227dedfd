package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths    PathsConfig    `yaml:"paths" envPrefix:"CRIBS_PATHS_"`
	Pipeline PipelineConfig `yaml:"pipeline" envPrefix:"CRIBS_PIPELINE_"`
	Split    SplitConfig    `yaml:"split" envPrefix:"CRIBS_SPLIT_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"CRIBS_LOG_"`
	Server   ServerConfig   `yaml:"server" envPrefix:"CRIBS_SERVER_"`
}

// PathsConfig holds the dataset locations of every pipeline variant
type PathsConfig struct {
	Raw       string `yaml:"raw" env:"RAW" validate:"required"`
	Unified   string `yaml:"unified" env:"UNIFIED" validate:"required"`
	Buildings string `yaml:"buildings" env:"BUILDINGS" validate:"required"`
	Land      string `yaml:"land" env:"LAND" validate:"required"`
	House     string `yaml:"house" env:"HOUSE" validate:"required"`
	Apartment string `yaml:"apartment" env:"APARTMENT" validate:"required"`

	// SQLite file holding the persisted fold artifacts
	Database string `yaml:"database" env:"DATABASE" validate:"required"`

	// GeoJSON district summary written by the report command
	Report string `yaml:"report" env:"REPORT" validate:"required"`
}

type PipelineConfig struct {
	// Outlier strategy for building variants (unified, buildings, house, apartment)
	BuildingsStrategy string `yaml:"buildings_strategy" env:"BUILDINGS_STRATEGY" validate:"oneof=iqr zscore"`

	// Outlier strategy for the land-only variant
	LandStrategy string `yaml:"land_strategy" env:"LAND_STRATEGY" validate:"oneof=iqr zscore"`

	// Number of goroutines computing per-group outlier statistics
	Workers int `yaml:"workers" env:"WORKERS" validate:"min=1"`

	// Share of records dropped for an unmapped district above which a warning is logged
	UnmappedWarnFraction float64 `yaml:"unmapped_warn_fraction" env:"UNMAPPED_WARN_FRACTION" validate:"gte=0,lte=1"`

	// Also write an .xlsx copy next to every cleaned CSV
	ExportXLSX bool `yaml:"export_xlsx" env:"EXPORT_XLSX"`
}

type SplitConfig struct {
	Seed           uint64  `yaml:"seed" env:"SEED" validate:"max=9223372036854775807"`
	Folds          int     `yaml:"folds" env:"FOLDS" validate:"min=2"`
	TestFraction   float64 `yaml:"test_fraction" env:"TEST_FRACTION" validate:"gt=0,lt=1"`
	StratifyColumn string  `yaml:"stratify_column" env:"STRATIFY_COLUMN" validate:"required"`

	// Pipeline variant whose cleaned table is partitioned
	Variant string `yaml:"variant" env:"VARIANT" validate:"oneof=unified buildings land house apartment"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=json text"`

	// When set, log lines go to <Dir>/<Name>.log instead of stdout
	ToFile bool   `yaml:"to_file" env:"TO_FILE"`
	Dir    string `yaml:"dir" env:"DIR"`
	Name   string `yaml:"name" env:"NAME" validate:"required"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" env:"PORT" validate:"min=1,max=65535"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Default returns the configuration used when neither a file nor the environment override a value.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Raw:       "data/raw/raw-data.csv",
			Unified:   "data/clean/cleaned-data.csv",
			Buildings: "data/clean/buildings-data.csv",
			Land:      "data/clean/land-data.csv",
			House:     "data/clean/house-data.csv",
			Apartment: "data/clean/apartment-data.csv",
			Database:  "data/cross-val/folds.db",
			Report:    "data/report/district-summary.geojson",
		},
		Pipeline: PipelineConfig{
			BuildingsStrategy:    "iqr",
			LandStrategy:         "zscore",
			Workers:              4,
			UnmappedWarnFraction: 0.05,
		},
		Split: SplitConfig{
			Seed:           42,
			Folds:          5,
			TestFraction:   0.2,
			StratifyColumn: "District",
			Variant:        "land",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    "logs",
			Name:   "cribs",
		},
		Server: ServerConfig{
			Port:           5250,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// LoadConfig layers the defaults, an optional YAML file, optional .env files and the
// process environment (highest precedence), then validates the result.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// PathFor returns the cleaned dataset path of a pipeline variant.
func (c *Config) PathFor(variant string) (string, error) {
	switch variant {
	case "unified":
		return c.Paths.Unified, nil
	case "buildings":
		return c.Paths.Buildings, nil
	case "land":
		return c.Paths.Land, nil
	case "house":
		return c.Paths.House, nil
	case "apartment":
		return c.Paths.Apartment, nil
	default:
		return "", fmt.Errorf("unknown pipeline variant: %s", variant)
	}
}
