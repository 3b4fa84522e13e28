package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/shelfcut/internal/model"
)

const (
	defaultSheetWidth         = 2440.0
	defaultSheetHeight        = 1220.0
	defaultMaxSheetsToDisplay = 10

	envPrefix = "SHELFCUT_"
)

// ErrInvalidConfig is returned when the resolved configuration is unusable.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	SheetWidth          float64          `yaml:"sheet_width"`
	SheetHeight         float64          `yaml:"sheet_height"`
	AllowRotation       bool             `yaml:"allow_rotation"`
	SortMethod          model.SortMethod `yaml:"sort_method"`
	EfficiencyThreshold float64          `yaml:"efficiency_threshold"`
	Kerf                float64          `yaml:"kerf"`
	MaxSheets           int              `yaml:"max_sheets"`
	MaxGateRetries      int              `yaml:"max_gate_retries"`
	MaxSheetsToDisplay  int              `yaml:"max_sheets_to_display"`
	Prefilter           bool             `yaml:"prefilter"`
	Debug               bool             `yaml:"debug"`
}

// yamlConfig mirrors Config with pointers so absent keys keep lower-precedence values.
type yamlConfig struct {
	SheetWidth          *float64 `yaml:"sheet_width"`
	SheetHeight         *float64 `yaml:"sheet_height"`
	AllowRotation       *bool    `yaml:"allow_rotation"`
	SortMethod          *string  `yaml:"sort_method"`
	EfficiencyThreshold *float64 `yaml:"efficiency_threshold"`
	Kerf                *float64 `yaml:"kerf"`
	MaxSheets           *int     `yaml:"max_sheets"`
	MaxGateRetries      *int     `yaml:"max_gate_retries"`
	MaxSheetsToDisplay  *int     `yaml:"max_sheets_to_display"`
	Prefilter           *bool    `yaml:"prefilter"`
	Debug               *bool    `yaml:"debug"`
}

// CLIOverrides holds command-line flag overrides. Nil fields were not given.
type CLIOverrides struct {
	ConfigFile          string
	SheetWidth          *float64
	SheetHeight         *float64
	AllowRotation       *bool
	SortMethod          *string
	EfficiencyThreshold *float64
	Kerf                *float64
	MaxSheets           *int
	MaxGateRetries      *int
	MaxSheetsToDisplay  *int
	Prefilter           *bool
	Debug               *bool
}

// Default returns a Config with default values.
func Default() Config {
	opts := model.DefaultOptions()
	return Config{
		SheetWidth:          defaultSheetWidth,
		SheetHeight:         defaultSheetHeight,
		AllowRotation:       opts.AllowRotation,
		SortMethod:          opts.SortMethod,
		EfficiencyThreshold: opts.EfficiencyThreshold,
		Kerf:                opts.Kerf,
		MaxSheets:           opts.MaxSheets,
		MaxGateRetries:      opts.MaxGateRetries,
		MaxSheetsToDisplay:  defaultMaxSheetsToDisplay,
		Prefilter:           true,
	}
}

// DefaultConfigDir returns the default directory for configuration, ~/.shelfcut/.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".shelfcut")
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Options converts the configuration to per-call optimizer options.
func (c Config) Options() model.Options {
	return model.Options{
		AllowRotation:       c.AllowRotation,
		SortMethod:          c.SortMethod,
		EfficiencyThreshold: c.EfficiencyThreshold,
		Kerf:                c.Kerf,
		MaxSheets:           c.MaxSheets,
		MaxGateRetries:      c.MaxGateRetries,
	}
}

// Validate checks the sheet size, display limit and optimizer options.
func (c Config) Validate() error {
	if !model.IsPositiveFinite(c.SheetWidth) || !model.IsPositiveFinite(c.SheetHeight) {
		return fmt.Errorf("%w: sheet size %vx%v must be positive", ErrInvalidConfig, c.SheetWidth, c.SheetHeight)
	}
	if c.MaxSheetsToDisplay < 0 {
		return fmt.Errorf("%w: max sheets to display %d is negative", ErrInvalidConfig, c.MaxSheetsToDisplay)
	}
	if err := c.Options().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Load resolves configuration with precedence:
// CLI flags > YAML config > Environment variables > Defaults
//
// The YAML file is overrides.ConfigFile when set, otherwise DefaultConfigPath
// if it exists.
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := Default()

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	path, explicit := DefaultConfigPath(), false
	if overrides != nil && overrides.ConfigFile != "" {
		path, explicit = overrides.ConfigFile, true
	}
	yamlCfg, err := loadFromFile(path)
	switch {
	case err == nil:
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("load YAML config: %w", err)
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating missing parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &yamlCfg, nil
}

func applyYAMLConfig(cfg *Config, y *yamlConfig) error {
	setFloat(&cfg.SheetWidth, y.SheetWidth)
	setFloat(&cfg.SheetHeight, y.SheetHeight)
	setBool(&cfg.AllowRotation, y.AllowRotation)
	setFloat(&cfg.EfficiencyThreshold, y.EfficiencyThreshold)
	setFloat(&cfg.Kerf, y.Kerf)
	setInt(&cfg.MaxSheets, y.MaxSheets)
	setInt(&cfg.MaxGateRetries, y.MaxGateRetries)
	setInt(&cfg.MaxSheetsToDisplay, y.MaxSheetsToDisplay)
	setBool(&cfg.Prefilter, y.Prefilter)
	setBool(&cfg.Debug, y.Debug)
	return setSortMethod(&cfg.SortMethod, y.SortMethod)
}

// applyEnvConfig reads SHELFCUT_* variables in a fixed order. Unparseable
// values are errors.
func applyEnvConfig(cfg *Config) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"SHEET_WIDTH", &cfg.SheetWidth},
		{"SHEET_HEIGHT", &cfg.SheetHeight},
		{"EFFICIENCY_THRESHOLD", &cfg.EfficiencyThreshold},
		{"KERF", &cfg.Kerf},
	}
	for _, f := range floats {
		if raw, ok := lookupEnv(f.key); ok {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a number", ErrInvalidConfig, envPrefix, f.key, raw)
			}
			*f.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_SHEETS", &cfg.MaxSheets},
		{"MAX_GATE_RETRIES", &cfg.MaxGateRetries},
		{"MAX_SHEETS_TO_DISPLAY", &cfg.MaxSheetsToDisplay},
	}
	for _, f := range ints {
		if raw, ok := lookupEnv(f.key); ok {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalidConfig, envPrefix, f.key, raw)
			}
			*f.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"ALLOW_ROTATION", &cfg.AllowRotation},
		{"PREFILTER", &cfg.Prefilter},
		{"DEBUG", &cfg.Debug},
	}
	for _, f := range bools {
		if raw, ok := lookupEnv(f.key); ok {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalidConfig, envPrefix, f.key, raw)
			}
			*f.dst = v
		}
	}

	if raw, ok := lookupEnv("SORT_METHOD"); ok {
		return setSortMethod(&cfg.SortMethod, &raw)
	}
	return nil
}

func applyCLIOverrides(cfg *Config, o *CLIOverrides) error {
	setFloat(&cfg.SheetWidth, o.SheetWidth)
	setFloat(&cfg.SheetHeight, o.SheetHeight)
	setBool(&cfg.AllowRotation, o.AllowRotation)
	setFloat(&cfg.EfficiencyThreshold, o.EfficiencyThreshold)
	setFloat(&cfg.Kerf, o.Kerf)
	setInt(&cfg.MaxSheets, o.MaxSheets)
	setInt(&cfg.MaxGateRetries, o.MaxGateRetries)
	setInt(&cfg.MaxSheetsToDisplay, o.MaxSheetsToDisplay)
	setBool(&cfg.Prefilter, o.Prefilter)
	setBool(&cfg.Debug, o.Debug)
	if err := setSortMethod(&cfg.SortMethod, o.SortMethod); err != nil {
		return fmt.Errorf("parse sort method: %w", err)
	}
	return nil
}

// lookupEnv returns the trimmed value of SHELFCUT_<key>, ignoring empty values.
func lookupEnv(key string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	return raw, raw != ""
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setSortMethod(dst *model.SortMethod, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	m, err := model.ParseSortMethod(*v)
	if err != nil {
		return err
	}
	*dst = m
	return nil
}
