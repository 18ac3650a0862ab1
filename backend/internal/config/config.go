// Package config loads the pipeline configuration from defaults, a YAML
// config file, .env files, USAGEWIDEN_* environment variables and CLI flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JustUsingaWebsite/usage-widen/backend/internal/csvops"
	pkgerrors "github.com/JustUsingaWebsite/usage-widen/backend/internal/errors"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/ingest"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/logging"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/tableio"
	"github.com/JustUsingaWebsite/usage-widen/backend/internal/types"
)

// EnvPrefix is prepended to every environment variable, e.g. USAGEWIDEN_USAGE_PATH.
const EnvPrefix = "USAGEWIDEN"

// FileName is the config file searched for in the working and home directories.
const FileName = ".usagewiden"

type MasterConfig struct {
	KeyColumn string `mapstructure:"key_column" yaml:"key_column"`
}

// Config is the full pipeline configuration.
type Config struct {
	UsagePath    string `mapstructure:"usage_path" yaml:"usage_path"`
	MasterPath   string `mapstructure:"master_path" yaml:"master_path"`
	OutputPath   string `mapstructure:"output_path" yaml:"output_path"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	Encoding     string `mapstructure:"encoding" yaml:"encoding"`

	HistoryDir     string `mapstructure:"history_dir" yaml:"history_dir"`
	HistoryPattern string `mapstructure:"history_pattern" yaml:"history_pattern"`

	Usage  csvops.UsageColumns `mapstructure:"usage" yaml:"usage"`
	Master MasterConfig        `mapstructure:"master" yaml:"master"`

	NullMarker         string `mapstructure:"null_marker" yaml:"null_marker"`
	HeaderFiller       string `mapstructure:"header_filler" yaml:"header_filler"`
	ResourceOrder      string `mapstructure:"resource_order" yaml:"resource_order"`
	FillMode           string `mapstructure:"fill_mode" yaml:"fill_mode"`
	OnMalformed        string `mapstructure:"on_malformed" yaml:"on_malformed"`
	TrimSpaces         bool   `mapstructure:"trim_spaces" yaml:"trim_spaces"`
	KeyCaseInsensitive bool   `mapstructure:"key_case_insensitive" yaml:"key_case_insensitive"`

	Log logging.Config `mapstructure:"log" yaml:"log"`

	// ConfigFile is the file the values were read from, if any.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	cols := csvops.DefaultUsageColumns()

	v.SetDefault("usage_path", "original_data/UCD-04 Dbase Report (DB1) Monthly View.csv")
	v.SetDefault("master_path", "data/all_consolidated.csv")
	v.SetDefault("output_path", "data/DB1_web_combined.csv")
	v.SetDefault("output_format", tableio.FormatCSV)
	v.SetDefault("encoding", tableio.EncodingUTF8)
	v.SetDefault("history_dir", "original_data/historical_data")
	v.SetDefault("history_pattern", ingest.DefaultPattern)
	v.SetDefault("usage.name_column", cols.Name)
	v.SetDefault("usage.period_column", cols.Period)
	v.SetDefault("usage.count_column", cols.Count)
	v.SetDefault("master.key_column", "0")
	v.SetDefault("null_marker", "")
	v.SetDefault("header_filler", "_")
	v.SetDefault("resource_order", string(csvops.OrderDiscovery))
	v.SetDefault("fill_mode", string(csvops.FillResource))
	v.SetDefault("on_malformed", string(csvops.MalformedFail))
	v.SetDefault("trim_spaces", false)
	v.SetDefault("key_case_insensitive", false)

	log := logging.DefaultConfig()
	v.SetDefault("log.level", log.Level)
	v.SetDefault("log.format", log.Format)
	v.SetDefault("log.output", log.Output)
	v.SetDefault("log.no_color", log.NoColor)
}

// Load reads configuration into a Config. file names an explicit config file;
// when empty, .usagewiden.yaml is looked up in the working and home
// directories and a missing file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	loadEnvFiles()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads .env.local then .env. godotenv never overrides a
// variable that is already set, so the real environment wins over both.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func oneOf(key, value string, allowed ...string) error {
	if slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return pkgerrors.NewConfigError(key, value, "must be one of "+strings.Join(allowed, ", "))
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	checks := []error{
		oneOf("output_format", c.OutputFormat, tableio.FormatCSV, tableio.FormatJSON),
		oneOf("encoding", c.Encoding, tableio.Encodings...),
		oneOf("resource_order", c.ResourceOrder, string(csvops.OrderDiscovery), string(csvops.OrderAlphabetical)),
		oneOf("fill_mode", c.FillMode, string(csvops.FillResource), string(csvops.FillLegacy)),
		oneOf("on_malformed", c.OnMalformed, string(csvops.MalformedFail), string(csvops.MalformedSkip)),
		oneOf("log.level", c.Log.Level, logging.Levels...),
	}
	return errors.Join(checks...)
}

// RequireMergePaths checks the three paths a merge run needs.
func (c *Config) RequireMergePaths() error {
	var errs []error
	paths := []struct{ key, val string }{
		{"usage_path", c.UsagePath},
		{"master_path", c.MasterPath},
		{"output_path", c.OutputPath},
	}
	for _, p := range paths {
		if strings.TrimSpace(p.val) == "" {
			errs = append(errs, pkgerrors.NewConfigError(p.key, nil, "is required"))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if c.OutputPath == c.UsagePath || c.OutputPath == c.MasterPath {
		return pkgerrors.NewConfigError("output_path", c.OutputPath, "must differ from the input paths")
	}
	return nil
}

// Match returns the key matching options.
func (c *Config) Match() types.OpOptions {
	return types.OpOptions{TrimSpaces: c.TrimSpaces, KeyCaseInsensitive: c.KeyCaseInsensitive}
}

// IndexOptions returns the options for csvops.BuildUsageIndex.
func (c *Config) IndexOptions() csvops.IndexOptions {
	return csvops.IndexOptions{
		Columns:     c.Usage,
		Match:       c.Match(),
		OnMalformed: csvops.MalformedPolicy(strings.ToLower(c.OnMalformed)),
	}
}

// WidenOptions returns the options for csvops.Widen.
func (c *Config) WidenOptions() csvops.WidenOptions {
	return csvops.WidenOptions{
		KeyColumn:    c.Master.KeyColumn,
		NullMarker:   c.NullMarker,
		HeaderFiller: c.HeaderFiller,
		Order:        csvops.ResourceOrder(strings.ToLower(c.ResourceOrder)),
		Fill:         csvops.FillMode(strings.ToLower(c.FillMode)),
		OnMalformed:  csvops.MalformedPolicy(strings.ToLower(c.OnMalformed)),
	}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
