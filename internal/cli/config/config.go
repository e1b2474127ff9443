package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/effect-patterns/rulebook/internal/build"
	"github.com/effect-patterns/rulebook/internal/loader"
	"github.com/effect-patterns/rulebook/internal/rules"
)

const (
	// FileName is the config file stem looked up in the working directory
	FileName = "rulebook"

	// EnvPrefix prefixes environment overrides, e.g. RULEBOOK_OUTPUT
	EnvPrefix = "RULEBOOK"

	DefaultInput  = "content/published"
	DefaultOutput = "rules/rules.md"
)

// Config represents the rulebook configuration
type Config struct {
	Input             string   `mapstructure:"input"`
	Output            string   `mapstructure:"output"`
	Format            string   `mapstructure:"format"`
	Title             string   `mapstructure:"title"`
	GuidanceFile      string   `mapstructure:"guidance_file"`
	Include           []string `mapstructure:"include"`
	Exclude           []string `mapstructure:"exclude"`
	TierFromDirectory bool     `mapstructure:"tier_from_directory"`
	Workers           int      `mapstructure:"workers"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigFile is an explicit config path; it must exist when set
	ConfigFile string

	// Dir is searched for rulebook.yaml when ConfigFile is empty.
	// Defaults to the working directory.
	Dir string

	// Flags are bound over file and environment values
	Flags *pflag.FlagSet
}

// flagKeys maps config keys to the command-line flags that override them
var flagKeys = map[string]string{
	"input":               "input",
	"output":              "output",
	"format":              "format",
	"title":               "title",
	"guidance_file":       "guidance",
	"include":             "include",
	"exclude":             "exclude",
	"tier_from_directory": "tier-from-directory",
	"workers":             "workers",
}

// Load reads rulebook.yaml (or .yml) with RULEBOOK_* environment overrides
// and flag overrides on top
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("input", DefaultInput)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("format", string(rules.FormatMarkdown))
	v.SetDefault("title", rules.DefaultTitle)
	v.SetDefault("guidance_file", "")
	v.SetDefault("include", loader.DefaultInclude)
	v.SetDefault("exclude", loader.DefaultExclude)
	v.SetDefault("tier_from_directory", false)
	v.SetDefault("workers", runtime.NumCPU())

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key, name := range flagKeys {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	// Read config file if it exists
	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
		found = false
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if found {
		config.File = v.ConfigFileUsed()
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// BuildOptions converts the configuration into pipeline options
func (c *Config) BuildOptions(logger *zap.Logger) build.Options {
	format, _ := rules.ParseFormat(c.Format)
	output := c.Output
	if output == DefaultOutput {
		output = strings.TrimSuffix(DefaultOutput, filepath.Ext(DefaultOutput)) + format.Extension()
	}
	return build.Options{
		Input:             c.Input,
		Output:            output,
		Format:            format,
		Title:             c.Title,
		GuidanceFile:      c.GuidanceFile,
		Include:           c.Include,
		Exclude:           c.Exclude,
		TierFromDirectory: c.TierFromDirectory,
		Workers:           c.Workers,
		Logger:            logger,
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Input) == "" {
		return fmt.Errorf("input must not be empty")
	}
	if _, err := rules.ParseFormat(cfg.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be positive, got: %d", cfg.Workers)
	}
	if err := loader.ValidatePatterns(cfg.Include); err != nil {
		return fmt.Errorf("include: %w", err)
	}
	if err := loader.ValidatePatterns(cfg.Exclude); err != nil {
		return fmt.Errorf("exclude: %w", err)
	}
	return nil
}
