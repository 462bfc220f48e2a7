// Package config holds the settings of a community detection run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-coreexp/pkg/algorithms"
	"github.com/dd0wney/cluso-coreexp/pkg/logging"
)

// EnvConfigFile names the environment variable pointing at a YAML overlay.
const EnvConfigFile = "COREEXP_CONFIG"

// Built-in defaults used when the binary runs without arguments.
const (
	DefaultInput           = "edges.csv"
	DefaultCommunitiesFile = "CoreExp_Communities.csv"
	DefaultLogDir          = "logs"
	CommunitiesPrefix      = "communities_"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Config describes one run.
type Config struct {
	Input           string `yaml:"input" validate:"required"`
	CommunitiesFile string `yaml:"communities_file" validate:"required"`
	// LogDir receives the run log, intermediate results and snapshots.
	LogDir string `yaml:"log_dir" validate:"required"`

	// LoadWeights reads the weight column of the input. Overlap weighting
	// replaces these weights before seeding.
	LoadWeights bool `yaml:"load_weights"`

	WriteIntermediate bool   `yaml:"write_intermediate"`
	CompressSnapshots bool   `yaml:"compress_snapshots"`
	MetricsTextfile   bool   `yaml:"metrics_textfile"`
	LogLevel          string `yaml:"log_level" validate:"oneof=trace debug info warn warning error TRACE DEBUG INFO WARN WARNING ERROR"`

	Expansion ExpansionConfig `yaml:"expansion"`
}

// ExpansionConfig mirrors algorithms.ExpansionOptions.
type ExpansionConfig struct {
	UseWeights         bool   `yaml:"use_weights"`
	CountExternalLinks bool   `yaml:"count_external_links"`
	UsePredecessors    bool   `yaml:"use_predecessors"`
	DeduplicateMembers bool   `yaml:"deduplicate_members"`
	SeedTieBreak       string `yaml:"seed_tie_break" validate:"oneof=first-seen keep-all"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Input:             DefaultInput,
		CommunitiesFile:   DefaultCommunitiesFile,
		LogDir:            DefaultLogDir,
		WriteIntermediate: true,
		MetricsTextfile:   true,
		LogLevel:          "info",
		Expansion: ExpansionConfig{
			UseWeights:   true,
			SeedTieBreak: algorithms.TieBreakFirstSeen.String(),
		},
	}
}

// Load returns the defaults, overlaid with the file named by
// COREEXP_CONFIG when it is set.
func Load() (Config, error) {
	cfg := Default()
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		return cfg, nil
	}
	return LoadFile(path, cfg)
}

// LoadFile overlays the YAML file at path onto base. Keys absent from the
// file keep their base value; unknown keys are rejected.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// DerivePaths points the run at input and places the communities file and
// the log directory next to it, the way the coreexp -f flag does.
func (c *Config) DerivePaths(input string) error {
	abs, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", input, err)
	}
	dir := filepath.Dir(abs)

	c.Input = input
	c.CommunitiesFile = filepath.Join(dir, CommunitiesPrefix+filepath.Base(abs))
	c.LogDir = filepath.Join(dir, DefaultLogDir)
	return nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// ExpansionOptions converts the expansion settings.
func (c Config) ExpansionOptions() algorithms.ExpansionOptions {
	tieBreak, _ := algorithms.ParseTieBreak(c.Expansion.SeedTieBreak)
	return algorithms.ExpansionOptions{
		UseWeights:         c.Expansion.UseWeights,
		CountExternalLinks: c.Expansion.CountExternalLinks,
		UsePredecessors:    c.Expansion.UsePredecessors,
		DeduplicateMembers: c.Expansion.DeduplicateMembers,
		SeedTieBreak:       tieBreak,
	}
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "oneof":
			return fmt.Errorf("%s: %q is not one of [%s]", field, e.Value(), e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
