// Package config loads and validates the run configuration. Every field
// has a default, so an empty file (or no file at all) yields a usable
// configuration.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v2"

	"github.com/hindsight-lab/hindsight/internal/commission"
	"github.com/hindsight-lab/hindsight/internal/datasource"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// Config carries every tunable of a run.
type Config struct {
	// InitialCash is the starting capital.
	InitialCash float64 `yaml:"initial_cash" json:"initial_cash" jsonschema:"title=Initial Cash,description=Starting capital for a run in USD,minimum=0" validate:"gt=0"`
	// CommissionRate is the proportional fee charged on both trade sides.
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate" jsonschema:"title=Commission Rate,description=Proportional fee charged on both sides of a trade,minimum=0,maximum=1" validate:"gte=0,lt=1"`
	// VolumeFraction caps a single trade at this share of a day's volume.
	VolumeFraction float64 `yaml:"volume_fraction" json:"volume_fraction" jsonschema:"title=Volume Fraction,description=Share of a day's volume a single trade may consume,minimum=0,maximum=1" validate:"gt=0,lte=1"`
	// ZeroValueThreshold drops stocks whose fraction of zero-valued rows
	// exceeds it.
	ZeroValueThreshold float64 `yaml:"zero_value_threshold" json:"zero_value_threshold" jsonschema:"title=Zero Value Threshold,description=Maximum tolerated fraction of zero-valued rows per stock,minimum=0,maximum=1" validate:"gte=0,lte=1"`
	// OutlierStdDevs prunes days whose price range strays this many
	// standard deviations from the stock's mean range.
	OutlierStdDevs float64 `yaml:"outlier_std_devs" json:"outlier_std_devs" jsonschema:"title=Outlier Std Devs,description=Prune days whose price range strays this many standard deviations from the mean" validate:"gt=0"`
	// MaxPastPairs bounds corrective pairs per large-scenario period.
	// Unset means unbounded.
	MaxPastPairs optional.Option[float64] `yaml:"max_past_pairs" json:"max_past_pairs" jsonschema:"title=Max Past Pairs,description=Optional bound on corrective pairs per period in the large scenario"`
	// ResultsDir is where run artifacts are written.
	ResultsDir string `yaml:"results_dir" json:"results_dir" jsonschema:"title=Results Directory,description=Directory run artifacts are written to" validate:"required"`
	// DataDir is the default location of the raw stock text files.
	DataDir string `yaml:"data_dir" json:"data_dir" jsonschema:"title=Data Directory,description=Default location of the raw stock text files" validate:"required"`
}

// Default returns the configuration used when a field (or the whole
// file) is absent.
func Default() Config {
	return Config{
		InitialCash:        1.0,
		CommissionRate:     0.01,
		VolumeFraction:     0.1,
		ZeroValueThreshold: 0.1,
		OutlierStdDevs:     3,
		MaxPastPairs:       optional.None[float64](),
		ResultsDir:         "results",
		DataDir:            filepath.Join("data", "Stocks"),
	}
}

// UnmarshalYAML implements custom unmarshaling for Config: absent fields
// keep their defaults instead of collapsing to zero values.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type raw struct {
		InitialCash        *float64 `yaml:"initial_cash"`
		CommissionRate     *float64 `yaml:"commission_rate"`
		VolumeFraction     *float64 `yaml:"volume_fraction"`
		ZeroValueThreshold *float64 `yaml:"zero_value_threshold"`
		OutlierStdDevs     *float64 `yaml:"outlier_std_devs"`
		MaxPastPairs       *float64 `yaml:"max_past_pairs"`
		ResultsDir         *string  `yaml:"results_dir"`
		DataDir            *string  `yaml:"data_dir"`
	}

	var r raw
	if err := unmarshal(&r); err != nil {
		return err
	}

	*c = Default()
	if r.InitialCash != nil {
		c.InitialCash = *r.InitialCash
	}
	if r.CommissionRate != nil {
		c.CommissionRate = *r.CommissionRate
	}
	if r.VolumeFraction != nil {
		c.VolumeFraction = *r.VolumeFraction
	}
	if r.ZeroValueThreshold != nil {
		c.ZeroValueThreshold = *r.ZeroValueThreshold
	}
	if r.OutlierStdDevs != nil {
		c.OutlierStdDevs = *r.OutlierStdDevs
	}
	if r.MaxPastPairs != nil {
		c.MaxPastPairs = optional.Some(*r.MaxPastPairs)
	}
	if r.ResultsDir != nil {
		c.ResultsDir = *r.ResultsDir
	}
	if r.DataDir != nil {
		c.DataDir = *r.DataDir
	}

	return nil
}

// MarshalYAML implements custom marshaling for Config: an unset
// MaxPastPairs is omitted instead of being encoded as an empty sequence.
func (c Config) MarshalYAML() (interface{}, error) {
	type raw struct {
		InitialCash        float64  `yaml:"initial_cash"`
		CommissionRate     float64  `yaml:"commission_rate"`
		VolumeFraction     float64  `yaml:"volume_fraction"`
		ZeroValueThreshold float64  `yaml:"zero_value_threshold"`
		OutlierStdDevs     float64  `yaml:"outlier_std_devs"`
		MaxPastPairs       *float64 `yaml:"max_past_pairs,omitempty"`
		ResultsDir         string   `yaml:"results_dir"`
		DataDir            string   `yaml:"data_dir"`
	}

	r := raw{
		InitialCash:        c.InitialCash,
		CommissionRate:     c.CommissionRate,
		VolumeFraction:     c.VolumeFraction,
		ZeroValueThreshold: c.ZeroValueThreshold,
		OutlierStdDevs:     c.OutlierStdDevs,
		ResultsDir:         c.ResultsDir,
		DataDir:            c.DataDir,
	}

	if c.MaxPastPairs.IsSome() {
		v := c.MaxPastPairs.Unwrap()
		r.MaxPastPairs = &v
	}

	return r, nil
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[float64]" {
				return &jsonschema.Schema{
					Type: "number",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "hindsight-config"
	schema.Description = "Configuration schema for hindsight backtest runs"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates an indented JSON schema string for the
// Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// Load reads the configuration at path. An empty path returns the
// defaults without touching the filesystem.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

// Schedule builds the commission schedule the configuration describes.
func (c *Config) Schedule() commission.Schedule {
	return commission.NewFixedRate(c.CommissionRate)
}

// CleanOptions returns the data-cleaning parameters in the form the
// datasource expects.
func (c *Config) CleanOptions() datasource.CleanOptions {
	return datasource.CleanOptions{
		ZeroValueThreshold: c.ZeroValueThreshold,
		OutlierStdDevs:     c.OutlierStdDevs,
		VolumeFraction:     c.VolumeFraction,
	}
}

// PairBudget returns the corrective pair budget, +Inf when unbounded.
func (c *Config) PairBudget() float64 {
	if c.MaxPastPairs.IsSome() {
		return c.MaxPastPairs.Unwrap()
	}

	return math.Inf(1)
}

// MovesFile returns the moves file path for a scenario.
func (c *Config) MovesFile(scenario string) string {
	return filepath.Join(c.ResultsDir, fmt.Sprintf("%s_moves.txt", scenario))
}

// ChartFile returns the balance chart path for a scenario.
func (c *Config) ChartFile(scenario string) string {
	return filepath.Join(c.ResultsDir, fmt.Sprintf("balance_%s.svg", scenario))
}

// SummaryFile returns the run summary path for a scenario.
func (c *Config) SummaryFile(scenario string) string {
	return filepath.Join(c.ResultsDir, fmt.Sprintf("%s_summary.yaml", scenario))
}
