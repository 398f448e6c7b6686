package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v2"

	"github.com/hindsight-lab/hindsight/internal/datasource"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefault() {
	cfg := Default()

	suite.Equal(1.0, cfg.InitialCash)
	suite.Equal(0.01, cfg.CommissionRate)
	suite.Equal(0.1, cfg.VolumeFraction)
	suite.Equal(0.1, cfg.ZeroValueThreshold)
	suite.Equal(3.0, cfg.OutlierStdDevs)
	suite.True(cfg.MaxPastPairs.IsNone())
	suite.Equal("results", cfg.ResultsDir)
	suite.Equal(filepath.Join("data", "Stocks"), cfg.DataDir)
	suite.NoError(cfg.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
initial_cash: 1000
commission_rate: 0.02
volume_fraction: 0.25
zero_value_threshold: 0.05
outlier_std_devs: 2.5
max_past_pairs: 10
results_dir: out
data_dir: data/Custom
`

	var cfg Config
	err := yaml.Unmarshal([]byte(yamlData), &cfg)

	suite.NoError(err)
	suite.Equal(1000.0, cfg.InitialCash)
	suite.Equal(0.02, cfg.CommissionRate)
	suite.Equal(0.25, cfg.VolumeFraction)
	suite.Equal(0.05, cfg.ZeroValueThreshold)
	suite.Equal(2.5, cfg.OutlierStdDevs)
	suite.True(cfg.MaxPastPairs.IsSome())
	suite.Equal(10.0, cfg.MaxPastPairs.Unwrap())
	suite.Equal("out", cfg.ResultsDir)
	suite.Equal("data/Custom", cfg.DataDir)
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLPartialKeepsDefaults() {
	yamlData := `
initial_cash: 500
`

	var cfg Config
	err := yaml.Unmarshal([]byte(yamlData), &cfg)

	suite.NoError(err)
	suite.Equal(500.0, cfg.InitialCash)
	suite.Equal(0.01, cfg.CommissionRate)
	suite.Equal(0.1, cfg.VolumeFraction)
	suite.True(cfg.MaxPastPairs.IsNone())
	suite.Equal("results", cfg.ResultsDir)
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	yamlData := `
initial_cash: not_a_number
`

	var cfg Config
	err := yaml.Unmarshal([]byte(yamlData), &cfg)

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestValidateRejectsBadValues() {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero initial cash", mutate: func(c *Config) { c.InitialCash = 0 }},
		{name: "negative commission", mutate: func(c *Config) { c.CommissionRate = -0.01 }},
		{name: "commission of one", mutate: func(c *Config) { c.CommissionRate = 1 }},
		{name: "zero volume fraction", mutate: func(c *Config) { c.VolumeFraction = 0 }},
		{name: "volume fraction above one", mutate: func(c *Config) { c.VolumeFraction = 1.5 }},
		{name: "zero outlier std devs", mutate: func(c *Config) { c.OutlierStdDevs = 0 }},
		{name: "empty results dir", mutate: func(c *Config) { c.ResultsDir = "" }},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (suite *ConfigTestSuite) TestLoadEmptyPathReturnsDefaults() {
	cfg, err := Load("")

	suite.NoError(err)
	suite.Equal(Default(), *cfg)
}

func (suite *ConfigTestSuite) TestLoadMissingFile() {
	_, err := Load(filepath.Join(suite.T().TempDir(), "nope.yaml"))

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestLoadFromFile() {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("initial_cash: 250\nmax_past_pairs: 4\n"), 0644))

	cfg, err := Load(path)

	suite.NoError(err)
	suite.Equal(250.0, cfg.InitialCash)
	suite.Equal(4.0, cfg.MaxPastPairs.Unwrap())
	suite.Equal(0.01, cfg.CommissionRate)
}

func (suite *ConfigTestSuite) TestLoadRejectsInvalidFile() {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("initial_cash: -5\n"), 0644))

	_, err := Load(path)

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestSchedule() {
	cfg := Default()
	sched := cfg.Schedule()

	suite.InDelta(10.1, sched.BuyCost(10), 1e-9)
	suite.InDelta(9.9, sched.SellRevenue(10), 1e-9)
}

func (suite *ConfigTestSuite) TestCleanOptions() {
	cfg := Default()

	suite.Equal(datasource.CleanOptions{
		ZeroValueThreshold: 0.1,
		OutlierStdDevs:     3,
		VolumeFraction:     0.1,
	}, cfg.CleanOptions())
}

func (suite *ConfigTestSuite) TestPairBudget() {
	cfg := Default()
	suite.True(math.IsInf(cfg.PairBudget(), 1))

	cfg.MaxPastPairs = optional.Some(6.0)
	suite.Equal(6.0, cfg.PairBudget())
}

func (suite *ConfigTestSuite) TestArtifactPaths() {
	cfg := Default()
	cfg.ResultsDir = "out"

	suite.Equal(filepath.Join("out", "small_moves.txt"), cfg.MovesFile("small"))
	suite.Equal(filepath.Join("out", "balance_large.svg"), cfg.ChartFile("large"))
	suite.Equal(filepath.Join("out", "large_summary.yaml"), cfg.SummaryFile("large"))
}

func (suite *ConfigTestSuite) TestMarshalYAMLRoundTrip() {
	cfg := Default()

	data, err := yaml.Marshal(cfg)
	suite.Require().NoError(err)
	suite.NotContains(string(data), "max_past_pairs")

	var loaded Config
	suite.Require().NoError(yaml.Unmarshal(data, &loaded))
	suite.Equal(cfg, loaded)

	cfg.MaxPastPairs = optional.Some(8.0)

	data, err = yaml.Marshal(cfg)
	suite.Require().NoError(err)
	suite.Contains(string(data), "max_past_pairs: 8")

	suite.Require().NoError(yaml.Unmarshal(data, &loaded))
	suite.Equal(8.0, loaded.PairBudget())
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	cfg := Default()
	schema, err := cfg.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("hindsight-config", schema.Title)
	suite.Equal("Configuration schema for hindsight backtest runs", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	cfg := Default()
	schemaJSON, err := cfg.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	// Verify it's valid JSON
	var result map[string]interface{}
	err = json.Unmarshal([]byte(schemaJSON), &result)
	suite.NoError(err)

	suite.Contains(result, "title")
	suite.Equal("hindsight-config", result["title"])
	suite.Contains(schemaJSON, "commission_rate")
}
