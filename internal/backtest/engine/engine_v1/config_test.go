package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfigIsValid() {
	config := EmptyConfig()
	suite.NoError(config.Validate())
	suite.Equal(100000.0, config.InitialCapital)
	suite.Equal("America/Chicago", config.Session.Timezone)
	suite.Equal("15:45", config.Session.ForceCloseTime)
	suite.Equal(commission_fee.ModelZero, config.Commission.Type)
	suite.True(config.StartTime.IsNone())
}

func (suite *ConfigTestSuite) TestTestConfigIsValid() {
	config := TestConfig()
	suite.NoError(config.Validate())
	suite.Empty(config.Session.ForceCloseTime)
	suite.Empty(config.Session.HaltStart)
}

func (suite *ConfigTestSuite) TestYAMLOverridesKeepDefaults() {
	document := `
initial_capital: 25000
point_value: 50
commission:
  type: fixed_per_unit
  value: 2.5
exits:
  stop_loss_points: 8
  take_profit_points: [4, 8]
  take_profit_quantities: [1, 2]
start_time: 2024-01-02T00:00:00Z
`
	config := EmptyConfig()
	suite.Require().NoError(yaml.Unmarshal([]byte(document), &config))

	suite.Equal(25000.0, config.InitialCapital)
	suite.Equal(50.0, config.PointValue)
	suite.Equal(0.25, config.TickSize)
	suite.Equal(commission_fee.ModelFixedPerUnit, config.Commission.Type)
	suite.Equal(2.5, config.Commission.Value)
	suite.Equal([]float64{4, 8}, config.Exits.TakeProfitPoints)
	suite.Equal(2.0, config.Exits.TakeProfitQuantity(1))
	suite.Equal(1.0, config.Exits.TakeProfitQuantity(2))
	suite.Equal("America/Chicago", config.Session.Timezone)
	suite.Require().True(config.StartTime.IsSome())
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap().UTC())
	suite.True(config.EndTime.IsNone())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name   string
		mutate func(c *BacktestEngineV1Config)
		code   errors.ErrorCode
	}{
		{
			name:   "non positive capital",
			mutate: func(c *BacktestEngineV1Config) { c.InitialCapital = 0 },
			code:   errors.ErrCodeInvalidConfiguration,
		},
		{
			name:   "unknown commission model",
			mutate: func(c *BacktestEngineV1Config) { c.Commission.Type = "per_lot" },
			code:   errors.ErrCodeInvalidConfiguration,
		},
		{
			name:   "bad clock",
			mutate: func(c *BacktestEngineV1Config) { c.Session.ForceCloseTime = "25:99" },
			code:   errors.ErrCodeInvalidConfiguration,
		},
		{
			name:   "unknown timezone",
			mutate: func(c *BacktestEngineV1Config) { c.Session.Timezone = "Mars/Olympus" },
			code:   errors.ErrCodeInvalidConfiguration,
		},
		{
			name:   "halt start without end",
			mutate: func(c *BacktestEngineV1Config) { c.Session.HaltEnd = "" },
			code:   errors.ErrCodeInvalidSessionClock,
		},
		{
			name: "early close dates without time",
			mutate: func(c *BacktestEngineV1Config) {
				c.Session.EarlyCloseDates = []string{"2024-11-29"}
			},
			code: errors.ErrCodeInvalidSessionClock,
		},
		{
			name: "detection without cutoff",
			mutate: func(c *BacktestEngineV1Config) {
				c.Session.DetectEarlyClose = true
				c.Session.EarlyCloseCutoff = ""
			},
			code: errors.ErrCodeInvalidSessionClock,
		},
		{
			name: "ladder quantity mismatch",
			mutate: func(c *BacktestEngineV1Config) {
				c.Exits.TakeProfitPoints = []float64{5, 10}
				c.Exits.TakeProfitQuantities = []float64{1}
			},
			code: errors.ErrCodeInvalidTakeProfitLadder,
		},
		{
			name:   "ladder not ascending",
			mutate: func(c *BacktestEngineV1Config) { c.Exits.TakeProfitPoints = []float64{10, 5} },
			code:   errors.ErrCodeInvalidTakeProfitLadder,
		},
		{
			name:   "ladder too deep",
			mutate: func(c *BacktestEngineV1Config) { c.Exits.TakeProfitPoints = []float64{1, 2, 3, 4} },
			code:   errors.ErrCodeInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			config := EmptyConfig()
			tt.mutate(&config)

			err := config.Validate()
			suite.Require().Error(err)
			suite.Equal(tt.code, errors.GetCode(err))
		})
	}
}

func (suite *ConfigTestSuite) TestStartMustPrecedeEnd() {
	document := `
start_time: 2024-02-01T00:00:00Z
end_time: 2024-01-01T00:00:00Z
`
	config := EmptyConfig()
	suite.Require().NoError(yaml.Unmarshal([]byte(document), &config))

	err := config.Validate()
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := EmptyConfig()
	schemaJSON, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &schema))
	suite.Equal("backtest-engine-v1-config", schema["title"])

	properties, ok := schema["properties"].(map[string]any)
	suite.Require().True(ok)

	for _, key := range []string{"initial_capital", "commission", "session", "exits", "start_time"} {
		suite.Contains(properties, key)
	}

	startTime, ok := properties["start_time"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("date-time", startTime["format"])
}
