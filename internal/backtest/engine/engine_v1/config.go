package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

type CommissionConfig struct {
	Type  commission_fee.Model `yaml:"type" json:"type" jsonschema:"title=Commission Model,description=How each fill is charged" validate:"required,oneof=zero fixed_per_unit fixed_per_fill percentage interactive_broker"`
	Value float64              `yaml:"value" json:"value" jsonschema:"title=Commission Value,description=Currency per unit or per fill or percent of notional depending on the model,minimum=0" validate:"gte=0"`
}

type SlippageConfig struct {
	Ticks  float64 `yaml:"ticks" json:"ticks" jsonschema:"title=Slippage Ticks,description=Adverse slippage in ticks applied to every fill,minimum=0" validate:"gte=0"`
	Points float64 `yaml:"points" json:"points" jsonschema:"title=Slippage Points,description=Adverse slippage in price points applied to every fill,minimum=0" validate:"gte=0"`
}

type SessionConfig struct {
	Timezone string `yaml:"timezone" json:"timezone" jsonschema:"title=Timezone,description=IANA zone the session clock is read in" validate:"required"`
	// ForceCloseTime is matched exactly against each bar's HH:MM. Empty disables it.
	ForceCloseTime            string   `yaml:"force_close_time" json:"force_close_time" jsonschema:"title=Force Close Time,description=HH:MM at which open positions are flattened" validate:"omitempty,datetime=15:04"`
	EarlyCloseTime            string   `yaml:"early_close_time" json:"early_close_time" jsonschema:"title=Early Close Time,description=HH:MM close used for configured early close dates" validate:"omitempty,datetime=15:04"`
	EarlyCloseDates           []string `yaml:"early_close_dates" json:"early_close_dates" jsonschema:"title=Early Close Dates,description=YYYY-MM-DD dates that close early" validate:"dive,datetime=2006-01-02"`
	DetectEarlyClose          bool     `yaml:"detect_early_close" json:"detect_early_close" jsonschema:"title=Detect Early Close,description=Treat dates whose last bar is at or before the cutoff as early closes"`
	EarlyCloseCutoff          string   `yaml:"early_close_cutoff" json:"early_close_cutoff" jsonschema:"title=Early Close Cutoff,description=HH:MM cutoff for early close detection" validate:"omitempty,datetime=15:04"`
	EarlyCloseHaltLeadMinutes int      `yaml:"early_close_halt_lead_minutes" json:"early_close_halt_lead_minutes" jsonschema:"title=Early Close Halt Lead,description=Minutes before an early close during which entries are blocked,minimum=0" validate:"gte=0"`
	HaltStart                 string   `yaml:"halt_start" json:"halt_start" jsonschema:"title=Halt Start,description=HH:MM start of the daily window that blocks entries" validate:"omitempty,datetime=15:04"`
	HaltEnd                   string   `yaml:"halt_end" json:"halt_end" jsonschema:"title=Halt End,description=HH:MM end of the daily window that blocks entries" validate:"omitempty,datetime=15:04"`
}

type ExitConfig struct {
	// StopLossPoints of 0 opens positions without a stop.
	StopLossPoints         float64   `yaml:"stop_loss_points" json:"stop_loss_points" jsonschema:"title=Stop Loss Points,description=Stop distance from the average entry,minimum=0" validate:"gte=0"`
	TakeProfitPoints       []float64 `yaml:"take_profit_points" json:"take_profit_points" jsonschema:"title=Take Profit Points,description=Ascending distances of up to three take profit levels" validate:"max=3,dive,gt=0"`
	TakeProfitQuantities   []float64 `yaml:"take_profit_quantities" json:"take_profit_quantities" jsonschema:"title=Take Profit Quantities,description=Quantity closed by each level. Defaults to one unit per level" validate:"max=3,dive,gt=0"`
	BreakevenTriggerPoints float64   `yaml:"breakeven_trigger_points" json:"breakeven_trigger_points" jsonschema:"title=Breakeven Trigger,description=Favorable excursion that ratchets the stop to entry. 0 disables,minimum=0" validate:"gte=0"`
	BreakevenOffsetPoints  float64   `yaml:"breakeven_offset_points" json:"breakeven_offset_points" jsonschema:"title=Breakeven Offset,description=Points beyond entry the ratcheted stop is placed at" validate:"gte=0"`
	// BreakevenAfterTakeProfit ratchets once the given level (1-based) has fired. 0 disables.
	BreakevenAfterTakeProfit int `yaml:"breakeven_after_take_profit" json:"breakeven_after_take_profit" jsonschema:"title=Breakeven After Take Profit,description=Ratchet the stop once this take profit level has fired. 0 disables,minimum=0,maximum=3" validate:"gte=0,lte=3"`
}

type MetricsConfig struct {
	// RiskFreeRate is subtracted from every per-bar return.
	RiskFreeRate   float64 `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Per-bar risk free return subtracted before the Sharpe ratio"`
	SampleStdDev   bool    `yaml:"sample_std_dev" json:"sample_std_dev" jsonschema:"title=Sample Standard Deviation,description=Use the n-1 denominator instead of the population one"`
	PeriodsPerYear float64 `yaml:"periods_per_year" json:"periods_per_year" jsonschema:"title=Periods Per Year,description=Annualization factor for the Sharpe ratio. 0 leaves it per bar,minimum=0" validate:"gte=0"`
}

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting account equity,minimum=0" validate:"gt=0"`
	PointValue     float64                    `yaml:"point_value" json:"point_value" jsonschema:"title=Point Value,description=Currency value of one point per unit of quantity,minimum=0" validate:"gt=0"`
	TickSize       float64                    `yaml:"tick_size" json:"tick_size" jsonschema:"title=Tick Size,description=Minimum price increment,minimum=0" validate:"gt=0"`
	Commission     CommissionConfig           `yaml:"commission" json:"commission" jsonschema:"title=Commission"`
	Slippage       SlippageConfig             `yaml:"slippage" json:"slippage" jsonschema:"title=Slippage"`
	MaxBarsBack    int                        `yaml:"max_bars_back" json:"max_bars_back" jsonschema:"title=Max Bars Back,description=Visible history length handed to the strategy. 0 means all bars,minimum=0" validate:"gte=0"`
	StartTime      optional.Option[time.Time] `yaml:"-" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the simulated period"`
	EndTime        optional.Option[time.Time] `yaml:"-" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the simulated period"`
	Session        SessionConfig              `yaml:"session" json:"session" jsonschema:"title=Session Calendar"`
	Exits          ExitConfig                 `yaml:"exits" json:"exits" jsonschema:"title=Exit Rules"`
	Metrics        MetricsConfig              `yaml:"metrics" json:"metrics" jsonschema:"title=Metrics"`
}

// UnmarshalYAML decodes over the receiver's current values, so fields absent
// from the document keep their defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type plain BacktestEngineV1Config

	raw := struct {
		plain     `yaml:",inline"`
		StartTime *time.Time `yaml:"start_time"`
		EndTime   *time.Time `yaml:"end_time"`
	}{plain: plain(*c)}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = BacktestEngineV1Config(raw.plain)
	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Validate checks tags first, then the rules that span several fields.
func (c *BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine configuration", err)
	}

	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "unknown session timezone %q", c.Session.Timezone)
	}

	if (c.Session.HaltStart == "") != (c.Session.HaltEnd == "") {
		return errors.New(errors.ErrCodeInvalidSessionClock, "halt_start and halt_end must be set together")
	}

	if len(c.Session.EarlyCloseDates) > 0 && c.Session.EarlyCloseTime == "" {
		return errors.New(errors.ErrCodeInvalidSessionClock, "early_close_dates require early_close_time")
	}

	if c.Session.DetectEarlyClose && c.Session.EarlyCloseCutoff == "" {
		return errors.New(errors.ErrCodeInvalidSessionClock, "detect_early_close requires early_close_cutoff")
	}

	if len(c.Exits.TakeProfitQuantities) > 0 && len(c.Exits.TakeProfitQuantities) != len(c.Exits.TakeProfitPoints) {
		return errors.Newf(errors.ErrCodeInvalidTakeProfitLadder,
			"take_profit_quantities has %d entries but take_profit_points has %d",
			len(c.Exits.TakeProfitQuantities), len(c.Exits.TakeProfitPoints))
	}

	for i := 1; i < len(c.Exits.TakeProfitPoints); i++ {
		if c.Exits.TakeProfitPoints[i] <= c.Exits.TakeProfitPoints[i-1] {
			return errors.New(errors.ErrCodeInvalidTakeProfitLadder, "take_profit_points must be strictly ascending")
		}
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "start_time must be before end_time")
	}

	return nil
}

// TakeProfitQuantity returns the configured quantity for ladder level i.
func (c ExitConfig) TakeProfitQuantity(i int) float64 {
	if i < len(c.TakeProfitQuantities) {
		return c.TakeProfitQuantities[i]
	}

	return 1
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.Contains(t.String(), "commission_fee.Model") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllModels,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
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

// TestConfig returns a frictionless single-contract configuration used by tests.
func TestConfig() BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCapital = 10000
	config.Session.ForceCloseTime = ""
	config.Session.HaltStart = ""
	config.Session.HaltEnd = ""
	config.Session.Timezone = "UTC"

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: 100000,
		PointValue:     1,
		TickSize:       0.25,
		Commission: CommissionConfig{
			Type:  commission_fee.ModelZero,
			Value: 0,
		},
		Slippage:    SlippageConfig{},
		MaxBarsBack: 0,
		StartTime:   optional.None[time.Time](),
		EndTime:     optional.None[time.Time](),
		Session: SessionConfig{
			Timezone:                  "America/Chicago",
			ForceCloseTime:            "15:45",
			EarlyCloseCutoff:          "16:00",
			EarlyCloseHaltLeadMinutes: 15,
			HaltStart:                 "15:40",
			HaltEnd:                   "17:00",
		},
		Metrics: MetricsConfig{
			PeriodsPerYear: 252,
		},
	}
}
