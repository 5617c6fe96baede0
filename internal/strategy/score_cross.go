package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	sdk "github.com/rxtech-lab/argo-backtest/pkg/strategy"
)

const ScoreCrossName = "score_cross"

type ScoreCrossParams struct {
	PrimaryTimeframe       string   `mapstructure:"primary_timeframe" yaml:"primary_timeframe" jsonschema:"title=Primary Timeframe,description=Signal whose cross triggers entries,default=1m" validate:"required"`
	ConfirmationTimeframes []string `mapstructure:"confirmation_timeframes" yaml:"confirmation_timeframes" jsonschema:"title=Confirmation Timeframes,description=Signals counted as confirmations"`
	RequiredConfirmations  int      `mapstructure:"required_confirmations" yaml:"required_confirmations" jsonschema:"title=Required Confirmations,minimum=0,default=0" validate:"gte=0"`
	ScoreThreshold         float64  `mapstructure:"score_threshold" yaml:"score_threshold" jsonschema:"title=Score Threshold,description=Absolute level a confirmation signal must exceed,default=20" validate:"gte=0"`
	CrossLevel             float64  `mapstructure:"cross_level" yaml:"cross_level" jsonschema:"title=Cross Level,default=0"`
	ATRLength              int      `mapstructure:"atr_length" yaml:"atr_length" jsonschema:"title=ATR Length,minimum=1,default=15" validate:"gte=1"`
	ATRStopMultiplier      float64  `mapstructure:"atr_stop_multiplier" yaml:"atr_stop_multiplier" jsonschema:"title=ATR Stop Multiplier,description=Stop distance in ATRs when no swing point exists,default=2.5" validate:"gt=0"`
	TP1Multiplier          float64  `mapstructure:"tp1_multiplier" yaml:"tp1_multiplier" jsonschema:"title=TP1 Multiplier,default=1.5" validate:"gt=0"`
	TP2Multiplier          float64  `mapstructure:"tp2_multiplier" yaml:"tp2_multiplier" jsonschema:"title=TP2 Multiplier,default=4" validate:"gtfield=TP1Multiplier"`
	TP3Multiplier          float64  `mapstructure:"tp3_multiplier" yaml:"tp3_multiplier" jsonschema:"title=TP3 Multiplier,default=4.5" validate:"gtfield=TP2Multiplier"`
	SwingLookback          int      `mapstructure:"swing_lookback" yaml:"swing_lookback" jsonschema:"title=Swing Lookback,description=Bars on each side of a swing point. 0 always uses the ATR stop,minimum=0,default=5" validate:"gte=0"`
	TickSize               float64  `mapstructure:"tick_size" yaml:"tick_size" jsonschema:"title=Tick Size,description=Offset placed beyond the swing point,default=0.25" validate:"gt=0"`
	Quantity               float64  `mapstructure:"quantity" yaml:"quantity" jsonschema:"title=Quantity,description=Units per entry. One unit is closed at each take profit,default=3" validate:"gt=0"`
}

// ScoreCross enters when the primary score crosses the cross level. Longs
// need the previous score at or below the level and the current above it;
// shorts the reverse. The stop sits one tick beyond the latest swing point
// or falls back to an ATR multiple, and three ATR take-profit levels each
// close one unit. Exits are left to the engine through the exit plan.
type ScoreCross struct {
	params    ScoreCrossParams
	atr       indicator.Indicator
	direction types.PositionDirection
}

var (
	_ runtime.Strategy    = (*ScoreCross)(nil)
	_ runtime.Optimizable = (*ScoreCross)(nil)
	_ Describer           = (*ScoreCross)(nil)
)

func NewScoreCross() runtime.Strategy {
	return &ScoreCross{
		params:    defaultScoreCrossParams(),
		direction: types.PositionDirectionFlat,
	}
}

func defaultScoreCrossParams() ScoreCrossParams {
	return ScoreCrossParams{
		PrimaryTimeframe:       "1m",
		ConfirmationTimeframes: []string{"5m", "15m", "1h"},
		RequiredConfirmations:  0,
		ScoreThreshold:         20,
		CrossLevel:             0,
		ATRLength:              15,
		ATRStopMultiplier:      2.5,
		TP1Multiplier:          1.5,
		TP2Multiplier:          4.0,
		TP3Multiplier:          4.5,
		SwingLookback:          5,
		TickSize:               0.25,
		Quantity:               3,
	}
}

func (s *ScoreCross) Name() string {
	return ScoreCrossName
}

func (s *ScoreCross) Initialize(params map[string]any) error {
	decoded, err := sdk.DecodeParams(params, defaultScoreCrossParams())
	if err != nil {
		return err
	}

	atr, err := indicator.New(indicator.IndicatorTypeATR, decoded.ATRLength)
	if err != nil {
		return err
	}

	s.params = decoded
	s.atr = atr
	s.direction = types.PositionDirectionFlat

	return nil
}

func (s *ScoreCross) OnBar(ctx runtime.StrategyContext) error {
	if s.atr == nil {
		atr, err := indicator.New(indicator.IndicatorTypeATR, s.params.ATRLength)
		if err != nil {
			return err
		}

		s.atr = atr
	}

	if ctx.Position().IsOpen {
		return nil
	}

	s.direction = types.PositionDirectionFlat

	bars := ctx.Bars()
	if len(bars) < 2 {
		return nil
	}

	scores := ctx.Signals(s.params.PrimaryTimeframe)
	current, previous := scores[len(scores)-1], scores[len(scores)-2]

	if current.IsNone() || previous.IsNone() {
		return nil
	}

	level := s.params.CrossLevel
	crossedUp := previous.Unwrap() <= level && current.Unwrap() > level
	crossedDown := previous.Unwrap() >= level && current.Unwrap() < level

	if !crossedUp && !crossedDown {
		return nil
	}

	direction := types.PositionDirectionLong
	if crossedDown {
		direction = types.PositionDirectionShort
	}

	if s.confirmations(ctx.CurrentBar(), direction) < s.params.RequiredConfirmations {
		return nil
	}

	atr, err := indicator.Value(s.atr, bars)
	if err != nil {
		return err
	}

	if atr.IsNone() || atr.Unwrap() <= 0 {
		return nil
	}

	plan := s.exitPlan(bars, direction, atr.Unwrap())

	if direction == types.PositionDirectionLong {
		_, err = ctx.Buy(s.params.Quantity, types.ReasonEntry, runtime.WithExitPlan(plan))
	} else {
		_, err = ctx.SellShort(s.params.Quantity, types.ReasonEntry, runtime.WithExitPlan(plan))
	}

	if err != nil {
		return err
	}

	s.direction = direction

	return nil
}

// confirmations counts confirmation signals beyond the threshold in the
// entry direction.
func (s *ScoreCross) confirmations(bar types.Bar, direction types.PositionDirection) int {
	count := 0

	for _, tf := range s.params.ConfirmationTimeframes {
		value := bar.Signal(tf)
		if value.IsNone() {
			continue
		}

		if direction == types.PositionDirectionLong && value.Unwrap() > s.params.ScoreThreshold {
			count++
		}

		if direction == types.PositionDirectionShort && value.Unwrap() < -s.params.ScoreThreshold {
			count++
		}
	}

	return count
}

func (s *ScoreCross) exitPlan(bars []types.Bar, direction types.PositionDirection, atr float64) types.ExitPlan {
	closePrice := bars[len(bars)-1].Close
	sign := direction.Sign()

	swingLow, swingHigh := indicator.SwingPoints(bars, s.params.SwingLookback)

	stop := closePrice - sign*atr*s.params.ATRStopMultiplier

	if direction == types.PositionDirectionLong && swingLow.IsSome() && swingLow.Unwrap() < closePrice {
		stop = swingLow.Unwrap() - s.params.TickSize
	}

	if direction == types.PositionDirectionShort && swingHigh.IsSome() && swingHigh.Unwrap() > closePrice {
		stop = swingHigh.Unwrap() + s.params.TickSize
	}

	unit := s.params.Quantity / 3
	multipliers := []float64{s.params.TP1Multiplier, s.params.TP2Multiplier, s.params.TP3Multiplier}
	takeProfits := make([]types.TakeProfitLevel, 0, len(multipliers))

	for _, multiplier := range multipliers {
		price := closePrice + sign*atr*multiplier
		if price <= 0 {
			break
		}

		takeProfits = append(takeProfits, types.TakeProfitLevel{Price: price, Quantity: unit})
	}

	return types.ExitPlan{
		StopLoss:    optional.Some(stop),
		TakeProfits: takeProfits,
	}
}

func (s *ScoreCross) DirectionHint() types.PositionDirection {
	return s.direction
}

func (s *ScoreCross) ParameterRanges() map[string]runtime.ParameterRange {
	return map[string]runtime.ParameterRange{
		"atr_length":             {Min: 10, Max: 30, Step: 5},
		"atr_stop_multiplier":    {Min: 1.5, Max: 3.5, Step: 0.5},
		"tp1_multiplier":         {Min: 1.0, Max: 3.0, Step: 0.5},
		"required_confirmations": {Min: 0, Max: 3, Step: 1},
	}
}

func (s *ScoreCross) ParametersSchema() (string, error) {
	return sdk.ToJSONSchema(ScoreCrossParams{})
}
