package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	sdk "github.com/rxtech-lab/argo-backtest/pkg/strategy"
)

const SMACrossoverName = "sma_crossover"

type SMACrossoverParams struct {
	Period   int     `mapstructure:"period" yaml:"period" jsonschema:"title=Period,description=SMA lookback in bars,minimum=1,default=20" validate:"gte=1"`
	Quantity float64 `mapstructure:"quantity" yaml:"quantity" jsonschema:"title=Quantity,description=Units bought on each entry,exclusiveMinimum=0,default=1" validate:"gt=0"`
}

// SMACrossover goes long when the close crosses above its simple moving
// average and exits the whole position when it crosses back below.
type SMACrossover struct {
	params    SMACrossoverParams
	sma       indicator.Indicator
	direction types.PositionDirection
}

var (
	_ runtime.Strategy    = (*SMACrossover)(nil)
	_ runtime.Optimizable = (*SMACrossover)(nil)
	_ Describer           = (*SMACrossover)(nil)
)

func NewSMACrossover() runtime.Strategy {
	return &SMACrossover{
		params:    defaultSMACrossoverParams(),
		direction: types.PositionDirectionFlat,
	}
}

func defaultSMACrossoverParams() SMACrossoverParams {
	return SMACrossoverParams{Period: 20, Quantity: 1}
}

func (s *SMACrossover) Name() string {
	return SMACrossoverName
}

func (s *SMACrossover) Initialize(params map[string]any) error {
	decoded, err := sdk.DecodeParams(params, defaultSMACrossoverParams())
	if err != nil {
		return err
	}

	sma, err := indicator.New(indicator.IndicatorTypeSMA, decoded.Period)
	if err != nil {
		return err
	}

	s.params = decoded
	s.sma = sma
	s.direction = types.PositionDirectionFlat

	return nil
}

func (s *SMACrossover) OnBar(ctx runtime.StrategyContext) error {
	if s.sma == nil {
		sma, err := indicator.New(indicator.IndicatorTypeSMA, s.params.Period)
		if err != nil {
			return err
		}

		s.sma = sma
	}

	bars := ctx.Bars()
	if len(bars) < s.params.Period+1 {
		return nil
	}

	current, err := s.sma.RawValue(bars)
	if err != nil {
		return err
	}

	previous, err := s.sma.RawValue(bars[:len(bars)-1])
	if err != nil {
		return err
	}

	closeNow := bars[len(bars)-1].Close
	closeBefore := bars[len(bars)-2].Close

	crossedUp := closeBefore <= previous && closeNow > current
	crossedDown := closeBefore >= previous && closeNow < current

	position := ctx.Position()

	switch {
	case crossedUp && !position.IsOpen:
		if _, err := ctx.Buy(s.params.Quantity, types.ReasonEntry); err != nil {
			return err
		}

		s.direction = types.PositionDirectionLong
	case crossedDown && position.IsOpen:
		if _, err := ctx.Close(types.ReasonSignal, runtime.WithExitType(types.ExitTypeSignal)); err != nil {
			return err
		}

		s.direction = types.PositionDirectionFlat
	}

	return nil
}

func (s *SMACrossover) DirectionHint() types.PositionDirection {
	return s.direction
}

func (s *SMACrossover) ParameterRanges() map[string]runtime.ParameterRange {
	return map[string]runtime.ParameterRange{
		"period": {Min: 5, Max: 50, Step: 5},
	}
}

func (s *SMACrossover) ParametersSchema() (string, error) {
	return sdk.ToJSONSchema(SMACrossoverParams{})
}
