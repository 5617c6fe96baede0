package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type IndicatorType string

const (
	IndicatorTypeSMA   IndicatorType = "sma"
	IndicatorTypeATR   IndicatorType = "atr"
	IndicatorTypeSwing IndicatorType = "swing"
)

// Indicator computes a value for the last bar of a window. Implementations
// only ever read the window they are given, so calling them with a
// strategy's visible bars can never look ahead.
type Indicator interface {
	// Name returns the name of the indicator
	Name() IndicatorType
	// Config applies positional parameters
	Config(params ...any) error
	// RawValue returns the value at the last bar of bars
	RawValue(bars []types.Bar) (float64, error)
}

// New builds an indicator of type t and applies params through Config.
func New(t IndicatorType, params ...any) (Indicator, error) {
	var ind Indicator

	switch t {
	case IndicatorTypeSMA:
		ind = NewSMA(0)
	case IndicatorTypeATR:
		ind = NewATR(0)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s cannot be configured by name", t)
	}

	if err := ind.Config(params...); err != nil {
		return nil, err
	}

	return ind, nil
}

// Closes extracts the close prices of bars.
func Closes(bars []types.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes
}

// Value runs ind over bars and turns insufficient history into None.
// Other errors are returned unchanged.
func Value(ind Indicator, bars []types.Bar) (optional.Option[float64], error) {
	value, err := ind.RawValue(bars)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return optional.None[float64](), nil
		}

		return nil, err
	}

	return optional.Some(value), nil
}
