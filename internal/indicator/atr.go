package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// ATR is the plain mean of the last period true ranges. It needs period+1
// bars because every true range looks at the previous close.
type ATR struct {
	period int
}

// NewATR creates a new ATR with the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Name returns the name of the indicator.
func (a *ATR) Name() IndicatorType {
	return IndicatorTypeATR
}

// Config expects one parameter: period (int).
func (a *ATR) Config(params ...any) error {
	period, err := parsePeriod(params)
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// RawValue returns the ATR at the last bar.
func (a *ATR) RawValue(bars []types.Bar) (float64, error) {
	if a.period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be a positive integer, got %d", a.period)
	}

	if len(bars) <= a.period {
		return 0, errors.NewInsufficientDataError(string(a.Name()), a.period+1, len(bars))
	}

	window := bars[len(bars)-a.period-1:]
	highs := make([]float64, len(window))
	lows := make([]float64, len(window))
	closes := make([]float64, len(window))

	for i, bar := range window {
		highs[i] = bar.High
		lows[i] = bar.Low
		closes[i] = bar.Close
	}

	// TRange leaves index 0 empty
	ranges := talib.TRange(highs, lows, closes)

	var sum float64
	for _, tr := range ranges[1:] {
		sum += tr
	}

	return sum / float64(a.period), nil
}
