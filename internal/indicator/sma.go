package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// SMA is the simple moving average of closes.
type SMA struct {
	period int
}

// NewSMA creates a new SMA with the given period.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Name returns the name of the indicator.
func (s *SMA) Name() IndicatorType {
	return IndicatorTypeSMA
}

// Config expects one parameter: period (int).
func (s *SMA) Config(params ...any) error {
	period, err := parsePeriod(params)
	if err != nil {
		return err
	}

	s.period = period

	return nil
}

// RawValue returns the average of the last period closes.
func (s *SMA) RawValue(bars []types.Bar) (float64, error) {
	if s.period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be a positive integer, got %d", s.period)
	}

	if len(bars) < s.period {
		return 0, errors.NewInsufficientDataError(string(s.Name()), s.period, len(bars))
	}

	// only the tail matters; talib leaves the first period-1 outputs at zero
	window := Closes(bars[len(bars)-s.period:])
	series := talib.Sma(window, s.period)

	return series[len(series)-1], nil
}
