package types

import (
	"math"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Bar is one OHLC record. Signals holds auxiliary values keyed by timeframe
// label ("1m", "5m", ...). A missing key or a None value both mean the signal
// was null for this bar.
type Bar struct {
	Time    time.Time                           `yaml:"time" json:"time" csv:"time"`
	Open    float64                             `yaml:"open" json:"open" csv:"open"`
	High    float64                             `yaml:"high" json:"high" csv:"high"`
	Low     float64                             `yaml:"low" json:"low" csv:"low"`
	Close   float64                             `yaml:"close" json:"close" csv:"close"`
	Volume  float64                             `yaml:"volume" json:"volume" csv:"volume"`
	Signals map[string]optional.Option[float64] `yaml:"-" json:"signals,omitempty" csv:"-"`
}

// Signal returns the auxiliary value for timeframe, or None when absent.
func (b Bar) Signal(timeframe string) optional.Option[float64] {
	if b.Signals == nil {
		return optional.None[float64]()
	}

	value, ok := b.Signals[timeframe]
	if !ok {
		return optional.None[float64]()
	}

	return value
}

// SignalTimeframes returns the sorted timeframe labels carried by the bar.
func (b Bar) SignalTimeframes() []string {
	timeframes := make([]string, 0, len(b.Signals))
	for tf := range b.Signals {
		timeframes = append(timeframes, tf)
	}

	sort.Strings(timeframes)

	return timeframes
}

// Validate checks the fields a bar must always carry.
func (b Bar) Validate() error {
	if b.Time.IsZero() {
		return errors.New(errors.ErrCodeInvalidBar, "bar is missing its timestamp")
	}

	for name, value := range map[string]float64{"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has non-finite %s", b.Time.Format(time.RFC3339), name)
		}
	}

	if b.High < b.Low {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has high %.4f below low %.4f", b.Time.Format(time.RFC3339), b.High, b.Low)
	}

	return nil
}

// ValidateBars checks every bar and the strict ordering of timestamps. Any
// failure is a configuration error: the run must not start.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return errors.New(errors.ErrCodeNoDataFound, "bar sequence is empty")
	}

	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return errors.Wrapf(errors.GetCode(err), err, "invalid bar at index %d", i)
		}

		if i > 0 && !bar.Time.After(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeNonIncreasingTimestamp,
				"bar timestamps must be strictly increasing: index %d (%s) is not after index %d (%s)",
				i, bar.Time.Format(time.RFC3339), i-1, bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}
