package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// SwingPoints finds the most recent swing low and swing high. A bar is a
// swing high when its high is the highest of the lookback bars on either
// side, and likewise for lows. Bars within lookback of the end are never
// candidates since their right side is not known yet.
func SwingPoints(bars []types.Bar, lookback int) (optional.Option[float64], optional.Option[float64]) {
	swingLow := optional.None[float64]()
	swingHigh := optional.None[float64]()

	if lookback <= 0 || len(bars) < lookback*2+1 {
		return swingLow, swingHigh
	}

	for i := len(bars) - lookback - 1; i >= lookback; i-- {
		if swingHigh.IsNone() && isExtreme(bars, i, lookback, func(candidate, other types.Bar) bool { return candidate.High >= other.High }) {
			swingHigh = optional.Some(bars[i].High)
		}

		if swingLow.IsNone() && isExtreme(bars, i, lookback, func(candidate, other types.Bar) bool { return candidate.Low <= other.Low }) {
			swingLow = optional.Some(bars[i].Low)
		}

		if swingLow.IsSome() && swingHigh.IsSome() {
			break
		}
	}

	return swingLow, swingHigh
}

func isExtreme(bars []types.Bar, i int, lookback int, beats func(candidate, other types.Bar) bool) bool {
	for j := i - lookback; j <= i+lookback; j++ {
		if !beats(bars[i], bars[j]) {
			return false
		}
	}

	return true
}
