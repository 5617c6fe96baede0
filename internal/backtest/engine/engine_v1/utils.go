package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// filterBars returns the sub-slice of bars inside [startTime, endTime].
// Bars are already ordered so both bounds are found by scanning once.
func filterBars(bars []types.Bar, startTime optional.Option[time.Time], endTime optional.Option[time.Time]) []types.Bar {
	from, to := 0, len(bars)

	if startTime.IsSome() {
		start := startTime.Unwrap()
		for from < to && bars[from].Time.Before(start) {
			from++
		}
	}

	if endTime.IsSome() {
		end := endTime.Unwrap()
		for to > from && bars[to-1].Time.After(end) {
			to--
		}
	}

	return bars[from:to:to]
}

// visibleSlice returns bars[0..index] or its last maxBarsBack bars. The
// capacity is capped so appending never writes into later bars.
func visibleSlice(bars []types.Bar, index int, maxBarsBack int) []types.Bar {
	from := 0
	if maxBarsBack > 0 && index+1 > maxBarsBack {
		from = index + 1 - maxBarsBack
	}

	return bars[from : index+1 : index+1]
}
