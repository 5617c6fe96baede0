package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// SignalColumnPrefix marks auxiliary signal columns. A column named
// score_5m becomes the "5m" signal of each bar.
const SignalColumnPrefix = "score_"

// DataSource supplies bars in strictly increasing time order. Sources are
// read only once loaded and may be shared by concurrent runs.
type DataSource interface {
	// Initialize points the data source at a file.
	Initialize(path string) error
	// ReadAll yields bars inside the optional bounds, oldest first.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Count returns the number of bars inside the optional bounds.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// SignalTimeframes lists the auxiliary signal labels the source carries.
	SignalTimeframes() []string
	// Close releases any resources held by the source.
	Close() error
}

// LoadBars drains ReadAll into a slice.
func LoadBars(source DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	count, err := source.Count(start, end)
	if err != nil {
		return nil, err
	}

	bars := make([]types.Bar, 0, count)

	for bar, err := range source.ReadAll(start, end) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}
