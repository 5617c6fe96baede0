package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// InMemoryDataSource serves an already ordered bar slice.
type InMemoryDataSource struct {
	bars       []types.Bar
	timeframes []string
}

// NewInMemoryDataSource validates bars and wraps them. The slice is not
// copied; callers must not modify it afterwards.
func NewInMemoryDataSource(bars []types.Bar) (*InMemoryDataSource, error) {
	if err := types.ValidateBars(bars); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	timeframes := make([]string, 0)

	for _, bar := range bars {
		for _, tf := range bar.SignalTimeframes() {
			if _, ok := seen[tf]; !ok {
				seen[tf] = struct{}{}
				timeframes = append(timeframes, tf)
			}
		}
	}

	return &InMemoryDataSource{bars: bars, timeframes: timeframes}, nil
}

// Initialize implements DataSource. The in-memory source has no backing file.
func (m *InMemoryDataSource) Initialize(path string) error {
	if path != "" {
		return errors.Newf(errors.ErrCodeDataSourceUnavailable, "in-memory data source cannot load %s", path)
	}

	return nil
}

func (m *InMemoryDataSource) inRange(bar types.Bar, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && bar.Time.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && bar.Time.After(end.Unwrap()) {
		return false
	}

	return true
}

// ReadAll implements DataSource.
func (m *InMemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range m.bars {
			if !m.inRange(bar, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (m *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range m.bars {
		if m.inRange(bar, start, end) {
			count++
		}
	}

	return count, nil
}

// SignalTimeframes implements DataSource.
func (m *InMemoryDataSource) SignalTimeframes() []string {
	return m.timeframes
}

// Close implements DataSource.
func (m *InMemoryDataSource) Close() error {
	return nil
}
