package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// BarGenerator generates synthetic bars for tests and benchmarks.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator creates a new BarGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// StartTime is the timestamp of the first bar
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per bar)
	Volatility float64
	// Trend is the drift factor spread across the whole series
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// TickSize rounds every price to a multiple of it when positive
	TickSize float64
	// SignalTimeframes adds a bounded random signal per label to each bar
	SignalTimeframes []string
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:    time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
		Interval:     time.Minute,
		Count:        10000,
		InitialPrice: 4800.0,
		Volatility:   0.0005,
		Trend:        0.0,
		VolumeBase:   1000,
		TickSize:     0.25,
	}
}

// Generate creates bars following a geometric Brownian motion.
func (g *BarGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)

		drift := 0.0
		if config.Count > 0 {
			drift = config.Trend / float64(config.Count)
		}

		closePrice := open * (1 + config.Volatility*z + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, closePrice) + highExtension
		low := math.Min(open, closePrice) - lowExtension

		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		bar := types.Bar{
			Time:   currentTime,
			Open:   roundToTick(open, config.TickSize),
			High:   roundToTick(high, config.TickSize),
			Low:    roundToTick(low, config.TickSize),
			Close:  roundToTick(closePrice, config.TickSize),
			Volume: math.Round(config.VolumeBase * (0.5 + g.rng.Float64())),
		}

		// rounding may push the extremes inside open/close
		bar.High = math.Max(bar.High, math.Max(bar.Open, bar.Close))
		bar.Low = math.Min(bar.Low, math.Min(bar.Open, bar.Close))

		if len(config.SignalTimeframes) > 0 {
			bar.Signals = make(map[string]optional.Option[float64], len(config.SignalTimeframes))
			for _, tf := range config.SignalTimeframes {
				bar.Signals[tf] = optional.Some(math.Round((g.rng.Float64()*2-1)*100) / 100)
			}
		}

		bars[i] = bar
		currentPrice = closePrice
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// Generate10K is a convenience function to generate 10,000 one minute bars
// with default settings for benchmarking.
func Generate10K() []types.Bar {
	gen := NewBarGenerator(42)
	config := DefaultConfig()
	config.Count = 10000

	return gen.Generate(config)
}

// BarsFromCloses builds bars whose open, high, low and close all equal the
// given closes, one interval apart.
func BarsFromCloses(start time.Time, interval time.Duration, closes ...float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Time:  start.Add(time.Duration(i) * interval),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}

	return bars
}

func roundToTick(val float64, tick float64) float64 {
	if tick <= 0 {
		return math.Round(val*10000) / 10000
	}

	return math.Round(val/tick) * tick
}
