package types

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// BucketStats aggregates legs that share a grouping key such as exit reason,
// trading session or entry hour.
type BucketStats struct {
	Trades  int     `yaml:"trades" json:"trades"`
	Wins    int     `yaml:"wins" json:"wins"`
	Losses  int     `yaml:"losses" json:"losses"`
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	PnL     float64 `yaml:"pnl" json:"pnl"`
}

// Add folds one leg into the bucket.
func (b BucketStats) Add(leg TradeLeg) BucketStats {
	b.Trades++
	b.PnL += leg.PnL

	if leg.IsWin() {
		b.Wins++
	} else if leg.IsLoss() {
		b.Losses++
	}

	b.WinRate = float64(b.Wins) / float64(b.Trades)

	return b
}

// Metrics is the summary of one run. Degenerate ratios are None rather than
// infinities or errors.
type Metrics struct {
	// TotalReturn is a fraction of initial capital.
	TotalReturn float64
	// MaxDrawdown is the largest peak to trough decline as a fraction of the peak.
	MaxDrawdown       float64
	MaxDrawdownPoints float64
	WinRate           float64
	// ProfitFactor is None when there are no losing legs.
	ProfitFactor optional.Option[float64]
	// SharpeRatio is None when fewer than two returns exist or their variance is zero.
	SharpeRatio       optional.Option[float64]
	ConsecutiveWins   int
	ConsecutiveLosses int
	TotalTrades       int
	WinningTrades     int
	LosingTrades      int
	BreakevenTrades   int
	AvgWin            float64
	AvgLoss           float64
	LargestWin        float64
	LargestLoss       float64
	// AvgRR is the mean reward to initial risk of legs that had a stop.
	AvgRR            optional.Option[float64]
	TotalCommissions float64
	UniqueEntries    int
	RealizedPoints   float64
	NetProfit        float64
	FinalEquity      float64
	ExitReasonStats  map[string]BucketStats
	SessionStats     map[string]BucketStats
	HourlyStats      map[int]BucketStats
}

func optionalValue(o optional.Option[float64]) any {
	if o.IsNone() {
		return nil
	}

	return o.Unwrap()
}

// ToMap flattens the metrics for reporting layers. None values become nil.
func (m Metrics) ToMap() map[string]any {
	return map[string]any{
		"total_return":        m.TotalReturn,
		"max_drawdown":        m.MaxDrawdown,
		"max_drawdown_points": m.MaxDrawdownPoints,
		"win_rate":            m.WinRate,
		"profit_factor":       optionalValue(m.ProfitFactor),
		"sharpe_ratio":        optionalValue(m.SharpeRatio),
		"consecutive_wins":    m.ConsecutiveWins,
		"consecutive_losses":  m.ConsecutiveLosses,
		"total_trades":        m.TotalTrades,
		"winning_trades":      m.WinningTrades,
		"losing_trades":       m.LosingTrades,
		"breakeven_trades":    m.BreakevenTrades,
		"avg_win":             m.AvgWin,
		"avg_loss":            m.AvgLoss,
		"largest_win":         m.LargestWin,
		"largest_loss":        m.LargestLoss,
		"avg_rr":              optionalValue(m.AvgRR),
		"total_commissions":   m.TotalCommissions,
		"unique_entries":      m.UniqueEntries,
		"realized_points":     m.RealizedPoints,
		"net_profit":          m.NetProfit,
		"final_equity":        m.FinalEquity,
		"exit_reason_stats":   m.ExitReasonStats,
		"session_stats":       m.SessionStats,
		"hourly_stats":        m.HourlyStats,
	}
}

// Value looks up a scalar metric by its map key. ok is false for unknown
// keys, non-scalar metrics and None values.
func (m Metrics) Value(name string) (float64, bool) {
	raw, ok := m.ToMap()[name]
	if !ok || raw == nil {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// MarshalYAML writes the flattened form so sentinels appear as null.
func (m Metrics) MarshalYAML() (any, error) {
	return m.ToMap(), nil
}

// MarshalJSON writes the flattened form so sentinels appear as null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

// RunStats is the stats.yaml document written for one run.
type RunStats struct {
	ID             string         `yaml:"id" json:"id"`
	EngineVersion  string         `yaml:"engine_version" json:"engine_version"`
	Timestamp      time.Time      `yaml:"timestamp" json:"timestamp"`
	Strategy       string         `yaml:"strategy" json:"strategy"`
	Parameters     map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	StartTime      time.Time      `yaml:"start_time" json:"start_time"`
	EndTime        time.Time      `yaml:"end_time" json:"end_time"`
	Bars           int            `yaml:"bars" json:"bars"`
	InitialCapital float64        `yaml:"initial_capital" json:"initial_capital"`
	FinalEquity    float64        `yaml:"final_equity" json:"final_equity"`
	Discarded      int            `yaml:"discarded_intents" json:"discarded_intents"`
	Rejected       int            `yaml:"rejected_intents" json:"rejected_intents"`
	Metrics        Metrics        `yaml:"metrics" json:"metrics"`
	TradesFilePath string         `yaml:"trades_file_path,omitempty" json:"trades_file_path,omitempty"`
	EquityFilePath string         `yaml:"equity_file_path,omitempty" json:"equity_file_path,omitempty"`
	DataPath       string         `yaml:"data_path,omitempty" json:"data_path,omitempty"`
}

func WriteRunStats(path string, stats []RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}
