package types

import (
	"time"
)

// BacktestResult is the immutable outcome of one simulation run.
type BacktestResult struct {
	ID             string            `yaml:"id" json:"id"`
	Strategy       string            `yaml:"strategy" json:"strategy"`
	StartTime      time.Time         `yaml:"start_time" json:"start_time"`
	EndTime        time.Time         `yaml:"end_time" json:"end_time"`
	InitialCapital float64           `yaml:"initial_capital" json:"initial_capital"`
	FinalEquity    float64           `yaml:"final_equity" json:"final_equity"`
	EquityCurve    []EquityPoint     `yaml:"equity_curve" json:"equity_curve"`
	Trades         []TradeLeg        `yaml:"trades" json:"trades"`
	Fills          []Fill            `yaml:"fills" json:"fills"`
	Discarded      []DiscardedIntent `yaml:"discarded_intents" json:"discarded_intents"`
	Rejected       []RejectedIntent  `yaml:"rejected_intents" json:"rejected_intents"`
	Metrics        Metrics           `yaml:"metrics" json:"metrics"`
}

// Stats builds the stats document for the result.
func (r BacktestResult) Stats(parameters map[string]any) RunStats {
	return RunStats{
		ID:             r.ID,
		Timestamp:      time.Now(),
		Strategy:       r.Strategy,
		Parameters:     parameters,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Bars:           len(r.EquityCurve),
		InitialCapital: r.InitialCapital,
		FinalEquity:    r.FinalEquity,
		Discarded:      len(r.Discarded),
		Rejected:       len(r.Rejected),
		Metrics:        r.Metrics,
	}
}
