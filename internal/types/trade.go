package types

import (
	"time"
)

// Fill is the priced execution of an intent. Fills stay inside the engine
// and the result; strategies never see them.
type Fill struct {
	IntentID        string       `yaml:"intent_id" json:"intent_id"`
	Side            Side         `yaml:"side" json:"side"`
	Quantity        float64      `yaml:"quantity" json:"quantity"`
	RawPrice        float64      `yaml:"raw_price" json:"raw_price"`
	Price           float64      `yaml:"price" json:"price"`
	Commission      float64      `yaml:"commission" json:"commission"`
	Reason          string       `yaml:"reason" json:"reason"`
	Source          IntentSource `yaml:"source" json:"source"`
	Time            time.Time    `yaml:"time" json:"time"`
	BarIndex        int          `yaml:"bar_index" json:"bar_index"`
	EmittedAt       time.Time    `yaml:"emitted_at" json:"emitted_at"`
	EmittedBarIndex int          `yaml:"emitted_bar_index" json:"emitted_bar_index"`
	// Clamped is true when a reducing request exceeded the open quantity.
	Clamped bool `yaml:"clamped" json:"clamped"`
}

// TradeLeg is a closed slice of a position. Legs are appended to the ledger
// when a reducing fill is applied and never change afterwards.
type TradeLeg struct {
	PositionID    string            `yaml:"position_id" json:"position_id" csv:"position_id"`
	EntryTime     time.Time         `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	EntryPrice    float64           `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitTime      time.Time         `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	ExitPrice     float64           `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Quantity      float64           `yaml:"quantity" json:"quantity" csv:"quantity"`
	Direction     PositionDirection `yaml:"direction" json:"direction" csv:"direction"`
	Reason        string            `yaml:"reason" json:"reason" csv:"reason"`
	ExitType      ExitType          `yaml:"exit_type" json:"exit_type" csv:"exit_type"`
	Commission    float64           `yaml:"commission" json:"commission" csv:"commission"`
	PnL           float64           `yaml:"pnl" json:"pnl" csv:"pnl"`
	EntryBarIndex int               `yaml:"entry_bar_index" json:"entry_bar_index" csv:"entry_bar_index"`
	ExitBarIndex  int               `yaml:"exit_bar_index" json:"exit_bar_index" csv:"exit_bar_index"`
	// InitialStop is the stop level the position opened with, used for reward to risk.
	InitialStop float64 `yaml:"initial_stop" json:"initial_stop" csv:"initial_stop"`
}

// IsWin reports a strictly positive leg.
func (t TradeLeg) IsWin() bool {
	return t.PnL > 0
}

// IsLoss reports a strictly negative leg.
func (t TradeLeg) IsLoss() bool {
	return t.PnL < 0
}

// HoldingTime is the time between entry and exit.
func (t TradeLeg) HoldingTime() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// EquityPoint is the per-bar account snapshot. Equity is realized only.
type EquityPoint struct {
	Time         time.Time         `yaml:"time" json:"time" csv:"time"`
	Equity       float64           `yaml:"equity" json:"equity" csv:"equity"`
	Direction    PositionDirection `yaml:"direction" json:"direction" csv:"direction"`
	PositionSize float64           `yaml:"position_size" json:"position_size" csv:"position_size"`
}

// PositionView is the read-only position surface handed to strategies.
type PositionView struct {
	Size         float64
	AverageEntry float64
	IsOpen       bool
}
