package engine

import (
	"context"

	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Lifecycle callback types for a simulation run.
// Callbacks with an error return abort the run when they fail.

// OnRunStartCallback is called once the bars are validated, before the first bar.
type OnRunStartCallback func(runID string, strategyName string, totalBars int) error

// OnRunEndCallback is called after a run completes successfully.
type OnRunEndCallback func(runID string, result types.BacktestResult)

// OnProcessDataCallback is called after each bar is processed.
type OnProcessDataCallback func(current int, total int) error

// OnIntentRejectedCallback is called when an intent is refused at emission.
type OnIntentRejectedCallback func(rejected types.RejectedIntent)

// LifecycleCallbacks holds all lifecycle callback functions for the engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart       *OnRunStartCallback
	OnRunEnd         *OnRunEndCallback
	OnProcessData    *OnProcessDataCallback
	OnIntentRejected *OnIntentRejectedCallback
}

// Engine runs one strategy over one bar sequence. Configuration is fixed by
// Initialize; every Run owns its own position, ledger and equity state so a
// single initialized engine may serve concurrent runs.
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// Run simulates strategy over bars. The bars are read only and may be shared.
	// Cancelling ctx abandons the run without a partial result.
	Run(ctx context.Context, bars []types.Bar, strategy runtime.Strategy, callbacks LifecycleCallbacks) (types.BacktestResult, error)
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
