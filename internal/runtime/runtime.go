package runtime

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Strategy is the capability set the engine drives once per bar. A strategy
// decides only from what StrategyContext exposes and changes exposure only by
// emitting intents through it.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string
	// Initialize applies parameters before the first bar. It is called once per run.
	Initialize(params map[string]any) error
	// OnBar is called exactly once per bar with a monotonically growing view.
	OnBar(ctx StrategyContext) error
	// DirectionHint returns the direction the strategy believes it holds.
	DirectionHint() types.PositionDirection
}

// ParameterRange is an inclusive numeric sweep used by the optimizer.
type ParameterRange struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

// Optimizable is implemented by strategies that publish default sweep ranges.
type Optimizable interface {
	ParameterRanges() map[string]ParameterRange
}

// StrategyContext is the narrow view a strategy receives for the current bar.
type StrategyContext interface {
	// Bars returns the visible bars, oldest first, ending at the current bar.
	Bars() []types.Bar
	// Signals returns the aligned auxiliary values for timeframe over Bars().
	Signals(timeframe string) []optional.Option[float64]
	// CurrentBar returns the bar that just closed.
	CurrentBar() types.Bar
	// BarIndex is the absolute index of the current bar in the run.
	BarIndex() int
	// Position returns the read-only position magnitude view.
	Position() types.PositionView
	// PositionSize is shorthand for Position().Size.
	PositionSize() float64
	// Buy queues an intent that increases long or reduces short exposure.
	Buy(quantity float64, reason string, opts ...IntentOption) (types.OrderIntent, error)
	// SellShort queues an intent that increases short or reduces long exposure.
	SellShort(quantity float64, reason string, opts ...IntentOption) (types.OrderIntent, error)
	// Close queues a reduce-only intent for the whole open quantity.
	Close(reason string, opts ...IntentOption) (types.OrderIntent, error)
}

// IntentOption adjusts an intent before it is validated and queued.
type IntentOption func(intent *types.OrderIntent)

// WithExitType annotates the intent with an exit type.
func WithExitType(exitType types.ExitType) IntentOption {
	return func(intent *types.OrderIntent) {
		intent.ExitType = exitType
	}
}

// WithExitPlan attaches absolute stop and take-profit levels to an opening intent.
func WithExitPlan(plan types.ExitPlan) IntentOption {
	return func(intent *types.OrderIntent) {
		intent.ExitPlan = optional.Some(plan)
	}
}

// WithReduceOnly marks the intent as an exit. It is discarded if nothing is open to reduce.
func WithReduceOnly() IntentOption {
	return func(intent *types.OrderIntent) {
		intent.ReduceOnly = true
	}
}

// ApplyIntentOptions runs opts over intent in order.
func ApplyIntentOptions(intent *types.OrderIntent, opts ...IntentOption) {
	for _, opt := range opts {
		opt(intent)
	}
}
