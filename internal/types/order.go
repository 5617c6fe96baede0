package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type Side string

type PositionDirection string

type IntentSource string

type ExitType string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	PositionDirectionFlat  PositionDirection = "FLAT"
	PositionDirectionLong  PositionDirection = "LONG"
	PositionDirectionShort PositionDirection = "SHORT"
)

const (
	IntentSourceStrategy IntentSource = "strategy"
	IntentSourceEngine   IntentSource = "engine"
)

const (
	ExitTypeStopLoss   ExitType = "STOP_LOSS"
	ExitTypeTakeProfit ExitType = "TAKE_PROFIT"
	ExitTypeBreakeven  ExitType = "BREAKEVEN"
	ExitTypeSession    ExitType = "SESSION"
	ExitTypeSignal     ExitType = "SIGNAL"
)

// Reason tags. ReasonEntry is reserved for opening or adding exposure.
const (
	ReasonEntry         = "ENTRY"
	ReasonSignal        = "SIGNAL"
	ReasonExit          = "EXIT"
	ReasonStopLoss      = "SL"
	ReasonTakeProfit1   = "TP1"
	ReasonTakeProfit2   = "TP2"
	ReasonTakeProfit3   = "TP3"
	ReasonForceCloseEOD = "FORCE_CLOSE_EOD"
	ReasonEarlyClose    = "EARLY_CLOSE"
)

// Discard reasons recorded for intents that were queued but never filled.
const (
	DiscardReasonNoNextBar      = "no_next_bar"
	DiscardReasonSessionHalt    = "session_halt"
	DiscardReasonNothingToClose = "nothing_to_close"
	DiscardReasonEntryOnReduce  = "entry_reason_on_reduce"
)

var validate = validator.New()

// MaxTakeProfitLevels is the deepest take-profit ladder a position may carry.
const MaxTakeProfitLevels = 3

var exitReasons = map[string]struct{}{
	ReasonExit:          {},
	ReasonStopLoss:      {},
	ReasonTakeProfit1:   {},
	ReasonTakeProfit2:   {},
	ReasonTakeProfit3:   {},
	ReasonForceCloseEOD: {},
	ReasonEarlyClose:    {},
}

// IsExitReason reports whether reason may only ever label a reducing fill.
func IsExitReason(reason string) bool {
	_, ok := exitReasons[reason]

	return ok
}

// TakeProfitReason returns TP1, TP2 or TP3 for a zero-based ladder level.
func TakeProfitReason(level int) string {
	switch level {
	case 0:
		return ReasonTakeProfit1
	case 1:
		return ReasonTakeProfit2
	default:
		return ReasonTakeProfit3
	}
}

// Sign returns +1 for long, -1 for short and 0 for flat.
func (d PositionDirection) Sign() float64 {
	switch d {
	case PositionDirectionLong:
		return 1
	case PositionDirectionShort:
		return -1
	default:
		return 0
	}
}

// OpensWith returns the direction a fill on side would open from flat.
func OpensWith(side Side) PositionDirection {
	if side == SideBuy {
		return PositionDirectionLong
	}

	return PositionDirectionShort
}

// Reduces reports whether a fill on side would reduce a position in direction d.
func (d PositionDirection) Reduces(side Side) bool {
	return (d == PositionDirectionLong && side == SideSell) || (d == PositionDirectionShort && side == SideBuy)
}

// TakeProfitLevel is one rung of the ladder: an absolute price and the
// quantity it closes.
type TakeProfitLevel struct {
	Price    float64 `yaml:"price" json:"price" validate:"gt=0"`
	Quantity float64 `yaml:"quantity" json:"quantity" validate:"gt=0"`
}

// ExitPlan carries absolute exit levels for the position an intent opens.
// When absent the engine derives levels from its configured distances.
type ExitPlan struct {
	StopLoss    optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfits []TakeProfitLevel        `yaml:"take_profits" json:"take_profits" validate:"max=3,dive"`
}

func (p ExitPlan) validateFinite() error {
	if p.StopLoss.IsSome() && !isFinite(p.StopLoss.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidTakeProfitLadder, "stop loss must be finite, got %v", p.StopLoss.Unwrap())
	}

	for i, level := range p.TakeProfits {
		if !isFinite(level.Price) || !isFinite(level.Quantity) {
			return errors.Newf(errors.ErrCodeInvalidTakeProfitLadder,
				"take profit %d must have a finite price and quantity, got %v x %v", i+1, level.Price, level.Quantity)
		}
	}

	return nil
}

// ValidateOrder checks that the ladder moves strictly away from entry, level
// by level, for a position in direction.
func (p ExitPlan) ValidateOrder(direction PositionDirection) error {
	sign := direction.Sign()

	for i := 1; i < len(p.TakeProfits); i++ {
		if sign*(p.TakeProfits[i].Price-p.TakeProfits[i-1].Price) <= 0 {
			return errors.Newf(errors.ErrCodeInvalidTakeProfitLadder,
				"take profit %d at %v does not move past take profit %d at %v for a %s position",
				i+1, p.TakeProfits[i].Price, i, p.TakeProfits[i-1].Price, direction)
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// OrderIntent is a request to change exposure, queued at emission and filled
// at the next bar's open.
type OrderIntent struct {
	ID         string                    `yaml:"id" json:"id" validate:"required"`
	Side       Side                      `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Quantity   float64                   `yaml:"quantity" json:"quantity" validate:"gt=0"`
	Reason     string                    `yaml:"reason" json:"reason" validate:"required"`
	ExitType   ExitType                  `yaml:"exit_type,omitempty" json:"exit_type,omitempty"`
	ReduceOnly bool                      `yaml:"reduce_only" json:"reduce_only"`
	ExitPlan   optional.Option[ExitPlan] `yaml:"-" json:"exit_plan"`
	Source     IntentSource              `yaml:"source" json:"source" validate:"required,oneof=strategy engine"`
	EmittedAt  time.Time                 `yaml:"emitted_at" json:"emitted_at"`
	BarIndex   int                       `yaml:"bar_index" json:"bar_index" validate:"gte=0"`
}

// IsExit reports whether the intent may only reduce an open position.
func (o OrderIntent) IsExit() bool {
	return o.ReduceOnly || IsExitReason(o.Reason)
}

// Validate checks the intent's static fields.
func (o OrderIntent) Validate() error {
	if o.Quantity <= 0 || !isFinite(o.Quantity) {
		return errors.Newf(errors.ErrCodeInvalidQuantity, "intent quantity must be positive and finite, got %v", o.Quantity)
	}

	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidIntent, "invalid order intent", err)
	}

	if o.ExitPlan.IsSome() {
		plan := o.ExitPlan.Unwrap()
		if err := validate.Struct(plan); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTakeProfitLadder, "invalid exit plan", err)
		}

		if err := plan.validateFinite(); err != nil {
			return err
		}
	}

	return nil
}

// RejectedIntent is an intent refused at emission.
type RejectedIntent struct {
	Intent   OrderIntent `yaml:"intent" json:"intent"`
	BarIndex int         `yaml:"bar_index" json:"bar_index"`
	Time     time.Time   `yaml:"time" json:"time"`
	Error    string      `yaml:"error" json:"error"`
}

// DiscardedIntent is an accepted intent that never produced a fill.
type DiscardedIntent struct {
	Intent   OrderIntent `yaml:"intent" json:"intent"`
	BarIndex int         `yaml:"bar_index" json:"bar_index"`
	Time     time.Time   `yaml:"time" json:"time"`
	Reason   string      `yaml:"reason" json:"reason"`
}
