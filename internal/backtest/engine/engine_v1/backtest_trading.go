package engine

import (
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// BacktestTrading is the order execution model of one run. Intents are
// queued while bar i is current and filled at bar i+1's open.
type BacktestTrading struct {
	logger     *logger.Logger
	state      *BacktestState
	commission commission_fee.CommissionFee
	calendar   *SessionCalendar
	exits      ExitConfig
	// slippage is the adverse price offset applied to every fill.
	slippage float64

	pending    []types.OrderIntent
	fills      []types.Fill
	discarded  []types.DiscardedIntent
	rejected   []types.RejectedIntent
	onRejected func(types.RejectedIntent)

	currentBar   types.Bar
	currentIndex int
}

func NewBacktestTrading(
	logger *logger.Logger,
	state *BacktestState,
	commission commission_fee.CommissionFee,
	calendar *SessionCalendar,
	config BacktestEngineV1Config,
) *BacktestTrading {
	return &BacktestTrading{
		logger:     logger,
		state:      state,
		commission: commission,
		calendar:   calendar,
		exits:      config.Exits,
		slippage:   config.Slippage.Points + config.Slippage.Ticks*config.TickSize,
	}
}

// SetCurrentBar records the bar intents are emitted against.
func (b *BacktestTrading) SetCurrentBar(index int, bar types.Bar) {
	b.currentIndex = index
	b.currentBar = bar
}

// Emit validates and queues a strategy intent. Invalid intents are recorded
// as rejected and returned as an error; they never reach the queue.
func (b *BacktestTrading) Emit(intent types.OrderIntent) (types.OrderIntent, error) {
	intent.Source = types.IntentSourceStrategy
	intent.EmittedAt = b.currentBar.Time
	intent.BarIndex = b.currentIndex

	if intent.ID == "" {
		intent.ID = uuid.New().String()
	}

	direction, _ := b.projected()
	reducing := intent.ReduceOnly || direction.Reduces(intent.Side)
	if intent.Reason == "" {
		intent.Reason = types.ReasonEntry
		if reducing {
			intent.Reason = types.ReasonExit
		}
	}

	if err := intent.Validate(); err != nil {
		return intent, b.reject(intent, err)
	}

	if reducing && intent.Reason == types.ReasonEntry {
		return intent, b.reject(intent, errors.Newf(errors.ErrCodeReservedReason,
			"reason %s is reserved for entries and cannot label an exit", types.ReasonEntry))
	}

	if !reducing && intent.ExitPlan.IsSome() {
		if err := intent.ExitPlan.Unwrap().ValidateOrder(types.OpensWith(intent.Side)); err != nil {
			return intent, b.reject(intent, err)
		}
	}

	b.queue(intent)

	return intent, nil
}

// projected is the direction and open quantity the position will have once
// the queue fills, ignoring halts.
func (b *BacktestTrading) projected() (types.PositionDirection, float64) {
	direction := b.state.Direction()
	quantity := b.state.Quantity()

	for _, intent := range b.pending {
		switch {
		case direction.Reduces(intent.Side):
			if intent.Reason == types.ReasonEntry {
				continue
			}

			quantity -= min(intent.Quantity, quantity)
			if quantity == 0 {
				direction = types.PositionDirectionFlat
			}
		case intent.IsExit():
		case direction == types.PositionDirectionFlat:
			direction = types.OpensWith(intent.Side)
			quantity = intent.Quantity
		default:
			quantity += intent.Quantity
		}
	}

	return direction, quantity
}

func (b *BacktestTrading) reject(intent types.OrderIntent, err error) error {
	rejected := types.RejectedIntent{
		Intent:   intent,
		BarIndex: b.currentIndex,
		Time:     b.currentBar.Time,
		Error:    err.Error(),
	}
	b.rejected = append(b.rejected, rejected)

	b.logger.Warn("Intent rejected",
		zap.String("intent_id", intent.ID),
		zap.String("side", string(intent.Side)),
		zap.Float64("quantity", intent.Quantity),
		zap.String("reason", intent.Reason),
		zap.Int("bar_index", b.currentIndex),
		zap.Error(err),
	)

	if b.onRejected != nil {
		b.onRejected(rejected)
	}

	return err
}

// QueueExits turns exit requests from the state machine into engine intents.
func (b *BacktestTrading) QueueExits(requests []ExitRequest) {
	direction := b.state.Direction()

	for _, request := range requests {
		side := types.SideSell
		if direction == types.PositionDirectionShort {
			side = types.SideBuy
		}

		b.queue(types.OrderIntent{
			ID:         uuid.New().String(),
			Side:       side,
			Quantity:   request.Quantity,
			Reason:     request.Reason,
			ExitType:   request.ExitType,
			ReduceOnly: true,
			Source:     types.IntentSourceEngine,
			EmittedAt:  b.currentBar.Time,
			BarIndex:   b.currentIndex,
		})
	}
}

func (b *BacktestTrading) queue(intent types.OrderIntent) {
	b.logger.Debug("Intent queued",
		zap.String("intent_id", intent.ID),
		zap.String("side", string(intent.Side)),
		zap.Float64("quantity", intent.Quantity),
		zap.String("reason", intent.Reason),
		zap.String("source", string(intent.Source)),
		zap.Int("bar_index", intent.BarIndex),
	)

	b.pending = append(b.pending, intent)
}

// ExecuteDue fills every queued intent at bar's open, in queue order.
func (b *BacktestTrading) ExecuteDue(index int, bar types.Bar) error {
	due := b.pending
	b.pending = nil

	for _, intent := range due {
		if err := b.execute(intent, index, bar); err != nil {
			return err
		}
	}

	return nil
}

// DiscardPending records every still-queued intent as unfilled.
func (b *BacktestTrading) DiscardPending(reason string) {
	for _, intent := range b.pending {
		b.discard(intent, b.currentIndex, b.currentBar, reason)
	}

	b.pending = nil
}

func (b *BacktestTrading) discard(intent types.OrderIntent, index int, bar types.Bar, reason string) {
	b.discarded = append(b.discarded, types.DiscardedIntent{
		Intent:   intent,
		BarIndex: index,
		Time:     bar.Time,
		Reason:   reason,
	})

	b.logger.Warn("Intent discarded",
		zap.String("intent_id", intent.ID),
		zap.String("reason", intent.Reason),
		zap.String("discard_reason", reason),
		zap.Int("bar_index", index),
	)
}

func (b *BacktestTrading) execute(intent types.OrderIntent, index int, bar types.Bar) error {
	direction := b.state.Direction()

	if direction.Reduces(intent.Side) {
		if intent.Reason == types.ReasonEntry {
			b.discard(intent, index, bar, types.DiscardReasonEntryOnReduce)

			return nil
		}

		return b.reduce(intent, index, bar)
	}

	if intent.IsExit() {
		b.discard(intent, index, bar, types.DiscardReasonNothingToClose)

		return nil
	}

	if b.calendar.IsHalted(bar.Time) {
		b.discard(intent, index, bar, types.DiscardReasonSessionHalt)

		return nil
	}

	fill := b.price(intent, intent.Quantity, index, bar)

	var err error
	if direction == types.PositionDirectionFlat {
		err = b.state.Open(fill, b.exitLevels(intent, fill.Price))
	} else {
		err = b.state.Add(fill)
	}

	if err != nil {
		return err
	}

	b.fills = append(b.fills, fill)

	return nil
}

func (b *BacktestTrading) reduce(intent types.OrderIntent, index int, bar types.Bar) error {
	quantity := intent.Quantity
	open := b.state.Quantity()
	clamped := false

	if quantity > open {
		b.logger.Warn("Reducing intent exceeds open quantity, clamping",
			zap.String("intent_id", intent.ID),
			zap.Float64("requested", quantity),
			zap.Float64("open", open),
			zap.Int("bar_index", index),
		)

		quantity = open
		clamped = true
	}

	fill := b.price(intent, quantity, index, bar)
	fill.Clamped = clamped

	exitType := intent.ExitType
	if exitType == "" {
		exitType = types.ExitTypeSignal
	}

	if _, err := b.state.Reduce(fill, exitType); err != nil {
		return err
	}

	b.fills = append(b.fills, fill)

	return nil
}

// price builds the fill at bar's open with adverse slippage and commission.
func (b *BacktestTrading) price(intent types.OrderIntent, quantity float64, index int, bar types.Bar) types.Fill {
	price := bar.Open + b.slippage
	if intent.Side == types.SideSell {
		price = bar.Open - b.slippage
	}

	return types.Fill{
		IntentID:        intent.ID,
		Side:            intent.Side,
		Quantity:        quantity,
		RawPrice:        bar.Open,
		Price:           price,
		Commission:      b.commission.Calculate(quantity, price),
		Reason:          intent.Reason,
		Source:          intent.Source,
		Time:            bar.Time,
		BarIndex:        index,
		EmittedAt:       intent.EmittedAt,
		EmittedBarIndex: intent.BarIndex,
	}
}

// exitLevels resolves the stop and ladder for a position opening at entry.
// Levels from the intent's plan win; otherwise configured distances apply.
func (b *BacktestTrading) exitLevels(intent types.OrderIntent, entry float64) exitLevels {
	sign := types.OpensWith(intent.Side).Sign()
	levels := exitLevels{stopLoss: optional.None[float64]()}

	if b.exits.StopLossPoints > 0 {
		levels.stopLoss = optional.Some(entry - sign*b.exits.StopLossPoints)
	}

	for i, distance := range b.exits.TakeProfitPoints {
		levels.takeProfits = append(levels.takeProfits, types.TakeProfitLevel{
			Price:    entry + sign*distance,
			Quantity: b.exits.TakeProfitQuantity(i),
		})
	}

	if intent.ExitPlan.IsNone() {
		return levels
	}

	plan := intent.ExitPlan.Unwrap()
	if plan.StopLoss.IsSome() {
		levels.stopLoss = plan.StopLoss
	}

	if len(plan.TakeProfits) > 0 {
		levels.takeProfits = append([]types.TakeProfitLevel(nil), plan.TakeProfits...)
	}

	return levels
}

// Fills returns every executed fill in order.
func (b *BacktestTrading) Fills() []types.Fill {
	return b.fills
}

// Discarded returns intents that never filled.
func (b *BacktestTrading) Discarded() []types.DiscardedIntent {
	return b.discarded
}

// Rejected returns intents refused at emission.
func (b *BacktestTrading) Rejected() []types.RejectedIntent {
	return b.rejected
}
