package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// exitLevels are the absolute stop and ladder a position opens with.
type exitLevels struct {
	stopLoss    optional.Option[float64]
	takeProfits []types.TakeProfitLevel
}

type takeProfitState struct {
	price    float64
	quantity decimal.Decimal
	hit      bool
}

type openPosition struct {
	id            string
	direction     types.PositionDirection
	quantity      decimal.Decimal
	avgEntry      decimal.Decimal
	entryTime     time.Time
	entryBarIndex int
	// unallocatedFees is entry commission not yet charged to a closing leg.
	unallocatedFees decimal.Decimal
	stop            optional.Option[float64]
	initialStop     optional.Option[float64]
	ratcheted       bool
	takeProfits     []takeProfitState
}

// ExitRequest is a reducing order synthesized by the state machine.
type ExitRequest struct {
	Quantity float64
	Reason   string
	ExitType types.ExitType
}

// BacktestState owns the position and the trade ledger of one run. It is
// the only writer of either.
type BacktestState struct {
	logger        *logger.Logger
	pointValue    decimal.Decimal
	position      *openPosition
	ledger        []types.TradeLeg
	realized      decimal.Decimal
	uniqueEntries int
}

func NewBacktestState(logger *logger.Logger, pointValue float64) *BacktestState {
	return &BacktestState{
		logger:     logger,
		pointValue: decimal.NewFromFloat(pointValue),
		realized:   decimal.Zero,
	}
}

// Direction returns FLAT when no position is open.
func (b *BacktestState) Direction() types.PositionDirection {
	if b.position == nil {
		return types.PositionDirectionFlat
	}

	return b.position.direction
}

// Quantity returns the open quantity, 0 when flat.
func (b *BacktestState) Quantity() float64 {
	if b.position == nil {
		return 0
	}

	return b.position.quantity.InexactFloat64()
}

// View is the read-only surface exposed to strategies.
func (b *BacktestState) View() types.PositionView {
	if b.position == nil {
		return types.PositionView{}
	}

	return types.PositionView{
		Size:         b.position.quantity.InexactFloat64(),
		AverageEntry: b.position.avgEntry.InexactFloat64(),
		IsOpen:       true,
	}
}

// StopLevel returns the current effective stop, if any.
func (b *BacktestState) StopLevel() optional.Option[float64] {
	if b.position == nil {
		return optional.None[float64]()
	}

	return b.position.stop
}

// RealizedPnL is the sum of every recorded leg's PnL.
func (b *BacktestState) RealizedPnL() float64 {
	return b.realized.InexactFloat64()
}

// Ledger returns a copy of the recorded legs in order.
func (b *BacktestState) Ledger() []types.TradeLeg {
	ledger := make([]types.TradeLeg, len(b.ledger))
	copy(ledger, b.ledger)

	return ledger
}

// UniqueEntries counts positions opened from FLAT.
func (b *BacktestState) UniqueEntries() int {
	return b.uniqueEntries
}

// Open moves FLAT to LONG or SHORT.
func (b *BacktestState) Open(fill types.Fill, levels exitLevels) error {
	if b.position != nil {
		return errors.Newf(errors.ErrCodeInvalidIntent, "cannot open a new position while %s %v is open", b.position.direction, b.position.quantity)
	}

	quantity := decimal.NewFromFloat(fill.Quantity)
	position := &openPosition{
		id:              uuid.New().String(),
		direction:       types.OpensWith(fill.Side),
		quantity:        quantity,
		avgEntry:        decimal.NewFromFloat(fill.Price),
		entryTime:       fill.Time,
		entryBarIndex:   fill.BarIndex,
		unallocatedFees: decimal.NewFromFloat(fill.Commission),
		stop:            levels.stopLoss,
		initialStop:     levels.stopLoss,
	}

	for _, level := range levels.takeProfits {
		position.takeProfits = append(position.takeProfits, takeProfitState{
			price:    level.Price,
			quantity: decimal.NewFromFloat(level.Quantity),
		})
	}

	b.position = position
	b.uniqueEntries++

	b.logger.Debug("Position opened",
		zap.String("position_id", position.id),
		zap.String("direction", string(position.direction)),
		zap.Float64("quantity", fill.Quantity),
		zap.Float64("price", fill.Price),
		zap.Int("bar_index", fill.BarIndex),
	)

	return nil
}

// Add increases the open quantity on the same side and re-weights the entry.
func (b *BacktestState) Add(fill types.Fill) error {
	if b.position == nil || types.OpensWith(fill.Side) != b.position.direction {
		return errors.Newf(errors.ErrCodeInvalidIntent, "cannot add %s to %s position", fill.Side, b.Direction())
	}

	p := b.position
	added := decimal.NewFromFloat(fill.Quantity)
	total := p.quantity.Add(added)

	p.avgEntry = p.avgEntry.Mul(p.quantity).Add(decimal.NewFromFloat(fill.Price).Mul(added)).Div(total)
	p.quantity = total
	p.unallocatedFees = p.unallocatedFees.Add(decimal.NewFromFloat(fill.Commission))

	return nil
}

// Reduce closes fill.Quantity of the open position and appends one leg. The
// quantity must already be clamped to the open quantity.
func (b *BacktestState) Reduce(fill types.Fill, exitType types.ExitType) (types.TradeLeg, error) {
	if b.position == nil || !b.position.direction.Reduces(fill.Side) {
		return types.TradeLeg{}, errors.Newf(errors.ErrCodeInvalidIntent, "%s does not reduce a %s position", fill.Side, b.Direction())
	}

	p := b.position
	closed := decimal.NewFromFloat(fill.Quantity)

	if closed.LessThanOrEqual(decimal.Zero) || closed.GreaterThan(p.quantity) {
		return types.TradeLeg{}, errors.Newf(errors.ErrCodeInvalidQuantity, "reduce quantity %v outside (0, %v]", closed, p.quantity)
	}

	entryFees := p.unallocatedFees.Mul(closed).Div(p.quantity)
	fees := entryFees.Add(decimal.NewFromFloat(fill.Commission))
	direction := decimal.NewFromFloat(p.direction.Sign())
	exitPrice := decimal.NewFromFloat(fill.Price)

	pnl := exitPrice.Sub(p.avgEntry).Mul(direction).Mul(closed).Mul(b.pointValue).Sub(fees)

	leg := types.TradeLeg{
		PositionID:    p.id,
		EntryTime:     p.entryTime,
		EntryPrice:    p.avgEntry.InexactFloat64(),
		ExitTime:      fill.Time,
		ExitPrice:     fill.Price,
		Quantity:      fill.Quantity,
		Direction:     p.direction,
		Reason:        fill.Reason,
		ExitType:      exitType,
		Commission:    fees.InexactFloat64(),
		PnL:           pnl.InexactFloat64(),
		EntryBarIndex: p.entryBarIndex,
		ExitBarIndex:  fill.BarIndex,
		InitialStop:   p.initialStop.TakeOr(0),
	}

	b.ledger = append(b.ledger, leg)
	b.realized = b.realized.Add(pnl)

	p.unallocatedFees = p.unallocatedFees.Sub(entryFees)
	p.quantity = p.quantity.Sub(closed)

	if p.quantity.IsZero() {
		b.logger.Debug("Position closed",
			zap.String("position_id", p.id),
			zap.String("reason", fill.Reason),
			zap.Int("bar_index", fill.BarIndex),
		)

		b.position = nil
	}

	return leg, nil
}

// EvaluateExits checks the open position against bar in priority order:
// stop loss, take-profit ladder, breakeven ratchet, then the session
// force-close reason if one applies. Each satisfied condition produces one
// request until the position would be flat. Take-profit hit flags and the
// ratchet take effect immediately.
func (b *BacktestState) EvaluateExits(bar types.Bar, exits ExitConfig, forceCloseReason optional.Option[string]) []ExitRequest {
	if b.position == nil {
		return nil
	}

	p := b.position
	remaining := p.quantity
	requests := make([]ExitRequest, 0, 2)
	isLong := p.direction == types.PositionDirectionLong

	take := func(quantity decimal.Decimal, reason string, exitType types.ExitType) {
		quantity = decimal.Min(quantity, remaining)
		if quantity.LessThanOrEqual(decimal.Zero) {
			return
		}

		requests = append(requests, ExitRequest{Quantity: quantity.InexactFloat64(), Reason: reason, ExitType: exitType})
		remaining = remaining.Sub(quantity)
	}

	if p.stop.IsSome() {
		stop := p.stop.Unwrap()
		if (isLong && bar.Low <= stop) || (!isLong && bar.High >= stop) {
			exitType := types.ExitTypeStopLoss
			if p.ratcheted {
				exitType = types.ExitTypeBreakeven
			}

			take(remaining, types.ReasonStopLoss, exitType)
		}
	}

	for i := range p.takeProfits {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		level := &p.takeProfits[i]
		if level.hit {
			continue
		}

		if (isLong && bar.High >= level.price) || (!isLong && bar.Low <= level.price) {
			level.hit = true
			take(level.quantity, types.TakeProfitReason(i), types.ExitTypeTakeProfit)
		}
	}

	if remaining.GreaterThan(decimal.Zero) {
		b.evaluateBreakeven(bar, exits)
	}

	if remaining.GreaterThan(decimal.Zero) && forceCloseReason.IsSome() {
		take(remaining, forceCloseReason.Unwrap(), types.ExitTypeSession)
	}

	return requests
}

func (b *BacktestState) evaluateBreakeven(bar types.Bar, exits ExitConfig) {
	p := b.position
	entry := p.avgEntry.InexactFloat64()
	isLong := p.direction == types.PositionDirectionLong

	triggered := false

	if exits.BreakevenTriggerPoints > 0 {
		if isLong {
			triggered = bar.High-entry >= exits.BreakevenTriggerPoints
		} else {
			triggered = entry-bar.Low >= exits.BreakevenTriggerPoints
		}
	}

	if k := exits.BreakevenAfterTakeProfit; k > 0 && k <= len(p.takeProfits) && p.takeProfits[k-1].hit {
		triggered = true
	}

	if !triggered {
		return
	}

	target := entry + exits.BreakevenOffsetPoints
	if !isLong {
		target = entry - exits.BreakevenOffsetPoints
	}

	b.ratchetStop(target)
}

// ratchetStop tightens the stop to target. A looser target is ignored.
func (b *BacktestState) ratchetStop(target float64) {
	p := b.position
	isLong := p.direction == types.PositionDirectionLong

	if p.stop.IsSome() {
		current := p.stop.Unwrap()
		if (isLong && target <= current) || (!isLong && target >= current) {
			return
		}
	}

	b.logger.Debug("Stop ratcheted",
		zap.String("position_id", p.id),
		zap.Float64("stop", target),
	)

	p.stop = optional.Some(target)
	p.ratcheted = true
}
