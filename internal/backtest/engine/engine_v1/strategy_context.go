package engine

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// barContext is the StrategyContext for one bar. It holds the visible window
// only; the strategy can reach the position through a read-only view and the
// queue through the emission primitives.
type barContext struct {
	bars    []types.Bar
	index   int
	trading *BacktestTrading
}

var _ runtime.StrategyContext = (*barContext)(nil)

func newBarContext(visible []types.Bar, index int, trading *BacktestTrading) *barContext {
	return &barContext{bars: visible, index: index, trading: trading}
}

func (c *barContext) Bars() []types.Bar {
	return c.bars
}

func (c *barContext) Signals(timeframe string) []optional.Option[float64] {
	signals := make([]optional.Option[float64], len(c.bars))
	for i, bar := range c.bars {
		signals[i] = bar.Signal(timeframe)
	}

	return signals
}

func (c *barContext) CurrentBar() types.Bar {
	return c.bars[len(c.bars)-1]
}

func (c *barContext) BarIndex() int {
	return c.index
}

func (c *barContext) Position() types.PositionView {
	return c.trading.state.View()
}

func (c *barContext) PositionSize() float64 {
	return c.trading.state.Quantity()
}

func (c *barContext) Buy(quantity float64, reason string, opts ...runtime.IntentOption) (types.OrderIntent, error) {
	return c.emit(types.SideBuy, quantity, reason, opts)
}

func (c *barContext) SellShort(quantity float64, reason string, opts ...runtime.IntentOption) (types.OrderIntent, error) {
	return c.emit(types.SideSell, quantity, reason, opts)
}

func (c *barContext) Close(reason string, opts ...runtime.IntentOption) (types.OrderIntent, error) {
	direction := c.trading.state.Direction()
	if direction == types.PositionDirectionFlat {
		intent := types.OrderIntent{Reason: reason, ReduceOnly: true}

		return intent, c.trading.reject(intent, errors.New(errors.ErrCodeInvalidIntent, "no open position to close"))
	}

	side := types.SideSell
	if direction == types.PositionDirectionShort {
		side = types.SideBuy
	}

	return c.emit(side, c.trading.state.Quantity(), reason, append(opts, runtime.WithReduceOnly()))
}

func (c *barContext) emit(side types.Side, quantity float64, reason string, opts []runtime.IntentOption) (types.OrderIntent, error) {
	intent := types.OrderIntent{
		Side:     side,
		Quantity: quantity,
		Reason:   reason,
	}
	runtime.ApplyIntentOptions(&intent, opts...)

	return c.trading.Emit(intent)
}
