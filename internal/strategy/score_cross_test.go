package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ScoreCrossTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	ctx  *mocks.MockStrategyContext
}

func TestScoreCrossSuite(t *testing.T) {
	suite.Run(t, new(ScoreCrossTestSuite))
}

func (suite *ScoreCrossTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.ctx = mocks.NewMockStrategyContext(suite.ctrl)
}

// risingBars has a true range of 2 on every bar and no swing low.
func risingBars(closes ...float64) []types.Bar {
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}

	return bars
}

func scores(values ...float64) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(values))
	for i, v := range values {
		out[i] = optional.Some(v)
	}

	return out
}

func (suite *ScoreCrossTestSuite) newStrategy(params map[string]any) runtime.Strategy {
	strategy, err := DefaultRegistry().Create(ScoreCrossName, params)
	suite.Require().NoError(err)

	return strategy
}

func (suite *ScoreCrossTestSuite) expectBar(bars []types.Bar, primary []optional.Option[float64]) {
	suite.ctx.EXPECT().Position().Return(types.PositionView{}).AnyTimes()
	suite.ctx.EXPECT().Bars().Return(bars).AnyTimes()
	suite.ctx.EXPECT().CurrentBar().Return(bars[len(bars)-1]).AnyTimes()
	suite.ctx.EXPECT().Signals("1m").Return(primary).AnyTimes()
}

func capturePlan(target *types.OrderIntent) func(float64, string, ...runtime.IntentOption) (types.OrderIntent, error) {
	return func(quantity float64, reason string, opts ...runtime.IntentOption) (types.OrderIntent, error) {
		target.Quantity = quantity
		target.Reason = reason
		runtime.ApplyIntentOptions(target, opts...)

		return *target, nil
	}
}

func (suite *ScoreCrossTestSuite) TestLongCrossUsesATRStop() {
	strategy := suite.newStrategy(map[string]any{"atr_length": 3, "swing_lookback": 1})
	suite.expectBar(risingBars(100, 101, 102, 103, 104), scores(-3, -2, -1, -1, 2))

	var intent types.OrderIntent
	suite.ctx.EXPECT().Buy(3.0, types.ReasonEntry, gomock.Any()).DoAndReturn(capturePlan(&intent))

	suite.Require().NoError(strategy.OnBar(suite.ctx))
	suite.Equal(types.PositionDirectionLong, strategy.DirectionHint())

	suite.Require().True(intent.ExitPlan.IsSome())
	plan := intent.ExitPlan.Unwrap()
	suite.InDelta(99.0, plan.StopLoss.Unwrap(), 1e-9)
	suite.Require().Len(plan.TakeProfits, 3)
	suite.InDelta(107.0, plan.TakeProfits[0].Price, 1e-9)
	suite.InDelta(112.0, plan.TakeProfits[1].Price, 1e-9)
	suite.InDelta(113.0, plan.TakeProfits[2].Price, 1e-9)

	for _, level := range plan.TakeProfits {
		suite.InDelta(1.0, level.Quantity, 1e-9)
	}
}

func (suite *ScoreCrossTestSuite) TestShortCrossUsesSwingHigh() {
	strategy := suite.newStrategy(map[string]any{"atr_length": 3, "swing_lookback": 1})
	// the bar at index 2 is a swing high at 106
	bars := risingBars(100, 103, 105, 102, 101)
	suite.expectBar(bars, scores(5, 5, 4, 1, -1))

	var intent types.OrderIntent
	suite.ctx.EXPECT().SellShort(3.0, types.ReasonEntry, gomock.Any()).DoAndReturn(capturePlan(&intent))

	suite.Require().NoError(strategy.OnBar(suite.ctx))
	suite.Equal(types.PositionDirectionShort, strategy.DirectionHint())

	plan := intent.ExitPlan.Unwrap()
	suite.InDelta(106.25, plan.StopLoss.Unwrap(), 1e-9)
	suite.Less(plan.TakeProfits[0].Price, 101.0)
}

func (suite *ScoreCrossTestSuite) TestRequiresConfirmations() {
	strategy := suite.newStrategy(map[string]any{"atr_length": 3, "required_confirmations": 2})

	bars := risingBars(100, 101, 102, 103, 104)
	bars[4].Signals = map[string]optional.Option[float64]{
		"5m":  optional.Some(25.0),
		"15m": optional.Some(10.0),
		"1h":  optional.None[float64](),
	}
	suite.expectBar(bars, scores(-3, -2, -1, -1, 2))

	suite.Require().NoError(strategy.OnBar(suite.ctx))
	suite.Equal(types.PositionDirectionFlat, strategy.DirectionHint())

	bars[4].Signals["15m"] = optional.Some(30.0)
	suite.ctx.EXPECT().Buy(3.0, types.ReasonEntry, gomock.Any()).Return(types.OrderIntent{}, nil)

	suite.Require().NoError(strategy.OnBar(suite.ctx))
}

func (suite *ScoreCrossTestSuite) TestNoEntryWithoutCrossOrHistory() {
	strategy := suite.newStrategy(map[string]any{"atr_length": 3})

	// no cross
	suite.expectBar(risingBars(100, 101, 102, 103, 104), scores(1, 2, 3, 4, 5))
	suite.Require().NoError(strategy.OnBar(suite.ctx))

	// cross but ATR needs four bars
	short := mocks.NewMockStrategyContext(suite.ctrl)
	short.EXPECT().Position().Return(types.PositionView{}).AnyTimes()
	short.EXPECT().Bars().Return(risingBars(100, 101, 102)).AnyTimes()
	short.EXPECT().CurrentBar().Return(risingBars(100, 101, 102)[2]).AnyTimes()
	short.EXPECT().Signals("1m").Return(scores(-1, -1, 1)).AnyTimes()
	suite.Require().NoError(strategy.OnBar(short))

	// null score
	null := mocks.NewMockStrategyContext(suite.ctrl)
	null.EXPECT().Position().Return(types.PositionView{}).AnyTimes()
	null.EXPECT().Bars().Return(risingBars(100, 101, 102, 103, 104)).AnyTimes()
	null.EXPECT().Signals("1m").Return([]optional.Option[float64]{
		optional.Some(-1.0), optional.Some(-1.0), optional.Some(-1.0), optional.None[float64](), optional.Some(1.0),
	}).AnyTimes()
	suite.Require().NoError(strategy.OnBar(null))
}

func (suite *ScoreCrossTestSuite) TestSkipsWhileInPosition() {
	strategy := suite.newStrategy(nil)
	suite.ctx.EXPECT().Position().Return(types.PositionView{Size: 3, AverageEntry: 100, IsOpen: true})

	suite.Require().NoError(strategy.OnBar(suite.ctx))
}

func (suite *ScoreCrossTestSuite) TestRejectsDescendingTakeProfits() {
	_, err := DefaultRegistry().Create(ScoreCrossName, map[string]any{"tp1_multiplier": 5.0})
	suite.Error(err)
}
