package types

import (
	"math"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type OrderTestSuite struct {
	suite.Suite
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func validIntent() OrderIntent {
	return OrderIntent{
		ID:       "intent-1",
		Side:     SideBuy,
		Quantity: 1,
		Reason:   ReasonEntry,
		Source:   IntentSourceStrategy,
	}
}

func (suite *OrderTestSuite) TestValidate() {
	testCases := []struct {
		name         string
		mutate       func(o *OrderIntent)
		expectedCode errors.ErrorCode
	}{
		{name: "valid", mutate: func(o *OrderIntent) {}},
		{name: "zero quantity", mutate: func(o *OrderIntent) { o.Quantity = 0 }, expectedCode: errors.ErrCodeInvalidQuantity},
		{name: "negative quantity", mutate: func(o *OrderIntent) { o.Quantity = -2 }, expectedCode: errors.ErrCodeInvalidQuantity},
		{name: "infinite quantity", mutate: func(o *OrderIntent) { o.Quantity = math.Inf(1) }, expectedCode: errors.ErrCodeInvalidQuantity},
		{name: "nan quantity", mutate: func(o *OrderIntent) { o.Quantity = math.NaN() }, expectedCode: errors.ErrCodeInvalidQuantity},
		{
			name: "nan stop loss",
			mutate: func(o *OrderIntent) {
				o.ExitPlan = optional.Some(ExitPlan{StopLoss: optional.Some(math.NaN())})
			},
			expectedCode: errors.ErrCodeInvalidTakeProfitLadder,
		},
		{
			name: "infinite ladder quantity",
			mutate: func(o *OrderIntent) {
				o.ExitPlan = optional.Some(ExitPlan{TakeProfits: []TakeProfitLevel{{Price: 110, Quantity: math.Inf(1)}}})
			},
			expectedCode: errors.ErrCodeInvalidTakeProfitLadder,
		},
		{name: "unknown side", mutate: func(o *OrderIntent) { o.Side = "HOLD" }, expectedCode: errors.ErrCodeInvalidIntent},
		{name: "missing reason", mutate: func(o *OrderIntent) { o.Reason = "" }, expectedCode: errors.ErrCodeInvalidIntent},
		{
			name: "ladder too deep",
			mutate: func(o *OrderIntent) {
				o.ExitPlan = optional.Some(ExitPlan{TakeProfits: []TakeProfitLevel{
					{Price: 1, Quantity: 1}, {Price: 2, Quantity: 1}, {Price: 3, Quantity: 1}, {Price: 4, Quantity: 1},
				}})
			},
			expectedCode: errors.ErrCodeInvalidTakeProfitLadder,
		},
		{
			name: "ladder level without quantity",
			mutate: func(o *OrderIntent) {
				o.ExitPlan = optional.Some(ExitPlan{TakeProfits: []TakeProfitLevel{{Price: 1}}})
			},
			expectedCode: errors.ErrCodeInvalidTakeProfitLadder,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			intent := validIntent()
			tc.mutate(&intent)
			err := intent.Validate()
			if tc.expectedCode == 0 {
				suite.NoError(err)
				return
			}
			suite.True(errors.HasCode(err, tc.expectedCode), "got %v", err)
		})
	}
}

func (suite *OrderTestSuite) TestExitPlanValidateOrder() {
	plan := ExitPlan{TakeProfits: []TakeProfitLevel{{Price: 105, Quantity: 1}, {Price: 110, Quantity: 1}}}
	suite.NoError(plan.ValidateOrder(PositionDirectionLong))
	suite.True(errors.HasCode(plan.ValidateOrder(PositionDirectionShort), errors.ErrCodeInvalidTakeProfitLadder))

	single := ExitPlan{TakeProfits: []TakeProfitLevel{{Price: 105, Quantity: 1}}}
	suite.NoError(single.ValidateOrder(PositionDirectionShort))
}

func (suite *OrderTestSuite) TestDirectionHelpers() {
	suite.Equal(1.0, PositionDirectionLong.Sign())
	suite.Equal(-1.0, PositionDirectionShort.Sign())
	suite.Equal(0.0, PositionDirectionFlat.Sign())

	suite.Equal(PositionDirectionLong, OpensWith(SideBuy))
	suite.Equal(PositionDirectionShort, OpensWith(SideSell))

	suite.True(PositionDirectionLong.Reduces(SideSell))
	suite.True(PositionDirectionShort.Reduces(SideBuy))
	suite.False(PositionDirectionLong.Reduces(SideBuy))
	suite.False(PositionDirectionFlat.Reduces(SideSell))
}

func (suite *OrderTestSuite) TestExitReasons() {
	for _, reason := range []string{ReasonStopLoss, ReasonTakeProfit1, ReasonTakeProfit2, ReasonTakeProfit3, ReasonForceCloseEOD, ReasonEarlyClose, ReasonExit} {
		suite.True(IsExitReason(reason), reason)
	}
	suite.False(IsExitReason(ReasonEntry))
	suite.False(IsExitReason(ReasonSignal))

	intent := validIntent()
	suite.False(intent.IsExit())
	intent.ReduceOnly = true
	suite.True(intent.IsExit())

	suite.Equal("TP1", TakeProfitReason(0))
	suite.Equal("TP2", TakeProfitReason(1))
	suite.Equal("TP3", TakeProfitReason(2))
}
