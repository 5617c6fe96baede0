package commission_fee

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestZeroCommissionFee() {
	fee := NewZeroCommissionFee()

	tests := []struct {
		name     string
		quantity float64
		price    float64
	}{
		{"zero quantity", 0, 100},
		{"small quantity", 10, 100},
		{"large quantity", 10000, 25000},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(0.0, fee.Calculate(tc.quantity, tc.price))
		})
	}
}

func (suite *CommissionFeeTestSuite) TestInteractiveBrokerCommissionFee() {
	fee := NewInteractiveBrokerCommissionFee()

	tests := []struct {
		name     string
		quantity float64
		expected float64
	}{
		{"zero quantity", 0, 0},
		{"small quantity - min fee", 10, 1.0},
		{"quantity at threshold", 200, 1.0},
		{"large quantity", 1000, 5.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, fee.Calculate(tc.quantity, 50), 1e-9)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestFixedAndPercentageModels() {
	tests := []struct {
		name     string
		handler  CommissionFee
		quantity float64
		price    float64
		expected float64
	}{
		{"per unit", NewFixedPerUnitCommissionFee(0.62), 3, 20000, 1.86},
		{"per unit zero quantity", NewFixedPerUnitCommissionFee(0.62), 0, 20000, 0},
		{"per fill", NewFixedPerFillCommissionFee(2.5), 7, 100, 2.5},
		{"percentage of notional", NewPercentageCommissionFee(0.1, 1), 10, 100, 1},
		{"percentage with point value", NewPercentageCommissionFee(0.01, 2), 1, 20000, 4},
		{"percentage defaults point value", NewPercentageCommissionFee(1, 0), 2, 50, 1},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, tc.handler.Calculate(tc.quantity, tc.price), 1e-9)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestGetCommissionFeeHandler() {
	tests := []struct {
		name     string
		model    Model
		expected any
	}{
		{"zero", ModelZero, &ZeroCommissionFee{}},
		{"fixed per unit", ModelFixedPerUnit, &FixedPerUnitCommissionFee{}},
		{"fixed per fill", ModelFixedPerFill, &FixedPerFillCommissionFee{}},
		{"percentage", ModelPercentage, &PercentageCommissionFee{}},
		{"interactive broker", ModelInteractiveBroker, &InteractiveBrokerCommissionFee{}},
		{"unknown falls back to zero", Model("unknown"), &ZeroCommissionFee{}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.IsType(tc.expected, GetCommissionFeeHandler(tc.model, 1, 2))
		})
	}
}
