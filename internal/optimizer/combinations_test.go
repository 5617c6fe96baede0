package optimizer

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CombinationsTestSuite struct {
	suite.Suite
}

func TestCombinationsSuite(t *testing.T) {
	suite.Run(t, new(CombinationsTestSuite))
}

func (suite *CombinationsTestSuite) TestValues() {
	tests := []struct {
		name     string
		r        runtime.ParameterRange
		expected []any
	}{
		{"integral", runtime.ParameterRange{Min: 5, Max: 20, Step: 5}, []any{5, 10, 15, 20}},
		{"fractional", runtime.ParameterRange{Min: 1.5, Max: 2.5, Step: 0.5}, []any{1.5, 2.0, 2.5}},
		{"tenths do not drift", runtime.ParameterRange{Min: 0.1, Max: 0.3, Step: 0.1}, []any{0.1, 0.2, 0.3}},
		{"max not on grid", runtime.ParameterRange{Min: 1, Max: 6, Step: 2}, []any{1, 3, 5}},
		{"single value", runtime.ParameterRange{Min: 3, Max: 3, Step: 1}, []any{3}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			values, err := Values(tc.r)
			suite.Require().NoError(err)
			suite.Equal(tc.expected, values)
		})
	}
}

func (suite *CombinationsTestSuite) TestValuesInvalid() {
	_, err := Values(runtime.ParameterRange{Min: 1, Max: 5, Step: 0})
	suite.Equal(errors.ErrCodeInvalidParameterRange, errors.GetCode(err))

	_, err = Values(runtime.ParameterRange{Min: 5, Max: 1, Step: 1})
	suite.Equal(errors.ErrCodeInvalidParameterRange, errors.GetCode(err))
}

func (suite *CombinationsTestSuite) TestNonFiniteRanges() {
	tests := []struct {
		name string
		r    runtime.ParameterRange
	}{
		{"infinite max", runtime.ParameterRange{Min: 0, Max: math.Inf(1), Step: 1}},
		{"infinite min", runtime.ParameterRange{Min: math.Inf(-1), Max: 1, Step: 1}},
		{"nan max", runtime.ParameterRange{Min: 0, Max: math.NaN(), Step: 1}},
		{"infinite step", runtime.ParameterRange{Min: 0, Max: 1, Step: math.Inf(1)}},
		{"axis too large", runtime.ParameterRange{Min: 0, Max: 1e12, Step: 1}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Values(tc.r)
			suite.Equal(errors.ErrCodeInvalidParameterRange, errors.GetCode(err))

			_, err = CountCombinations(map[string]runtime.ParameterRange{"x": tc.r})
			suite.Equal(errors.ErrCodeInvalidParameterRange, errors.GetCode(err))
		})
	}
}

func (suite *CombinationsTestSuite) TestCountCombinations() {
	total, err := CountCombinations(map[string]runtime.ParameterRange{
		"period":   {Min: 5, Max: 20, Step: 5},
		"quantity": {Min: 1, Max: 3, Step: 1},
	})
	suite.Require().NoError(err)
	suite.Equal(12, total)

	// Each axis fits on its own, the product does not.
	_, err = CountCombinations(map[string]runtime.ParameterRange{
		"a": {Min: 1, Max: 100000, Step: 1},
		"b": {Min: 1, Max: 100000, Step: 1},
	})
	suite.Equal(errors.ErrCodeInvalidParameterRange, errors.GetCode(err))
}

func (suite *CombinationsTestSuite) TestGenerateCombinationsOrder() {
	combinations, err := GenerateCombinations(map[string]runtime.ParameterRange{
		"period":   {Min: 5, Max: 10, Step: 5},
		"quantity": {Min: 1, Max: 3, Step: 1},
	})
	suite.Require().NoError(err)

	suite.Equal([]map[string]any{
		{"period": 5, "quantity": 1},
		{"period": 5, "quantity": 2},
		{"period": 5, "quantity": 3},
		{"period": 10, "quantity": 1},
		{"period": 10, "quantity": 2},
		{"period": 10, "quantity": 3},
	}, combinations)

	count, err := CountCombinations(map[string]runtime.ParameterRange{
		"period":   {Min: 5, Max: 10, Step: 5},
		"quantity": {Min: 1, Max: 3, Step: 1},
	})
	suite.Require().NoError(err)
	suite.Equal(6, count)
}

func (suite *CombinationsTestSuite) TestGenerateCombinationsErrors() {
	_, err := GenerateCombinations(nil)
	suite.Equal(errors.ErrCodeOptimizerNoCombinations, errors.GetCode(err))

	_, err = GenerateCombinations(map[string]runtime.ParameterRange{"period": {Min: 1, Max: 2, Step: -1}})
	suite.Equal(errors.ErrCodeInvalidParameterRange, errors.GetCode(err))
}
