package indicator

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SMATestSuite struct {
	suite.Suite
}

func TestSMASuite(t *testing.T) {
	suite.Run(t, new(SMATestSuite))
}

func barsFromCloses(closes ...float64) []types.Bar {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{Time: start.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c}
	}

	return bars
}

func (suite *SMATestSuite) TestName() {
	suite.Equal(IndicatorTypeSMA, NewSMA(3).Name())
}

func (suite *SMATestSuite) TestRawValue() {
	sma := NewSMA(3)

	value, err := sma.RawValue(barsFromCloses(1, 2, 3, 4, 5))
	suite.Require().NoError(err)
	suite.InDelta(4.0, value, 1e-12)

	value, err = sma.RawValue(barsFromCloses(1, 2, 3))
	suite.Require().NoError(err)
	suite.InDelta(2.0, value, 1e-12)
}

func (suite *SMATestSuite) TestInsufficientData() {
	_, err := NewSMA(5).RawValue(barsFromCloses(1, 2, 3))
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))

	value, err := Value(NewSMA(5), barsFromCloses(1, 2, 3))
	suite.NoError(err)
	suite.True(value.IsNone())
}

func (suite *SMATestSuite) TestConfig() {
	tests := []struct {
		name    string
		params  []any
		period  int
		wantErr bool
	}{
		{name: "int", params: []any{10}, period: 10},
		{name: "whole float", params: []any{20.0}, period: 20},
		{name: "fractional float", params: []any{2.5}, wantErr: true},
		{name: "zero", params: []any{0}, wantErr: true},
		{name: "string", params: []any{"10"}, wantErr: true},
		{name: "missing", params: nil, wantErr: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			sma := NewSMA(3)
			err := sma.Config(tc.params...)

			if tc.wantErr {
				suite.Error(err)
				suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))

				return
			}

			suite.NoError(err)
			suite.Equal(NewSMA(tc.period), sma)
		})
	}
}
