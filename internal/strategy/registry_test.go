package strategy

import (
	"encoding/json"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestDefaultRegistry() {
	registry := DefaultRegistry()
	suite.Equal([]string{ScoreCrossName, SMACrossoverName}, registry.List())
}

func (suite *RegistryTestSuite) TestRegisterDuplicate() {
	registry := NewRegistry()
	suite.Require().NoError(registry.Register("custom", NewSMACrossover))

	err := registry.Register("custom", NewScoreCross)
	suite.Equal(errors.ErrCodeStrategyAlreadyRegistered, errors.GetCode(err))

	err = registry.Register("", NewScoreCross)
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestCreate() {
	registry := DefaultRegistry()

	strategy, err := registry.Create(SMACrossoverName, map[string]any{"period": 5})
	suite.Require().NoError(err)
	suite.Equal(SMACrossoverName, strategy.Name())
	suite.Equal(5, strategy.(*SMACrossover).params.Period)

	other, err := registry.Create(SMACrossoverName, nil)
	suite.Require().NoError(err)
	suite.NotSame(strategy, other)

	_, err = registry.Create("missing", nil)
	suite.Equal(errors.ErrCodeStrategyNotFound, errors.GetCode(err))

	_, err = registry.Create(SMACrossoverName, map[string]any{"period": 0})
	suite.Equal(errors.ErrCodeStrategyConfigError, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestCreateWrapsForeignInitializeErrors() {
	ctrl := gomock.NewController(suite.T())

	registry := NewRegistry()
	suite.Require().NoError(registry.Register("mock", func() runtime.Strategy {
		strategy := mocks.NewMockStrategy(ctrl)
		strategy.EXPECT().Initialize(gomock.Any()).Return(errors.New(errors.ErrCodeInvalidParameter, "bad"))

		return strategy
	}))

	_, err := registry.Create("mock", nil)
	suite.Equal(errors.ErrCodeStrategyConfigError, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestParameterRangesAndSchema() {
	registry := DefaultRegistry()

	ranges, err := registry.ParameterRanges(ScoreCrossName)
	suite.Require().NoError(err)
	suite.Contains(ranges, "atr_length")

	schema, err := registry.Schema(SMACrossoverName)
	suite.Require().NoError(err)

	var decoded map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &decoded))
	suite.Contains(decoded["properties"], "period")

	_, err = registry.Schema("missing")
	suite.Error(err)
}
