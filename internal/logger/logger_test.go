package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
}

func (suite *LoggerTestSuite) TestNewLoggerWithOptions() {
	testCases := []struct {
		name    string
		options Options
		enabled zapcore.Level
	}{
		{name: "debug production", options: Options{Level: zapcore.DebugLevel}, enabled: zapcore.DebugLevel},
		{name: "warn development", options: Options{Level: zapcore.WarnLevel, Development: true, OutputPaths: []string{"stderr"}}, enabled: zapcore.WarnLevel},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			logger, err := NewLoggerWithOptions(tc.options)
			suite.Require().NoError(err)
			suite.True(logger.Core().Enabled(tc.enabled))
		})
	}
}

func (suite *LoggerTestSuite) TestNopLogger() {
	logger := NewNopLogger()
	suite.NotNil(logger.Logger)
	suite.False(logger.Core().Enabled(zapcore.ErrorLevel))
	logger.Info("discarded", zap.Int("bar_index", 1))
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}
	suite.NoError(logger.Sync())
}
