package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter        ErrorCode = 100
	ErrCodeInvalidConfiguration    ErrorCode = 101
	ErrCodeInvalidBar              ErrorCode = 102
	ErrCodeNonIncreasingTimestamp  ErrorCode = 103
	ErrCodeInvalidIntent           ErrorCode = 104
	ErrCodeInvalidQuantity         ErrorCode = 105
	ErrCodeReservedReason          ErrorCode = 106
	ErrCodeInsufficientData        ErrorCode = 107
	ErrCodeInvalidSessionClock     ErrorCode = 108
	ErrCodeInvalidParameterRange   ErrorCode = 109
	ErrCodeInvalidTakeProfitLadder ErrorCode = 110

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeUnsupportedFileFormat ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound          ErrorCode = 400
	ErrCodeStrategyConfigError       ErrorCode = 401
	ErrCodeStrategyRuntimeError      ErrorCode = 402
	ErrCodeStrategyAlreadyRegistered ErrorCode = 403

	// Backtest errors (600-699)
	ErrCodeBacktestNotInitialized ErrorCode = 600
	ErrCodeBacktestConfigError    ErrorCode = 601
	ErrCodeBacktestCancelled      ErrorCode = 602
	ErrCodeBacktestNoStrategy     ErrorCode = 603
	ErrCodeResultWriteFailed      ErrorCode = 604
	ErrCodeStateInvariant         ErrorCode = 605

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800

	// Optimizer errors (900-999)
	ErrCodeOptimizerNoCombinations ErrorCode = 900
	ErrCodeUnknownMetric           ErrorCode = 901
	ErrCodeOptimizerAllFailed      ErrorCode = 902
)
