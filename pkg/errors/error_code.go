package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidBar           ErrorCode = 103
	ErrCodeInvalidMove          ErrorCode = 104

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoUsableData          ErrorCode = 203
	ErrCodeStoreWriteFailed      ErrorCode = 204
	ErrCodeParseFailed           ErrorCode = 205

	// Replay validation errors (300-399)
	ErrCodeMalformedMove    ErrorCode = 300
	ErrCodeMoveOutOfOrder   ErrorCode = 301
	ErrCodeBarNotFound      ErrorCode = 302
	ErrCodeVolumeExceeded   ErrorCode = 303
	ErrCodeInsufficientCash ErrorCode = 304

	// Engine errors (400-499)
	ErrCodeUnknownScenario ErrorCode = 400
	ErrCodeEmptyDataset    ErrorCode = 401
	ErrCodeStateFailed     ErrorCode = 402

	// Market data errors (500-599)
	ErrCodeMarketDataFetchFailed ErrorCode = 500
	ErrCodeMarketDataWriteFailed ErrorCode = 501
	ErrCodeInvalidProvider       ErrorCode = 502

	// Report errors (600-699)
	ErrCodeReportFailed ErrorCode = 600
	ErrCodeEmptyLedger  ErrorCode = 601
)
