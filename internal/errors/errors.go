package errors

// ValidationError marks a request whose payload failed schema validation:
// out-of-bound field values, empty lead list, too many custom features.
type ValidationError struct {
	ErrorMsg string
}

func (m *ValidationError) Error() string {
	return m.ErrorMsg
}

// BatchSizeError marks a request whose lead count exceeds the configured
// per-request maximum.
type BatchSizeError struct {
	ErrorMsg string
}

func (m *BatchSizeError) Error() string {
	return m.ErrorMsg
}

// PayloadTooLargeError marks a request body over the byte limit.
type PayloadTooLargeError struct {
	ErrorMsg string
}

func (m *PayloadTooLargeError) Error() string {
	return m.ErrorMsg
}

// ModelNotLoadedError marks scoring attempts made before an artifact is
// available. Retryable by the caller after backoff.
type ModelNotLoadedError struct {
	ErrorMsg string
}

func (m *ModelNotLoadedError) Error() string {
	return m.ErrorMsg
}

// TimeoutError marks an orchestration path that exceeded its deadline.
type TimeoutError struct {
	ErrorMsg string
}

func (m *TimeoutError) Error() string {
	return m.ErrorMsg
}

// InternalError wraps unexpected encode/predict failures. The caller only
// ever sees the generic message; details stay in the server logs.
type InternalError struct {
	ErrorMsg string
}

func (m *InternalError) Error() string {
	return m.ErrorMsg
}
