package model

// ErrorKind classifies a failure surfaced to the caller
type ErrorKind string

const (
	ErrorKindInvalidURL          ErrorKind = "invalid_url"
	ErrorKindNotFound            ErrorKind = "not_found"
	ErrorKindPlaylistUnsupported ErrorKind = "playlist_unsupported"
	ErrorKindNoTitle             ErrorKind = "no_title"
	ErrorKindServiceError        ErrorKind = "service_error"
	ErrorKindNoOutputFile        ErrorKind = "no_output_file"
	ErrorKindEncoderFailure      ErrorKind = "encoder_failure"
	ErrorKindSaveFailure         ErrorKind = "save_failure"
	ErrorKindInternal            ErrorKind = "internal"
)

// ErrorInfo is the caller-facing description of a failed job
type ErrorInfo struct {
	Kind      ErrorKind
	Stage     Stage
	Message   string
	Retryable bool // resubmitting the same URL may succeed
}

// Error implements the error interface so ErrorInfo can travel as an error
func (e *ErrorInfo) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + ": " + e.Message
}

// IsUserInputProblem reports whether a different URL is needed, as opposed to a retry
func (e *ErrorInfo) IsUserInputProblem() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ErrorKindInvalidURL, ErrorKindNotFound, ErrorKindPlaylistUnsupported, ErrorKindNoTitle:
		return true
	default:
		return false
	}
}
