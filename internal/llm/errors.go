package llm

import "errors"

var (
	// ErrUnavailable indicates the model server is unreachable.
	ErrUnavailable = errors.New("llm server unavailable")

	// ErrTimeout indicates the LLM request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrInvalidOutput indicates the response carried no usable generated
	// text (for example an empty candidate list).
	ErrInvalidOutput = errors.New("invalid llm output")

	// ErrHTTPStatus indicates the server answered with a non-2xx status.
	ErrHTTPStatus = errors.New("llm server returned error status")
)
