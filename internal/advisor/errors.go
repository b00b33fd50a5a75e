package advisor

import "errors"

var (
	// ErrRemoteUnavailable means the remote tier produced no usable answer:
	// transport failure, non-2xx status, or a response without generated
	// text. The orchestrator recovers from it locally.
	ErrRemoteUnavailable = errors.New("remote generation unavailable")

	// ErrBusy rejects a submit while another one is still in flight.
	ErrBusy = errors.New("a request is already in flight")

	// ErrDiscarded is returned when the caller gave up on a pending remote
	// request; its eventual result is dropped.
	ErrDiscarded = errors.New("request discarded by caller")
)
