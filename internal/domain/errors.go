package domain

import "errors"

// ErrUnknownMode is returned by ParseMode for strings outside AllModes.
var ErrUnknownMode = errors.New("unknown topical mode")
