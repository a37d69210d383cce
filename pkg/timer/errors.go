package timer

import "errors"

// ErrTargetGone is returned when the dispatch target has been released by its
// owner. A running timer treats it as a normal termination condition: the
// loop stops producing ticks without surfacing an error to the host.
var ErrTargetGone = errors.New("timer: target gone")
