package queue

import "errors"

// ErrFull is returned by callers when Enqueue rejects a job.
var ErrFull = errors.New("render queue full")
