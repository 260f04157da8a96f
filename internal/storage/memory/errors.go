package memory

import "errors"

var ErrWriteFailed = errors.New("memory store: write failed")
