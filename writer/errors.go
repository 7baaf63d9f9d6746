package writer

import "errors"

var (
	errSegmentByteLimit = errors.New("writer: segment byte limit must be positive")
	errBlockSize        = errors.New("writer: block size must be positive")
	errEmptyPassword    = errors.New("writer: encryption password must not be empty")
)
