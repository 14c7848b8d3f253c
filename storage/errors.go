package storage

import (
	"errors"
	"fmt"
)

// ErrLoadFailed is matched by every *LoadError.
var ErrLoadFailed = errors.New("table load failed")

// LoadError reports a failed write to one target table.
type LoadError struct {
	Table string
	Op    string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Table, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoadFailed }
