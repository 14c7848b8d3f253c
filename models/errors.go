package models

import "errors"

// ErrSchemaMismatch reports that a dataset lacks columns a stage requires.
var ErrSchemaMismatch = errors.New("schema mismatch")
