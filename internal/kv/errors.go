package kv

import "errors"

// Sentinel errors reported by the substrate. Callers should use errors.Is.
var (
	ErrMapFull         = errors.New("kv: map full")
	ErrTxnFull         = errors.New("kv: txn full")
	ErrReadersFull     = errors.New("kv: readers full")
	ErrKeyExists       = errors.New("kv: key exists")
	ErrNotFound        = errors.New("kv: not found")
	ErrIOError         = errors.New("kv: io error")
	ErrVersionMismatch = errors.New("kv: version mismatch")
	ErrReadOnly        = errors.New("kv: map opened read-only")
	ErrNotDupSort      = errors.New("kv: map is not opened with DupSort")
)

// IsFatal reports whether err should be treated as substrate_fatal: the
// engine must transition to Closed rather than retry.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIOError) || errors.Is(err, ErrVersionMismatch)
}

// IsTransient reports whether err is substrate_transient: recoverable by
// committing the current txn or raising operator-configured limits.
func IsTransient(err error) bool {
	return errors.Is(err, ErrMapFull) || errors.Is(err, ErrTxnFull) || errors.Is(err, ErrReadersFull)
}

func wrapBoltErr(err error) error {
	if err == nil {
		return nil
	}
	return ErrIOError
}
