// Package ledger implements the engine façade (§4.6): it binds the
// transaction log, the WSV and the narrow Merkle tree under one write
// txn, exposing append/commit/rollback/query and enforcing the
// single-writer discipline with its own mutex (see §9's note on
// replacing the source's global singleton with an explicit instance).
package ledger

import (
	"errors"
	"fmt"

	"github.com/cuemby/ametsuchi/internal/kv"
	"github.com/cuemby/ametsuchi/internal/txcodec"
	"github.com/cuemby/ametsuchi/internal/txlog"
	"github.com/cuemby/ametsuchi/internal/wsv"
)

// Kind classifies an Error the way §7 describes (invalid_transaction,
// substrate_transient, substrate_fatal, not_found).
type Kind int

const (
	KindInvalidTransaction Kind = iota
	KindSubstrateTransient
	KindSubstrateFatal
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidTransaction:
		return "invalid_transaction"
	case KindSubstrateTransient:
		return "substrate_transient"
	case KindSubstrateFatal:
		return "substrate_fatal"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the engine's single error-result type. Every failed
// operation wraps its cause in one of these so callers can branch on
// Kind without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps an underlying error from kv, txcodec, txlog or wsv to
// its §7 Kind.
func classify(err error) Kind {
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return KindNotFound
	case kv.IsFatal(err):
		return KindSubstrateFatal
	case kv.IsTransient(err):
		return KindSubstrateTransient
	case errors.Is(err, txcodec.ErrMalformed),
		errors.Is(err, txcodec.ErrUnknownCommand),
		errors.Is(err, txcodec.ErrHashMismatch),
		errors.Is(err, txlog.ErrWrongCommand),
		errors.Is(err, txlog.ErrHashSize),
		errors.Is(err, wsv.ErrAccountExists),
		errors.Is(err, wsv.ErrAccountNotFound),
		errors.Is(err, wsv.ErrSignatoryExists),
		errors.Is(err, wsv.ErrAssetExists),
		errors.Is(err, wsv.ErrAssetNotFound),
		errors.Is(err, wsv.ErrPrecisionMismatch),
		errors.Is(err, wsv.ErrAmountOverflow),
		errors.Is(err, wsv.ErrInsufficientFunds),
		errors.Is(err, wsv.ErrWrongAssetKind),
		errors.Is(err, wsv.ErrPeerExists),
		errors.Is(err, wsv.ErrPeerNotFound):
		return KindInvalidTransaction
	default:
		return KindSubstrateFatal
	}
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}
