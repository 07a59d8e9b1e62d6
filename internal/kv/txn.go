package kv

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// WTxn is the single live write transaction against an Env. Commit or
// Abort must be called exactly once to release the writer slot.
type WTxn struct {
	env *Env
	tx  *bolt.Tx
}

// WriteTxn begins the write transaction. It blocks until any previously
// open write transaction on this Env has committed or aborted, enforcing
// the substrate's single-writer discipline.
func (e *Env) WriteTxn() (*WTxn, error) {
	e.writerMu.Lock()
	tx, err := e.db.Begin(true)
	if err != nil {
		e.writerMu.Unlock()
		return nil, fmt.Errorf("kv: begin write txn: %w: %w", ErrIOError, err)
	}
	return &WTxn{env: e, tx: tx}, nil
}

// Commit makes the transaction's mutations durable and atomic.
func (w *WTxn) Commit() error {
	defer w.env.writerMu.Unlock()
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("kv: commit: %w: %w", ErrIOError, err)
	}
	return nil
}

// Abort discards the transaction's mutations.
func (w *WTxn) Abort() error {
	defer w.env.writerMu.Unlock()
	if err := w.tx.Rollback(); err != nil {
		return fmt.Errorf("kv: abort: %w: %w", ErrIOError, err)
	}
	return nil
}

// OpenMap opens (and, with the Create flag, creates) a named map for
// mutation within this write transaction.
func (w *WTxn) OpenMap(name string, flags Flags) (*Map, error) {
	var b *bolt.Bucket
	var err error
	if flags&Create != 0 {
		b, err = w.tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return nil, fmt.Errorf("kv: open map %q: %w: %w", name, ErrIOError, err)
		}
		w.env.registerMap(name)
	} else {
		b = w.tx.Bucket([]byte(name))
		if b == nil {
			return nil, fmt.Errorf("kv: open map %q: %w", name, ErrNotFound)
		}
	}
	return &Map{name: name, flags: flags, bucket: b, writable: true}, nil
}

// DeleteMap drops a named map entirely, including all of its entries.
// Used to rewrite a map's full contents in one shot (e.g. the Merkle
// checkpoint map, which is replaced wholesale on every commit).
func (w *WTxn) DeleteMap(name string) error {
	if err := w.tx.DeleteBucket([]byte(name)); err != nil && err != bolt.ErrBucketNotFound {
		return fmt.Errorf("kv: delete map %q: %w: %w", name, ErrIOError, err)
	}
	return nil
}

// RTxn is a read-only snapshot transaction. Any number may be live
// concurrently; each sees the database exactly as of the moment it began,
// including none of any write transaction still in flight.
type RTxn struct {
	env *Env
	tx  *bolt.Tx
}

// ReadTxn begins a read-only snapshot transaction.
func (e *Env) ReadTxn() (*RTxn, error) {
	tx, err := e.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("kv: begin read txn: %w: %w", ErrIOError, err)
	}
	return &RTxn{env: e, tx: tx}, nil
}

// Close releases the snapshot. It never fails in a way callers must act
// on (there is nothing to commit), but the error is preserved for logging.
func (r *RTxn) Close() error {
	if err := r.tx.Rollback(); err != nil {
		return fmt.Errorf("kv: close read txn: %w: %w", ErrIOError, err)
	}
	return nil
}

// OpenMap opens a named map for read-only access. Opening an absent map
// reports ErrNotFound, a normal (non-fatal) outcome.
func (r *RTxn) OpenMap(name string, flags Flags) (*Map, error) {
	b := r.tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("kv: open map %q: %w", name, ErrNotFound)
	}
	return &Map{name: name, flags: flags, bucket: b, writable: false}, nil
}
