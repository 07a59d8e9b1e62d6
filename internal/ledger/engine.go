package ledger

import (
	"sync"

	"github.com/cuemby/ametsuchi/internal/kv"
	"github.com/cuemby/ametsuchi/internal/merkle"
	"github.com/cuemby/ametsuchi/internal/obs/events"
	"github.com/cuemby/ametsuchi/internal/txcodec"
	"github.com/cuemby/ametsuchi/internal/txlog"
	"github.com/cuemby/ametsuchi/internal/wsv"
)

// state is the engine façade's lifecycle: Closed -> Open(idle)
// <-append/commit/rollback-> Open(dirty) -> ... -> Closed. Any fatal
// substrate error transitions straight to closed after logging (left to
// the caller via the Kind on the returned Error).
type state int

const (
	stateClosed state = iota
	stateOpenIdle
	stateOpenDirty
)

// Config configures a new Engine. MaxNamedMaps must cover every map
// opened by the transaction log and WSV (DefaultConfig computes the count
// from txlog.AllMaps and wsv.AllMaps).
type Config struct {
	MaxDBSize           int64
	MaxNamedMaps        int
	MerkleFanout        int
	MerkleBlockCapacity int
	MaxPeerTrust        float64
	Hash                merkle.HashFunc
}

// DefaultConfig mirrors §6's configuration knobs.
func DefaultConfig() Config {
	return Config{
		MaxDBSize:           1 << 40, // 1 TiB
		MaxNamedMaps:        len(txlog.AllMaps) + len(wsv.AllMaps),
		MerkleFanout:        16,
		MerkleBlockCapacity: 1024,
		MaxPeerTrust:        1.0,
		Hash:                chainHash,
	}
}

// chainHash is the core's H(a,b): SHA3-256 of the 64-byte concatenation
// of the running root and the next leaf. It does not satisfy
// H(t, Zero) == t; the merkle package does not depend on that property:
// Add folds each fresh leaf as H(root, leaf), and Seed replays
// already-computed level-0 values without calling H.
func chainHash(a, b merkle.Hash) merkle.Hash {
	h := txcodec.SHA3Hasher{}
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return merkle.Hash(h.Hash(buf[:]))
}

// Engine is the storage engine façade: one env, one live write txn, one
// TxLog, one WSV, serialized by a single mutex so only one writer ever
// calls it (§9).
type Engine struct {
	mu     sync.Mutex
	st     state
	cfg    Config
	env    *kv.Env
	wtxn   *kv.WTxn
	log    *txlog.Log
	wsv    *wsv.WSV
	events *events.Broker
}

// Events returns the engine's event broker, starting it on first use.
// A caller that never calls this incurs no broker overhead: Publish on
// a nil *events.Broker is a safe no-op.
func (e *Engine) Events() *events.Broker {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.events == nil {
		e.events = events.NewBroker()
		e.events.Start()
	}
	return e.events
}

// New opens (or creates) the engine at path: ensures the directory
// exists, opens the env with the configured size/map limits, rebuilds
// Merkle state from merkle_tree, sets tx_total from tx_store's last
// key, and begins the first write txn.
func New(path string, cfg Config) (*Engine, error) {
	env, err := kv.Open(path, kv.Options{MaxSize: cfg.MaxDBSize, MaxNamedMaps: cfg.MaxNamedMaps})
	if err != nil {
		return nil, wrapErr("new.open", err)
	}

	e := &Engine{
		cfg: cfg,
		env: env,
		log: txlog.New(cfg.MerkleFanout, cfg.MerkleBlockCapacity, cfg.Hash),
		wsv: wsv.New(cfg.MaxPeerTrust),
	}

	wtxn, err := env.WriteTxn()
	if err != nil {
		env.Close()
		return nil, wrapErr("new.begin", err)
	}
	if err := e.resync(wtxn); err != nil {
		wtxn.Abort()
		env.Close()
		return nil, wrapErr("new.resync", err)
	}
	e.wtxn = wtxn
	e.st = stateOpenIdle
	return e, nil
}

// resync sets tx_total from tx_store's last key and rebuilds the
// in-memory Merkle tree from the merkle_tree map, against txn.
func (e *Engine) resync(wtxn *kv.WTxn) error {
	last, err := txlog.LastTxIndex(wtxn)
	if err != nil {
		return err
	}
	e.log.SetTxTotal(last)
	return e.log.InitMerkleTree(wtxn)
}

// Append forwards blob to the transaction log and the WSV, in that
// order, within the current write txn, returning the new Merkle root.
// On any failure the current write txn is aborted in full and a fresh
// one begun — bbolt's transaction model has no partial-rollback
// primitive, so "either both side effects occur or neither" is
// implemented at the granularity of the whole uncommitted batch, not
// just this append (see DESIGN.md).
func (e *Engine) Append(blob []byte) (txcodec.Hash32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st == stateClosed {
		return txcodec.Hash32{}, wrapErr("append", kv.ErrIOError)
	}

	root, tx, err := e.log.Append(e.wtxn, blob)
	if err != nil {
		e.abortAndReset("append.log")
		return txcodec.Hash32{}, wrapErr("append.log", err)
	}
	if err := e.wsv.Apply(e.wtxn, tx); err != nil {
		e.abortAndReset("append.wsv")
		return txcodec.Hash32{}, wrapErr("append.wsv", err)
	}

	e.st = stateOpenDirty
	e.events.Publish(&events.Event{Type: events.EventAppended, TxIndex: e.log.TxTotal()})
	return root, nil
}

// AppendBatch applies Append to each blob in order, returning the final
// Merkle root.
func (e *Engine) AppendBatch(blobs [][]byte) (txcodec.Hash32, error) {
	var root txcodec.Hash32
	for _, b := range blobs {
		r, err := e.Append(b)
		if err != nil {
			return txcodec.Hash32{}, err
		}
		root = r
	}
	return root, nil
}

// Commit rewrites merkle_tree from the tree's current base layer,
// commits the write txn, and opens the next one.
func (e *Engine) Commit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st == stateClosed {
		return wrapErr("commit", kv.ErrIOError)
	}

	if err := e.log.CheckpointMerkle(e.wtxn); err != nil {
		e.abortAndReset("commit.checkpoint")
		return wrapErr("commit.checkpoint", err)
	}
	if err := e.wtxn.Commit(); err != nil {
		// bbolt has already unwound the transaction internally; resync
		// in-memory state to the last good commit and continue.
		e.beginFresh("commit.resync")
		return wrapErr("commit", err)
	}

	wtxn, err := e.env.WriteTxn()
	if err != nil {
		e.st = stateClosed
		return wrapErr("commit.begin_next", err)
	}
	e.wtxn = wtxn
	e.st = stateOpenIdle
	e.events.Publish(&events.Event{Type: events.EventCommitted, TxIndex: e.log.TxTotal()})
	return nil
}

// Rollback aborts the current write txn and opens a fresh one,
// resyncing in-memory Merkle state from disk. Rollback itself must not
// fail from the caller's point of view; if the substrate refuses to
// abort, the engine transitions to Closed and the error is fatal.
func (e *Engine) Rollback() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rollbackLocked()
}

func (e *Engine) rollbackLocked() error {
	if e.st == stateClosed {
		return wrapErr("rollback", kv.ErrIOError)
	}
	if err := e.wtxn.Abort(); err != nil {
		e.st = stateClosed
		e.env.Close()
		return wrapErr("rollback.abort", err)
	}
	err := e.beginFresh("rollback.begin")
	e.events.Publish(&events.Event{Type: events.EventRolledBack, TxIndex: e.log.TxTotal()})
	return err
}

// abortAndReset is Rollback's internal form, used after an Append or
// Commit failure; it logs nothing itself (the caller wraps the real
// error) and best-effort recovers engine state.
func (e *Engine) abortAndReset(op string) {
	_ = e.wtxn.Abort()
	_ = e.beginFresh(op)
}

// beginFresh opens a new write txn and resyncs in-memory state from it,
// transitioning to Closed on failure.
func (e *Engine) beginFresh(op string) error {
	wtxn, err := e.env.WriteTxn()
	if err != nil {
		e.st = stateClosed
		return wrapErr(op, err)
	}
	if err := e.resync(wtxn); err != nil {
		wtxn.Abort()
		e.st = stateClosed
		return wrapErr(op, err)
	}
	e.wtxn = wtxn
	e.st = stateOpenIdle
	return nil
}

// Close commits no pending work; callers must Commit or Rollback first.
// It aborts any live write txn and closes the underlying environment.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st == stateClosed {
		return nil
	}
	if e.wtxn != nil {
		_ = e.wtxn.Abort()
	}
	e.st = stateClosed
	e.events.Publish(&events.Event{Type: events.EventClosed})
	if e.events != nil {
		e.events.Stop()
	}
	if err := e.env.Close(); err != nil {
		return wrapErr("close", err)
	}
	return nil
}

// MerkleRoot returns the current root regardless of commit state.
func (e *Engine) MerkleRoot() txcodec.Hash32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.MerkleRoot()
}

// TxTotal returns the number of transactions appended so far, including
// any not yet committed.
func (e *Engine) TxTotal() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.TxTotal()
}
