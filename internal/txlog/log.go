// Package txlog implements the transaction log (§4.4): a monotonic
// append of serialized transactions, their per-command and
// per-participant secondary indices, and the narrow Merkle tree's
// point-in-time root computation. It is grounded on the same append/FSM
// discipline the teacher's Raft FSM uses for its log, narrowed to a
// single linear commit log instead of a replicated one.
package txlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cuemby/ametsuchi/internal/kv"
	"github.com/cuemby/ametsuchi/internal/merkle"
	"github.com/cuemby/ametsuchi/internal/txcodec"
)

// opener is satisfied by both *kv.WTxn and *kv.RTxn: queries may run
// inside the current write txn (uncommitted visible) or a fresh
// read-only txn (committed only), per §4.4's Queries paragraph.
type opener interface {
	OpenMap(name string, flags kv.Flags) (*kv.Map, error)
}

// Log is the transaction log's in-process handle: the monotonic
// tx_total counter and the in-memory narrow Merkle tree. The named maps
// themselves live in the KV substrate and are opened per call against
// whichever txn the caller supplies.
type Log struct {
	txTotal uint64
	merkle  *merkle.Tree
}

// New creates a transaction log backed by a Merkle tree of the given
// fan-out and base-level capacity.
func New(fanout, baseCapacity int, h merkle.HashFunc) *Log {
	return &Log{merkle: merkle.New(fanout, baseCapacity, h)}
}

// TxTotal returns the number of transactions ever appended.
func (l *Log) TxTotal() uint64 { return l.txTotal }

// SetTxTotal seeds the counter from the last key of tx_store on
// startup, per §4.6's "new(path)" contract.
func (l *Log) SetTxTotal(n uint64) { l.txTotal = n }

// MerkleRoot returns the current root regardless of commit state.
func (l *Log) MerkleRoot() txcodec.Hash32 {
	return txcodec.Hash32(l.merkle.Root())
}

// TruncateMerkle drops the in-memory Merkle state back to at most n
// leaves (see merkle.Tree.Drop). The engine's rollback does not call it;
// it always rebuilds from disk via InitMerkleTree.
func (l *Log) TruncateMerkle(n uint64) (uint64, error) {
	return l.merkle.Drop(n)
}

// InitMerkleTree rebuilds Merkle state by scanning merkle_tree in
// ascending key order. The engine calls it on startup and on every
// rollback or failed append/commit.
func (l *Log) InitMerkleTree(txn opener) error {
	m, err := txn.OpenMap(MapMerkleTree, kv.IntegerKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			l.merkle.Seed(nil)
			return nil
		}
		return err
	}
	var values []merkle.Hash
	cur := m.Cursor()
	k, v, err := cur.First()
	for err == nil {
		var h merkle.Hash
		copy(h[:], v)
		values = append(values, h)
		k, v, err = cur.Next()
		_ = k
	}
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return err
	}
	l.merkle.Seed(values)
	return nil
}

// CheckpointMerkle rewrites the merkle_tree map from the tree's current
// level-0 layer in ascending index order, per commit step (i) in §4.6.
func (l *Log) CheckpointMerkle(wtxn *kv.WTxn) error {
	if err := wtxn.DeleteMap(MapMerkleTree); err != nil {
		return err
	}
	m, err := wtxn.OpenMap(MapMerkleTree, kv.IntegerKey|kv.Create)
	if err != nil {
		return err
	}
	for i, h := range l.merkle.Level0() {
		key := kv.EncodeUint64(uint64(i))
		if err := m.Put(key, h[:], kv.Append); err != nil {
			return err
		}
	}
	return nil
}

// Append parses blob, assigns it the next TxIndex, stores it in
// tx_store, inserts it into the relevant secondary indices, folds its
// hash into the Merkle tree, and returns the new root. Any failure
// leaves no partial write: the caller must abort the enclosing write
// txn (see the engine façade's append/commit contract).
func (l *Log) Append(wtxn *kv.WTxn, blob []byte) (txcodec.Hash32, *txcodec.Transaction, error) {
	tx, err := txcodec.ParseTransaction(blob)
	if err != nil {
		return txcodec.Hash32{}, nil, fmt.Errorf("%w: %v", ErrWrongCommand, err)
	}
	// Hash32 decoding zero-pads a short hash and drops extra bytes, so
	// the embedded hash's length is checked on the raw blob.
	var rawHash struct {
		Hash []json.RawMessage `json:"hash"`
	}
	if err := json.Unmarshal(blob, &rawHash); err != nil || len(rawHash.Hash) != len(tx.Hash) {
		return txcodec.Hash32{}, nil, ErrHashSize
	}

	store, err := wtxn.OpenMap(MapTxStore, kv.IntegerKey|kv.Create)
	if err != nil {
		return txcodec.Hash32{}, nil, err
	}

	idx := l.txTotal + 1
	key := kv.EncodeUint64(idx)
	if err := store.Put(key, blob, kv.Append); err != nil {
		return txcodec.Hash32{}, nil, err
	}

	if err := l.index(wtxn, tx, idx); err != nil {
		return txcodec.Hash32{}, nil, err
	}

	l.txTotal = idx
	root := l.merkle.Add(merkle.Hash(tx.Hash))
	return txcodec.Hash32(root), tx, nil
}

// LastTxIndex returns the highest key stored in tx_store, or 0 if empty.
// Used on startup and after abort/rollback to resynchronize TxTotal.
func LastTxIndex(txn opener) (uint64, error) {
	store, err := txn.OpenMap(MapTxStore, kv.IntegerKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	cur := store.Cursor()
	k, _, err := cur.Last()
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return kv.DecodeUint64(k), nil
}

func (l *Log) index(wtxn *kv.WTxn, tx *txcodec.Transaction, idx uint64) error {
	idxVal := kv.EncodeUint64(idx)

	put := func(mapName string, pubkey []byte) error {
		m, err := wtxn.OpenMap(mapName, kv.DupSort|kv.DupFixed|kv.Create)
		if err != nil {
			return err
		}
		return m.Put(pubkey, idxVal, kv.Overwrite)
	}

	for _, name := range indexFor(tx.Command) {
		if err := put(name, tx.Creator); err != nil {
			return err
		}
	}

	if xfer, ok := tx.Command.(txcodec.AssetTransfer); ok {
		if err := put(IndexTransferSender, xfer.Sender); err != nil {
			return err
		}
		if err := put(IndexTransferReceiver, xfer.Receiver); err != nil {
			return err
		}
	}

	return nil
}

// GetByKey returns the transaction blobs referenced by index's ordered
// entries for pubkey, dereferenced through tx_store, in ascending
// TxIndex order. txn may be the current write txn (uncommitted visible)
// or a fresh read-only txn (committed only).
func (l *Log) GetByKey(txn opener, index string, pubkey []byte) ([][]byte, error) {
	idxMap, err := txn.OpenMap(index, kv.DupSort|kv.DupFixed)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	store, err := txn.OpenMap(MapTxStore, kv.IntegerKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	cur := idxMap.Cursor()
	k, v, err := cur.Seek(pubkey)
	if err != nil || !bytes.Equal(k, pubkey) {
		return nil, nil
	}

	var out [][]byte
	for {
		blob, err := store.Get(v)
		if err != nil {
			return nil, err
		}
		out = append(out, blob)
		k, v, err = cur.NextDup()
		if err != nil {
			break
		}
		_ = k
	}
	return out, nil
}
