// Package ordering adapts the storage engine to an external consensus
// log. Ordering and replication are explicitly out of the engine's core
// scope; this package is the thin seam a Raft-replicated log plugs into,
// grounded on the same FSM shape the cluster-state manager used for its
// own Raft integration, narrowed to a single linear apply instead of a
// multi-resource store.
package ordering

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/raft"

	"github.com/cuemby/ametsuchi/internal/ledger"
	"github.com/cuemby/ametsuchi/internal/obs/log"
)

// FSM implements raft.FSM by applying each committed log entry's payload,
// a batch of transaction blobs, through the ledger engine's AppendBatch
// and committing once per entry.
type FSM struct {
	mu     sync.Mutex
	engine *ledger.Engine
}

// NewFSM wraps engine for Raft apply.
func NewFSM(engine *ledger.Engine) *FSM {
	return &FSM{engine: engine}
}

// batch is the Raft log entry payload: one or more already-encoded
// transaction blobs delivered together by the proposer.
type batch struct {
	Blobs [][]byte `json:"blobs"`
}

// EncodeBatch is the inverse of the decoding Apply performs, used by
// proposers (or the operator CLI) to build a raft.Apply payload.
func EncodeBatch(blobs [][]byte) ([]byte, error) {
	return json.Marshal(batch{Blobs: blobs})
}

// Apply unmarshals the log entry's data into a batch of transaction
// blobs, forwards them to the ledger engine in order, and commits the
// whole batch atomically, returning the new Merkle root (or an error,
// which Raft surfaces back to the proposer via the apply future).
func (f *FSM) Apply(entry *raft.Log) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	var b batch
	if err := json.Unmarshal(entry.Data, &b); err != nil {
		log.WithComponent("ordering").Error().Err(err).Uint64("raft_index", entry.Index).Msg("malformed batch")
		return fmt.Errorf("ordering: malformed batch: %w", err)
	}

	root, err := f.engine.AppendBatch(b.Blobs)
	if err != nil {
		log.WithComponent("ordering").Error().Err(err).Uint64("raft_index", entry.Index).Msg("append failed")
		return err
	}
	if err := f.engine.Commit(); err != nil {
		log.WithComponent("ordering").Error().Err(err).Uint64("raft_index", entry.Index).Msg("commit failed")
		return err
	}
	return root
}

// watermark is the Raft snapshot payload: just enough to let a restored
// node detect it restarted from an intact engine, since the actual
// world-state and transaction log already persist durably in the
// engine's own KV file independent of Raft's log compaction.
type watermark struct {
	TxTotal    uint64 `json:"tx_total"`
	MerkleRoot string `json:"merkle_root"`
}

// Snapshot records the current watermark; FSMSnapshot.Persist writes it
// out verbatim. Raft may then safely truncate its own log up to this
// point, since the engine's KV file is the real source of truth.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	root := f.engine.MerkleRoot()
	return &fsmSnapshot{watermark{
		TxTotal:    f.engine.TxTotal(),
		MerkleRoot: fmt.Sprintf("%x", root[:]),
	}}, nil
}

// Restore is a no-op check: the engine's own storage file already holds
// the durable state, so a restored node only needs to verify it isn't
// starting from a different transaction count than the snapshot claims.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	var w watermark
	if err := json.NewDecoder(rc).Decode(&w); err != nil {
		return fmt.Errorf("ordering: decode snapshot: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if got := f.engine.TxTotal(); got != w.TxTotal {
		return fmt.Errorf("ordering: restore watermark mismatch: engine has %d transactions, snapshot expects %d", got, w.TxTotal)
	}
	return nil
}

type fsmSnapshot struct {
	w watermark
}

func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s.w); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

func (s *fsmSnapshot) Release() {}
