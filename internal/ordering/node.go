package ordering

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"github.com/cuemby/ametsuchi/internal/ledger"
)

// Node wraps a Raft group replicating Append calls against a single
// ledger engine. It is the seam between consensus/ordering (out of the
// core engine's scope) and storage.
type Node struct {
	nodeID   string
	bindAddr string
	dataDir  string

	raft *raft.Raft
	fsm  *FSM
}

// Config holds the fields needed to stand up a Node.
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string
}

// NewNode wires a Raft group around engine; it does not start or join a
// cluster by itself (see Bootstrap/Join).
func NewNode(cfg Config, engine *ledger.Engine) (*Node, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ordering: create data dir: %w", err)
	}
	return &Node{
		nodeID:   cfg.NodeID,
		bindAddr: cfg.BindAddr,
		dataDir:  cfg.DataDir,
		fsm:      NewFSM(engine),
	}, nil
}

func raftConfig(nodeID string) *raft.Config {
	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(nodeID)

	// Tuned for LAN deployments between peer nodes rather than raft's
	// WAN-conservative defaults.
	config.HeartbeatTimeout = 500 * time.Millisecond
	config.ElectionTimeout = 500 * time.Millisecond
	config.CommitTimeout = 50 * time.Millisecond
	config.LeaderLeaseTimeout = 250 * time.Millisecond
	return config
}

func (n *Node) start() (*raft.Raft, *raft.NetworkTransport, error) {
	config := raftConfig(n.nodeID)

	addr, err := net.ResolveTCPAddr("tcp", n.bindAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("ordering: resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(n.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("ordering: create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(n.dataDir, 2, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("ordering: create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(n.dataDir, "raft-log.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("ordering: create log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(n.dataDir, "raft-stable.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("ordering: create stable store: %w", err)
	}

	r, err := raft.NewRaft(config, n.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, nil, fmt.Errorf("ordering: create raft: %w", err)
	}
	return r, transport, nil
}

// Bootstrap starts a brand new single-node Raft group with this node as
// its only member.
func (n *Node) Bootstrap() error {
	r, transport, err := n.start()
	if err != nil {
		return err
	}
	n.raft = r

	configuration := raft.Configuration{
		Servers: []raft.Server{
			{ID: raft.ServerID(n.nodeID), Address: transport.LocalAddr()},
		},
	}
	if err := n.raft.BootstrapCluster(configuration).Error(); err != nil {
		return fmt.Errorf("ordering: bootstrap cluster: %w", err)
	}
	return nil
}

// Join starts Raft on this node without bootstrapping a configuration;
// the current leader is expected to add this node as a voter out of band
// (see AddVoter).
func (n *Node) Join() error {
	r, _, err := n.start()
	if err != nil {
		return err
	}
	n.raft = r
	return nil
}

// AddVoter is called on the current leader to admit a new node.
func (n *Node) AddVoter(id, addr string) error {
	if n.raft.State() != raft.Leader {
		return fmt.Errorf("ordering: not leader")
	}
	return n.raft.AddVoter(raft.ServerID(id), raft.ServerAddress(addr), 0, 10*time.Second).Error()
}

// Apply proposes a batch of already-encoded transaction blobs to the
// Raft group and blocks until it is committed and applied to the ledger
// engine, returning the resulting Merkle root.
func (n *Node) Apply(blobs [][]byte, timeout time.Duration) (interface{}, error) {
	if n.raft.State() != raft.Leader {
		return nil, fmt.Errorf("ordering: not leader")
	}
	payload, err := EncodeBatch(blobs)
	if err != nil {
		return nil, fmt.Errorf("ordering: encode batch: %w", err)
	}
	future := n.raft.Apply(payload, timeout)
	if err := future.Error(); err != nil {
		return nil, fmt.Errorf("ordering: apply: %w", err)
	}
	resp := future.Response()
	if err, ok := resp.(error); ok {
		return nil, err
	}
	return resp, nil
}

// IsLeader reports whether this node currently holds Raft leadership.
func (n *Node) IsLeader() bool {
	return n.raft != nil && n.raft.State() == raft.Leader
}

// Shutdown stops the Raft group.
func (n *Node) Shutdown() error {
	if n.raft == nil {
		return nil
	}
	return n.raft.Shutdown().Error()
}
