package kv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// Options configures an Env at open time. MaxSize is passed to bbolt as
// its initial mmap size and must be a multiple of the OS page size; it
// does not cap how large the file may grow. MaxNamedMaps records how many
// named maps the caller intends to open; bbolt has no map-count limit and
// Env does not enforce it.
type Options struct {
	MaxSize      int64
	MaxNamedMaps int
	ReadOnly     bool
}

const defaultFileName = "ametsuchi.db"

// Env is a single file-backed database environment. At most one write
// transaction may be live at a time; any number of read-only transactions
// may run concurrently against independent MVCC snapshots.
type Env struct {
	db   *bolt.DB
	path string
	opts Options

	writerMu sync.Mutex
	mapNames []string
	mapMu    sync.Mutex
}

// Open creates or opens the environment directory at path.
func Open(path string, opts Options) (*Env, error) {
	if pageSize := int64(os.Getpagesize()); opts.MaxSize > 0 && opts.MaxSize%pageSize != 0 {
		return nil, fmt.Errorf("kv: open env: max size %d is not a multiple of the page size %d", opts.MaxSize, pageSize)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create env dir: %w: %w", ErrIOError, err)
	}

	boltOpts := &bolt.Options{ReadOnly: opts.ReadOnly}
	if opts.MaxSize > 0 {
		boltOpts.InitialMmapSize = int(opts.MaxSize)
	}

	dbPath := filepath.Join(path, defaultFileName)
	db, err := bolt.Open(dbPath, 0o600, boltOpts)
	if err != nil {
		if errors.Is(err, bolt.ErrVersionMismatch) || errors.Is(err, bolt.ErrChecksum) || errors.Is(err, bolt.ErrInvalid) {
			return nil, fmt.Errorf("kv: open env: %w: %w", ErrVersionMismatch, err)
		}
		return nil, fmt.Errorf("kv: open env: %w: %w", ErrIOError, err)
	}

	return &Env{db: db, path: path, opts: opts}, nil
}

// Close releases the mmap'd file. It is a programmer error to call Close
// with a live write transaction outstanding.
func (e *Env) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("kv: close env: %w: %w", ErrIOError, err)
	}
	return nil
}

func (e *Env) registerMap(name string) {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()
	for _, n := range e.mapNames {
		if n == name {
			return
		}
	}
	e.mapNames = append(e.mapNames, name)
}

// MapStat is a point-in-time snapshot of one named map's size.
type MapStat struct {
	Name    string
	Entries int
}

// Stat returns per-map entry counts by opening a fresh read-only
// transaction and walking every map registered so far via OpenMap. It is
// intended for observability, not for the hot path.
func (e *Env) Stat() ([]MapStat, error) {
	rtxn, err := e.ReadTxn()
	if err != nil {
		return nil, err
	}
	defer rtxn.Close()

	e.mapMu.Lock()
	names := append([]string(nil), e.mapNames...)
	e.mapMu.Unlock()

	stats := make([]MapStat, 0, len(names))
	for _, name := range names {
		b := rtxn.tx.Bucket([]byte(name))
		if b == nil {
			continue
		}
		count := 0
		_ = b.ForEach(func(_, _ []byte) error {
			count++
			return nil
		})
		stats = append(stats, MapStat{Name: name, Entries: count})
	}
	return stats, nil
}
