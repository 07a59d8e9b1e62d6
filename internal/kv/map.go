package kv

import (
	bolt "go.etcd.io/bbolt"
)

// Flags select a named map's key/value discipline.
type Flags uint8

const (
	// IntegerKey marks a map whose keys are compared as big-endian
	// 64-bit integers rather than raw bytes (the caller is responsible
	// for encoding keys this way; see EncodeUint64).
	IntegerKey Flags = 1 << iota
	// DupSort marks a map where a single key may carry an ordered set
	// of values instead of exactly one.
	DupSort
	// DupFixed marks a DupSort map whose values all share one length,
	// enabling more compact storage in a real MDBX; here it is
	// documentation only: Put does not check value lengths.
	DupFixed
	// Create creates the map if it does not already exist. Valid only
	// when opening through a WTxn.
	Create
)

// Mode selects Put's overwrite behavior.
type Mode int

const (
	// Overwrite replaces any existing value (or, for DupSort, inserts
	// the value into the key's ordered set if absent).
	Overwrite Mode = iota
	// NoOverwrite fails with ErrKeyExists if the key (or, for DupSort,
	// the exact key/value pair) is already present.
	NoOverwrite
	// Append is a fast path for monotonically increasing keys; the
	// substrate does not re-validate ordering, so misuse silently
	// behaves like Overwrite.
	Append
)

// Map is a handle to one named map, scoped to the transaction that
// opened it. It must not be used after that transaction ends.
type Map struct {
	name     string
	flags    Flags
	bucket   *bolt.Bucket
	writable bool
}

// Name returns the map's name.
func (m *Map) Name() string { return m.name }

// Put inserts or updates key/value according to mode.
func (m *Map) Put(key, value []byte, mode Mode) error {
	if !m.writable {
		return ErrReadOnly
	}
	if m.flags&DupSort != 0 {
		return m.putDup(key, value, mode)
	}
	if mode == NoOverwrite {
		if m.bucket.Get(key) != nil {
			return ErrKeyExists
		}
	}
	if err := m.bucket.Put(key, value); err != nil {
		return mapBucketErr(err)
	}
	return nil
}

func (m *Map) putDup(key, value []byte, mode Mode) error {
	return m.putDupKeyed(key, value, dupMarker, mode)
}

// putDupKeyed stores payload under dupKey within key's ordered set. The
// dup value lives as the nested bucket's key, so iteration visits dup
// entries in dupKey order; payload is the nested bucket's value for
// that key, letting a dup-sorted row carry content beyond its sort key
// (e.g. account_assets, where dupKey is (ledger,domain,name) and payload
// is the full encoded AccountAsset).
func (m *Map) putDupKeyed(key, dupKey, payload []byte, mode Mode) error {
	sub, err := m.bucket.CreateBucketIfNotExists(key)
	if err != nil {
		return mapBucketErr(err)
	}
	if mode == NoOverwrite && sub.Get(dupKey) != nil {
		return ErrKeyExists
	}
	if err := sub.Put(dupKey, payload); err != nil {
		return mapBucketErr(err)
	}
	return nil
}

var dupMarker = []byte{1}

// PutKeyed stores payload under dupKey within key's ordered set, for a
// DupSort map whose dup comparator should only consider a prefix of the
// logical value (dupKey) while the map also needs to retain the full
// row (payload). See putDupKeyed.
func (m *Map) PutKeyed(key, dupKey, payload []byte, mode Mode) error {
	if !m.writable {
		return ErrReadOnly
	}
	if m.flags&DupSort == 0 {
		return ErrNotDupSort
	}
	return m.putDupKeyed(key, dupKey, payload, mode)
}

// GetKeyed returns the payload stored under dupKey within key's ordered
// set (see PutKeyed). ErrNotFound is a normal, non-fatal outcome.
func (m *Map) GetKeyed(key, dupKey []byte) ([]byte, error) {
	if m.flags&DupSort == 0 {
		return nil, ErrNotDupSort
	}
	sub := m.bucket.Bucket(key)
	if sub == nil {
		return nil, ErrNotFound
	}
	v := sub.Get(dupKey)
	if v == nil {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

// DeleteKeyed removes a single dupKey entry within key's ordered set.
func (m *Map) DeleteKeyed(key, dupKey []byte) error {
	if !m.writable {
		return ErrReadOnly
	}
	if m.flags&DupSort == 0 {
		return ErrNotDupSort
	}
	sub := m.bucket.Bucket(key)
	if sub == nil || sub.Get(dupKey) == nil {
		return ErrNotFound
	}
	if err := sub.Delete(dupKey); err != nil {
		return mapBucketErr(err)
	}
	return nil
}

// Get returns the value for key (for DupSort maps, the first value in
// the key's ordered set). ErrNotFound is a normal, non-fatal outcome.
func (m *Map) Get(key []byte) ([]byte, error) {
	if m.flags&DupSort != 0 {
		sub := m.bucket.Bucket(key)
		if sub == nil {
			return nil, ErrNotFound
		}
		k, _ := sub.Cursor().First()
		if k == nil {
			return nil, ErrNotFound
		}
		return cloneBytes(k), nil
	}
	v := m.bucket.Get(key)
	if v == nil {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

// Delete removes key (and, for DupSort maps, every value under it).
func (m *Map) Delete(key []byte) error {
	if !m.writable {
		return ErrReadOnly
	}
	if m.flags&DupSort != 0 {
		if m.bucket.Bucket(key) == nil {
			return ErrNotFound
		}
		if err := m.bucket.DeleteBucket(key); err != nil {
			return mapBucketErr(err)
		}
		return nil
	}
	if m.bucket.Get(key) == nil {
		return ErrNotFound
	}
	if err := m.bucket.Delete(key); err != nil {
		return mapBucketErr(err)
	}
	return nil
}

// DeleteDup removes a single dup value under key, leaving any other
// values in place.
func (m *Map) DeleteDup(key, value []byte) error {
	if !m.writable {
		return ErrReadOnly
	}
	if m.flags&DupSort == 0 {
		return m.Delete(key)
	}
	sub := m.bucket.Bucket(key)
	if sub == nil || sub.Get(value) == nil {
		return ErrNotFound
	}
	if err := sub.Delete(value); err != nil {
		return mapBucketErr(err)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func mapBucketErr(err error) error {
	if err == nil {
		return nil
	}
	switch err {
	case bolt.ErrBucketNotFound:
		return ErrNotFound
	case bolt.ErrValueTooLarge, bolt.ErrTxNotWritable:
		return ErrTxnFull
	default:
		return ErrIOError
	}
}

// EncodeUint64 big-endian encodes v so that byte-order comparison matches
// numeric order — used for IntegerKey/DupFixed TxIndex keys and values.
func EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// DecodeUint64 is the inverse of EncodeUint64.
func DecodeUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
