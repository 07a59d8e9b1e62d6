package kv

import bolt "go.etcd.io/bbolt"

// Cursor iterates a Map's entries. For a plain map, each entry is one
// key/value pair. For a DupSort map, Cursor expands the key's ordered
// value set: First/Next/Last walk every (key, value) pair in order,
// while NextDup stays within the current key's dup group.
type Cursor struct {
	m         *Map
	top       *bolt.Cursor
	key       []byte
	sub       *bolt.Cursor
	subBucket *bolt.Bucket
	subKey    []byte
}

// Cursor opens a new cursor over m, scoped to m's owning transaction.
func (m *Map) Cursor() *Cursor {
	return &Cursor{m: m, top: m.bucket.Cursor()}
}

// First positions the cursor at the first entry.
func (c *Cursor) First() (key, value []byte, err error) {
	k, v := c.top.First()
	return c.settle(k, v, true)
}

// Last positions the cursor at the last entry.
func (c *Cursor) Last() (key, value []byte, err error) {
	k, v := c.top.Last()
	return c.settle(k, v, false)
}

// Next advances to the next entry: the next dup value under the current
// key if any remain, otherwise the first dup value of the next key.
func (c *Cursor) Next() (key, value []byte, err error) {
	if c.m.flags&DupSort != 0 && c.sub != nil {
		if sk, _ := c.sub.Next(); sk != nil {
			c.subKey = cloneBytes(sk)
			return cloneBytes(c.key), cloneBytes(sk), nil
		}
	}
	k, v := c.top.Next()
	return c.settle(k, v, true)
}

// Payload returns the value stored alongside the current dup entry
// (see Map.PutKeyed), as opposed to the dup sort key itself returned by
// First/Next/Last/NextDup. For a plain (non-DupSort) map it reports
// ErrNotDupSort.
func (c *Cursor) Payload() ([]byte, error) {
	if c.m.flags&DupSort == 0 {
		return nil, ErrNotDupSort
	}
	if c.subBucket == nil || c.subKey == nil {
		return nil, ErrNotFound
	}
	v := c.subBucket.Get(c.subKey)
	if v == nil {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

// NextDup advances to the next value under the same key, reporting
// ErrNotFound once the key's dup group is exhausted. For a plain map
// every call reports ErrNotFound.
func (c *Cursor) NextDup() (key, value []byte, err error) {
	if c.m.flags&DupSort == 0 || c.sub == nil {
		return nil, nil, ErrNotFound
	}
	sk, _ := c.sub.Next()
	if sk == nil {
		return nil, nil, ErrNotFound
	}
	c.subKey = cloneBytes(sk)
	return cloneBytes(c.key), cloneBytes(sk), nil
}

// Seek positions the cursor at the first entry with key >= target (for a
// DupSort map, at that key's first dup value).
func (c *Cursor) Seek(target []byte) (key, value []byte, err error) {
	k, v := c.top.Seek(target)
	return c.settle(k, v, true)
}

// settle resolves the current top-level position into a (key, value)
// pair, descending into the dup sub-bucket and optionally skipping
// forward past keys whose dup bucket turns out to be empty.
func (c *Cursor) settle(k, v []byte, forward bool) ([]byte, []byte, error) {
	if c.m.flags&DupSort == 0 {
		if k == nil {
			return nil, nil, ErrNotFound
		}
		return cloneBytes(k), cloneBytes(v), nil
	}
	for k != nil {
		sub := c.m.bucket.Bucket(k)
		if sub != nil {
			sc := sub.Cursor()
			var sk []byte
			if forward {
				sk, _ = sc.First()
			} else {
				sk, _ = sc.Last()
			}
			if sk != nil {
				c.key = cloneBytes(k)
				c.sub = sc
				c.subBucket = sub
				c.subKey = cloneBytes(sk)
				return cloneBytes(c.key), cloneBytes(sk), nil
			}
		}
		if forward {
			k, v = c.top.Next()
		} else {
			k, v = c.top.Prev()
		}
	}
	return nil, nil, ErrNotFound
}
