/*
Package kv provides the transactional key-value substrate the ledger
engine is built on: a single mmap'd file holding a set of named maps,
one live write transaction at a time, any number of concurrent read-only
snapshots, and cursors over both plain and duplicate-key ("dup-sorted")
maps.

# Architecture

	┌──────────────────────── Env (one file) ─────────────────────────┐
	│                                                                   │
	│   ┌───────────────┐        ┌───────────────┐    ┌─────────────┐ │
	│   │   WTxn (0..1) │        │  RTxn (0..N)  │    │  RTxn (0..N)│ │
	│   │  mutates maps │        │  MVCC snapshot│    │ MVCC snapshot│ │
	│   └───────┬───────┘        └───────┬───────┘    └──────┬──────┘ │
	│           │                        │                    │        │
	│           ▼                        ▼                    ▼        │
	│   ┌───────────────────────────────────────────────────────────┐ │
	│   │  named maps: tx_store, merkle_tree, index_*, accounts, …  │ │
	│   │  (bbolt buckets; dup-sort maps = bucket-of-buckets)        │ │
	│   └───────────────────────────────────────────────────────────┘ │
	└───────────────────────────────────────────────────────────────────┘

Dup-sorted maps model "one key maps to an ordered set of values" as a
bucket per primary key, whose own keys are the dup values — bbolt keeps
bucket keys in byte order, which gives the ordered iteration the
contract requires, and TxIndex values are stored big-endian so byte
order matches numeric order.

Only one write transaction may be open at a time (enforced by a mutex
on Env); any number of read-only transactions may run concurrently and
see a consistent snapshot as of the moment they began.
*/
package kv
