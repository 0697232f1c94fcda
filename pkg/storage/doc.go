/*
Package storage provides the key-ordered, transactional store that backs
every ledger partition. It is a thin, domain-specific layer over BoltDB
(go.etcd.io/bbolt): one SeqStore wraps one .db file and exposes a single
monotone-sequence keyspace for ledger operations plus auxiliary buckets for
snapshots, the node/path index, and source-control commits.

# Buckets

	ledger_ops : u64 (big-endian) -> bytes   (encrypted LedgerEntry)
	snapshots  : bytes            -> bytes   (DocID||seq -> content)
	nodes      : bytes            -> bytes   (DocID -> path)
	paths      : bytes            -> bytes   (path -> NodeMeta JSON, incl. DocID)
	commits    : u64 (big-endian) -> bytes   (commit counter -> CommitInfo + snapshot JSON)

All buckets are created on first open, matching the project's existing
BoltDB-backed store: CreateBucketIfNotExists for every known bucket, a
single db.Update at construction time.

# Transactions

Reads use db.View (concurrent, snapshot-isolated); writes use db.Update
(serialized by BoltDB itself). SeqStore adds nothing on top of BoltDB's own
single-writer guarantee — the RWMutex that guards partition lookup lives a
layer up, in pkg/ledger, because BoltDB already serializes writers within
one file.
*/
package storage
