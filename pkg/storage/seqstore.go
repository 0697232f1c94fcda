package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketLedgerOps = []byte("ledger_ops")
	bucketSnapshots = []byte("snapshots")
	bucketNodes     = []byte("nodes")
	bucketPaths     = []byte("paths")
	bucketCommits   = []byte("commits")

	allBuckets = [][]byte{
		bucketLedgerOps,
		bucketSnapshots,
		bucketNodes,
		bucketPaths,
		bucketCommits,
	}
)

// SeqStore is a key-ordered, transactional store keyed by a monotone
// uint64 sequence in its ledger_ops bucket, plus auxiliary buckets shared
// by the snapshot cache, node index, and source-control layer.
type SeqStore struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if absent) the BoltDB file at dir/name.db and
// ensures all buckets exist.
func Open(dir, name string) (*SeqStore, error) {
	path := filepath.Join(dir, name+".db")

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("storage: create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SeqStore{db: db, path: path}, nil
}

// Close closes the underlying database file.
func (s *SeqStore) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the backing .db file.
func (s *SeqStore) Path() string {
	return s.path
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func keySeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

// Append atomically allocates the next sequence number (max+1, or 1 if the
// bucket is empty) and stores value under it. It returns the assigned
// sequence.
func (s *SeqStore) Append(value []byte) (uint64, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedgerOps)
		seq = 1
		if k, _ := b.Cursor().Last(); k != nil {
			seq = keySeq(k) + 1
		}
		return b.Put(seqKey(seq), value)
	})
	return seq, err
}

// AppendWithSeq allocates the next sequence number and stores the bytes
// build returns for it, all within a single transaction. Unlike Append,
// the value to store can depend on the sequence it will occupy — used by
// callers that seal data with the sequence as associated data and must
// know the real slot before sealing it.
func (s *SeqStore) AppendWithSeq(build func(seq uint64) ([]byte, error)) (uint64, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedgerOps)
		next := uint64(1)
		if k, _ := b.Cursor().Last(); k != nil {
			next = keySeq(k) + 1
		}
		value, err := build(next)
		if err != nil {
			return err
		}
		seq = next
		return b.Put(seqKey(seq), value)
	})
	return seq, err
}

// AppendAt stores value under an explicit sequence number, failing if a
// value already occupies that slot. Used by the sync engine to mirror a
// remote peer's own ops into a shadow partition under that peer's own
// sequence numbers, rather than renumbering them into the local sequence
// space (see pkg/ledger.Manager.AppendRemoteAt).
func (s *SeqStore) AppendAt(seq uint64, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedgerOps)
		if b.Get(seqKey(seq)) != nil {
			return fmt.Errorf("storage: sequence %d already occupied", seq)
		}
		return b.Put(seqKey(seq), value)
	})
}

// RangeSlice returns every (seq, value) pair in the ledger_ops bucket with
// lo <= seq < hi, in ascending order.
func (s *SeqStore) RangeSlice(lo, hi uint64) ([]SeqValue, error) {
	var out []SeqValue
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedgerOps)
		c := b.Cursor()
		for k, v := c.Seek(seqKey(lo)); k != nil; k, v = c.Next() {
			seq := keySeq(k)
			if seq >= hi {
				break
			}
			value := make([]byte, len(v))
			copy(value, v)
			out = append(out, SeqValue{Seq: seq, Value: value})
		}
		return nil
	})
	return out, err
}

// MaxSeq returns the highest sequence number stored, or 0 if the bucket is
// empty.
func (s *SeqStore) MaxSeq() (uint64, error) {
	var max uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedgerOps)
		k, _ := b.Cursor().Last()
		if k != nil {
			max = keySeq(k)
		}
		return nil
	})
	return max, err
}

// SeqValue pairs a sequence number with its raw stored bytes.
type SeqValue struct {
	Seq   uint64
	Value []byte
}

// View runs fn inside a read-only transaction against an auxiliary bucket.
func (s *SeqStore) View(bucket []byte, fn func(b *bolt.Bucket) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(bucket))
	})
}

// Update runs fn inside a read-write transaction against an auxiliary
// bucket.
func (s *SeqStore) Update(bucket []byte, fn func(b *bolt.Bucket) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(bucket))
	})
}

// Bucket name accessors for packages that need to address an auxiliary
// bucket by name without importing bolt directly.
func BucketSnapshots() []byte { return bucketSnapshots }
func BucketNodes() []byte     { return bucketNodes }
func BucketPaths() []byte     { return bucketPaths }
func BucketCommits() []byte   { return bucketCommits }
