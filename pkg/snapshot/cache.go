package snapshot

import (
	"bytes"
	"encoding/binary"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/driftnote/pkg/metrics"
	"github.com/cuemby/driftnote/pkg/storage"
	"github.com/cuemby/driftnote/pkg/types"
)

// Snapshot is a cached materialized-content checkpoint for one document at
// a given sequence.
type Snapshot struct {
	DocID   types.DocID
	UpToSeq uint64
	Content string
}

func key(docID types.DocID, seq uint64) []byte {
	buf := make([]byte, 16+8)
	docBytes, _ := docID.MarshalBinary()
	copy(buf, docBytes)
	binary.BigEndian.PutUint64(buf[16:], seq)
	return buf
}

func prefix(docID types.DocID) []byte {
	b, _ := docID.MarshalBinary()
	return b
}

func seqFromKey(k []byte) uint64 {
	return binary.BigEndian.Uint64(k[16:])
}

// Save writes a snapshot for docID at upToSeq, then prunes older
// snapshots for that document beyond depth.
func Save(store *storage.SeqStore, docID types.DocID, upToSeq uint64, content string, depth int) error {
	err := store.Update(storage.BucketSnapshots(), func(b *bolt.Bucket) error {
		return b.Put(key(docID, upToSeq), []byte(content))
	})
	if err != nil {
		return err
	}
	metrics.SnapshotWritesTotal.Inc()
	return Prune(store, docID, depth)
}

// LoadLatest returns the newest snapshot with UpToSeq <= target, if any.
func LoadLatest(store *storage.SeqStore, docID types.DocID, target uint64) (Snapshot, bool, error) {
	p := prefix(docID)
	var best Snapshot
	found := false

	err := store.View(storage.BucketSnapshots(), func(b *bolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			seq := seqFromKey(k)
			if seq > target {
				continue
			}
			if !found || seq > best.UpToSeq {
				found = true
				best = Snapshot{DocID: docID, UpToSeq: seq, Content: string(v)}
			}
		}
		return nil
	})
	if found {
		metrics.SnapshotCacheHits.Inc()
	}
	return best, found, err
}

// Prune drops the oldest snapshots for docID beyond depth, keeping the
// `depth` most recent. depth <= 0 disables pruning.
func Prune(store *storage.SeqStore, docID types.DocID, depth int) error {
	if depth <= 0 {
		return nil
	}
	p := prefix(docID)

	return store.Update(storage.BucketSnapshots(), func(b *bolt.Bucket) error {
		var seqs []uint64
		c := b.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			seqs = append(seqs, seqFromKey(k))
		}
		if len(seqs) <= depth {
			return nil
		}
		sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
		toDrop := seqs[:len(seqs)-depth]
		for _, seq := range toDrop {
			if err := b.Delete(key(docID, seq)); err != nil {
				return err
			}
		}
		return nil
	})
}
