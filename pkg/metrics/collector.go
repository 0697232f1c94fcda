package metrics

import (
	"time"

	"github.com/cuemby/driftnote/pkg/types"
)

// MaxSeqSource is the slice of ledger.Manager's surface the collector
// needs. Expressed as a local interface, rather than importing
// pkg/ledger directly, since pkg/ledger's own reconstruction path needs
// this package's counters (snapshot writes, cache hits) and a direct
// import back here would cycle.
type MaxSeqSource interface {
	MaxSeqLocal(repoID types.RepoID) (uint64, error)
	ShadowPartitionCount() int
}

// Collector periodically samples gauge-style metrics that aren't naturally
// updated at the call site (ledger max sequence per repo, open shadow
// partition count). Counter-style metrics (appends, sync applies, merge
// outcomes, commits) are incremented directly by their owning package.
type Collector struct {
	mgr     MaxSeqSource
	repoIDs []types.RepoID
	stopCh  chan struct{}
}

// NewCollector creates a collector that samples mgr's local partitions for
// the given repoIDs on a fixed interval.
func NewCollector(mgr MaxSeqSource, repoIDs []types.RepoID) *Collector {
	return &Collector{
		mgr:     mgr,
		repoIDs: repoIDs,
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics in the background.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for _, repoID := range c.repoIDs {
		maxSeq, err := c.mgr.MaxSeqLocal(repoID)
		if err != nil {
			continue
		}
		LedgerMaxSeq.WithLabelValues(repoID.String()).Set(float64(maxSeq))
	}
	ShadowPartitionsOpen.Set(float64(c.mgr.ShadowPartitionCount()))
}
