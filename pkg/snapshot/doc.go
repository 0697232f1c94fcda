/*
Package snapshot implements the materialized-content checkpoint cache (C5)
and the adaptive policy that decides when to write one (C11).

Snapshots are advisory: removing all of them must never change what
ReconstructContent computes from the full op log, because reconstruction
always falls back to folding from seq 0 when no usable snapshot exists.
They exist purely so that reconstructing a long-lived, heavily-edited
document doesn't require replaying its entire history on every read.

# Policy

ShouldSnapshot implements the adaptive interval formula: the snapshot
cadence tightens (16 ops) for very large documents or when the last open
was slow, and loosens (64 ops) for small, fast-opening documents — a
document that takes longer to reconstruct from scratch is worth
checkpointing more often.
*/
package snapshot
