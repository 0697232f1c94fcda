/*
Package ledger owns the on-disk partition layout for a repository: one
local, authoritative partition and one shadow partition per remote peer,
organized as a two-level keyspace:

	local/{repo_id}.db
	remotes/{peer_id}/{repo_id}.db

Local partitions are the only writer a host process should ever append to
directly; shadow partitions are written only by the sync engine mirroring
a remote peer's own log. Manager does not enforce that boundary in the
type system (both are *storage.SeqStore), but AppendLocal, AppendRemote and
AppendRemoteAt are the only entry points callers should use.
*/
package ledger
