/*
Package tree maintains the document-id <-> path mapping and the
hierarchical node tree built on top of it. It is a cache, never the source
of truth. Index does not append NodeOp entries for its own changes, so a
lost index is not rebuilt by replaying the ledger: paths are registered
again as they are observed, and ResolveOrRecover restores a path's
original DocID when its content carries "uuid:" frontmatter.

# No bidirectional graph

Nodes store only a ParentID; there is no owning list of children. A node's
children are found by scanning the paths bucket for entries whose path has
the node's path as a directory prefix. This avoids the cyclic-reference
hazard of a parent/child owning graph (see the project's design notes on
avoiding bidirectional ownership for derivable trees).

# Deltas

An Index built with NewIndexWithBroker publishes a Delta on every
structural change (Added from Register, Moved from Rename, Removed from
DeletePrefix) so that watchers can react incrementally instead of
re-scanning the whole tree after every edit. Index never publishes
DeltaModified.
*/
package tree
