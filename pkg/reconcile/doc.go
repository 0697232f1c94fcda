/*
Package reconcile computes the ledger ops needed to bring a document's
reconstructed content in line with some other observed version of that
content — canonically a file on disk that a watcher noticed changed
out-of-band, but the same function serves pkg/sync's automatic-merge fold,
where the "other" content is a peer's reconstructed shadow state.

ComputeReconcileOps normalizes line endings before diffing (CRLF -> LF) so
that a platform line-ending difference never manufactures a spurious op,
then defers to pkg/opstate's UTF-16 diff for everything else. See the
doc comment on ComputeReconcileOps for a caveat on UTF-16 vs UTF-8 that
this package flags rather than resolves, per the project's Design Notes on
not silently fixing the ambiguity.
*/
package reconcile
