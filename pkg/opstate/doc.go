/*
Package opstate implements the op algebra and content-reconstruction
arithmetic for the ledger: folding a sequence of LedgerEntry values into
the document content they describe, and computing the minimal Insert/
Delete ops that transform one string into another.

# UTF-16 positional semantics

Every Pos and Len field in an Op is a UTF-16 code-unit offset, never a byte
or rune offset. This mirrors the reference front-end's cursor API, which is
UTF-16 native (JavaScript strings), so offsets round-trip between the
editor and the ledger with no re-indexing at the boundary.

# Clamping and corruption

ReconstructContent never fails: an Insert or Delete whose Pos (or Pos+Len)
falls beyond the current content is clamped to the content's bounds,
because entries from a diverged replica may legitimately address positions
that don't exist locally yet. The one thing that IS rejected is an op that
would split a UTF-16 surrogate pair — ReconstructWithQuarantine reports
those entries separately rather than silently corrupting content or
aborting the whole fold.
*/
package opstate
