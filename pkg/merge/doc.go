/*
Package merge implements the three-way line merge used to resolve
concurrent divergent edits: given a common ancestor and two descendants,
produce either a clean merged text or a set of conflict hunks for the
regions both sides touched differently.

The algorithm walks line-level LCS alignments of base-to-local and
base-to-remote (via pmezard/go-difflib's SequenceMatcher, the same library
the pack uses for textual diffing elsewhere), classifying each base region
as untouched, touched by one side, or touched by both. Regions touched by
both sides with identical resulting text are not conflicts — see the
tie-break rule in Merge's doc comment.
*/
package merge
