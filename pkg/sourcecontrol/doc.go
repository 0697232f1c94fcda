/*
Package sourcecontrol layers a staging area and immutable commit history
on top of the same ledger a document's content is reconstructed from. It
does not version the op log itself — the op log is already immutable and
append-only — it versions content snapshots, the way a Git commit freezes
a tree of blobs.

StageFile records a path's currently reconstructed content into an
in-memory staging map: staging is ephemeral and process-local, commits
are durable. CommitStaged freezes the staged set into a commits bucket record
(CommitInfo plus the path->content snapshot; no ledger sequence is
recorded), then clears staging. ListChanges and DiffDocPath compare the most recent commit's
snapshot against current reconstructed content.
*/
package sourcecontrol
