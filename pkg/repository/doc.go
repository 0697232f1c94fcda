/*
Package repository exposes the single host-visible handle a CLI or service
layer drives a repository through: Repository composes pkg/ledger,
pkg/tree and pkg/sourcecontrol behind list/get/append
operations on the ledger side and list-changes/diff/stage/commit
operations on the source-control side, across the multi-document,
multi-peer shape this system actually has.

It adds no behavior of its own beyond counting appends and commits in
pkg/metrics; every operation is a thin call into the package that
actually owns the invariant.
*/
package repository
