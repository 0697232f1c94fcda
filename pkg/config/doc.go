/*
Package config loads the on-disk Config that boots a driftnote node.

repo_key is deliberately never part of this schema — it is supplied at
boot via an environment variable or CLI flag and held only in memory
(see pkg/security.RepoKey), never persisted alongside the ledger it
decrypts.
*/
package config
