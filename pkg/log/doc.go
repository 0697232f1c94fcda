/*
Package log provides structured logging for driftnote using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level for production debugging.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

	syncLog := log.WithComponent("sync")
	syncLog.Info().Int("applied", n).Msg("remote ops applied")

# Integration Points

This package is used by:

  - pkg/ledger: entries quarantined because their envelope failed to decode
  - pkg/sync: merge conflicts found while folding remote ops
  - cmd/driftnote: the serve loop's pending-ops buffer depth and node
    index deltas

# Security

Never log secrets or sensitive data — in particular, a repo key
(pkg/security.RepoKey) or raw ciphertext must never reach a log line.
*/
package log
