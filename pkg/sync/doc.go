/*
Package sync implements the P2P sync protocol as a set of transport-agnostic
Go types and an Engine that drives them against a pkg/ledger.Manager. No
network transport is implemented here — SyncRequest and SyncResponse are
plain, JSON-serializable structs that a host wires over whatever transport
it chooses (HTTP, WebSocket, a message queue); that plumbing is explicitly
out of this module's scope.

Engine serves two roles: responder (GetOpsForSync, forwarding its own
stored ciphertext unchanged) and receiver (ApplyRemoteOps, decrypting
inbound ops and folding them toward local storage). In Automatic mode,
applying remote ops immediately reconciles and merges into local; in
Manual mode they queue in a PendingOpsBuffer until the host calls
MergePending.
*/
package sync
