// Package estimationservice implements the shared estimation round inside
// the estimation context.
//
// The module owns the story lifecycle (pending/voting/revealed/completed),
// the per-round vote ledger, consensus resolution, the unlock quorum, and
// auto-start queue advancement. Every committed transition produces one
// outbox event that the worker relay hands to the broadcast bus. Business
// rules live in application/domain layers; infrastructure stays behind
// ports and adapters.
package estimationservice
