// Package flows contains pure-function orchestrators for every gate operation.
//
// Each flow function (RunState, RunRecordFailure, RunUnlock, ...) accepts the
// device key set and a [GateDeps] and returns results without side-effects
// beyond the store it was given. This keeps the Engine type thin and lets the
// state machine be tested against an in-memory store and a fake clock.
//
// # State machine
//
//	AWAITING_INPUT --failure, attempts < max--> AWAITING_INPUT
//	AWAITING_INPUT --failure, attempts == max--> LOCKED
//	LOCKED --read with now >= expiry--> AWAITING_INPUT (attempts = 0)
//	any --unlock--> OPEN
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGate (to avoid import cycles).
//   - Decide lockout durations; the caller resolves them from the feature.
package flows
