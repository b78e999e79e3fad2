// Package goGate provides a local anti-abuse access gate: failed-code attempt
// tracking, feature-dependent lockout windows, a persistent unlock flag, and a
// free-usage quota, all kept in a plain key-value store.
//
// Engine methods are safe to call from multiple goroutines after construction
// through [Builder.Build], provided the configured store is.
//
// # Architecture boundaries
//
// goGate is the public surface. It exposes [Engine], [Builder], [Config], and
// value types ([State], [Lockout], [SubmitResult], [QuotaStatus]). The state
// machine itself lives in internal/flows; storage backends live in store/;
// the code check lives in verifier/.
//
// # What this package must NOT do
//
//   - Cache gate state between calls; every read goes to the store so several
//     front ends sharing one store observe the same state.
//   - Revoke an unlocked device through any gate operation. Only [Engine.Forget]
//     clears it.
//   - Replace the verifier's obfuscation with hashing: previously issued codes
//     must keep working.
package goGate
