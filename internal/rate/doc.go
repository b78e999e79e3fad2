// Package rate provides the Redis-backed throttle that caps code submissions
// per client IP, independent of the per-device lockout.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefix:
//   - gv: code submissions per client IP
//
// # What this package must NOT do
//
//   - Implement gate policy (attempt thresholds and lockouts live in flows).
//   - Be imported outside the goGate module.
package rate
