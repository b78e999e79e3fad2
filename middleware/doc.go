// Package middleware adapts the gate engine to net/http.
//
// # Middleware
//
//   - [Device]: resolves the device token cookie, issuing one when missing,
//     and attaches the device id to the request context.
//   - [ClientIP]: attaches the caller's address for the submission throttle.
//   - [Guard]: rejects requests from devices that are not unlocked.
//   - [Quota]: enforces the free-usage cap and counts successful uses.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Every gate
// decision is made by the Engine; handlers here only map results to status
// codes and JSON bodies.
package middleware
