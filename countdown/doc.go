// Package countdown drives the user-facing side of a lockout: rendering the
// remaining time, re-reading gate state on an interval until the lockout ends,
// and abandoning an unanswered code prompt after a period of inactivity.
package countdown
