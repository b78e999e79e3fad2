package middleware

import (
	"context"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

// StateReader reads the gate state of the device in ctx.
type StateReader interface {
	State(ctx context.Context) (goGate.State, error)
}

// Guard admits only unlocked devices. Others get 403 with the current state
// and feature, so the client can show the code prompt or the lockout
// countdown and submit against the right lockout policy.
func Guard(engine StateReader, feature goGate.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, http.StatusServiceUnavailable, "gate_unavailable")
				return
			}

			s, err := engine.State(r.Context())
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, "gate_unavailable")
				return
			}
			if !s.Unlocked {
				resp := NewStateResponse(s)
				WriteJSON(w, http.StatusForbidden, ErrorResponse{Error: "locked", Feature: string(feature), State: &resp})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
