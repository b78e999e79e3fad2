package middleware

import (
	"encoding/json"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

// StateResponse is the JSON form of a gate state. RemainingTime is in
// milliseconds.
type StateResponse struct {
	Attempts      int   `json:"attempts"`
	IsLocked      bool  `json:"isLocked"`
	RemainingTime int64 `json:"remainingTime"`
	IsUnlocked    bool  `json:"isUnlocked"`
	UsageCount    int   `json:"usageCount"`
}

// NewStateResponse converts s for the wire.
func NewStateResponse(s goGate.State) StateResponse {
	return StateResponse{
		Attempts:      s.Attempts,
		IsLocked:      s.Locked,
		RemainingTime: s.Remaining.Milliseconds(),
		IsUnlocked:    s.Unlocked,
		UsageCount:    s.UsageCount,
	}
}

// ErrorResponse is the body of every rejection from this package.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Feature string         `json:"feature,omitempty"`
	State   *StateResponse `json:"state,omitempty"`
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	WriteJSON(w, status, ErrorResponse{Error: code})
}
