package middleware

import (
	"context"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
	"github.com/sirupsen/logrus"
)

// QuotaEngine checks and counts free usage for the device in ctx.
type QuotaEngine interface {
	CheckQuota(ctx context.Context) (goGate.QuotaStatus, error)
	IncrementUsage(ctx context.Context) (int, error)
}

// QuotaResponse is the 403 body once the free quota is spent.
type QuotaResponse struct {
	Error string `json:"error"`
	Used  int    `json:"used"`
	Limit int    `json:"limit"`
}

// Quota enforces the free-usage cap. A device that is not unlocked and has
// spent its quota gets 403; otherwise the handler runs and a 2xx response
// counts one use. Unlocked devices are never counted.
func Quota(engine QuotaEngine, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, http.StatusServiceUnavailable, "gate_unavailable")
				return
			}

			q, err := engine.CheckQuota(r.Context())
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, "gate_unavailable")
				return
			}
			if err := q.Err(); err != nil {
				if logger != nil {
					logger.WithError(err).Debug("free quota spent")
				}
				WriteJSON(w, http.StatusForbidden, QuotaResponse{
					Error: "quota_exceeded",
					Used:  q.Used,
					Limit: q.Limit,
				})
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if q.Unlimited || rec.status < 200 || rec.status >= 300 {
				return
			}
			if _, err := engine.IncrementUsage(r.Context()); err != nil && logger != nil {
				logger.WithError(err).Error("usage increment failed")
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
