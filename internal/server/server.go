// Package server exposes the gate over HTTP for browser clients.
//
// Routes:
//
//	GET  /v1/gate/state      current gate state of the calling device
//	POST /v1/gate/submit     {"feature":"PROFILE|PROMPT_GEN","code":"..."}
//	POST /v1/prompts         quota-limited prompt builder
//	GET  /v1/profile/access  protected feature, unlocked devices only
//	GET  /metrics            Prometheus text, when metrics are enabled
//	GET  /healthz            liveness
//
// Every /v1 route runs with the device id from the device cookie and the
// client IP attached to the request context.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/device"
	"github.com/MrEthical07/goGate/metrics/export/prometheus"
	"github.com/MrEthical07/goGate/middleware"
	"github.com/MrEthical07/goGate/promptbuilder"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 16 << 10

// Options tune the HTTP surface.
type Options struct {
	TrustProxy   bool
	SecureCookie bool
	CookieMaxAge time.Duration
	// Metrics mounts /metrics.
	Metrics bool
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine *goGate.Engine
	tokens *device.Manager
	logger logrus.FieldLogger
	opts   Options
}

// New returns a Server. A nil logger discards output.
func New(engine *goGate.Engine, tokens *device.Manager, logger logrus.FieldLogger, opts Options) *Server {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Server{engine: engine, tokens: tokens, logger: logger, opts: opts}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	v1 := http.NewServeMux()
	v1.HandleFunc("GET /v1/gate/state", s.handleState)
	v1.HandleFunc("POST /v1/gate/submit", s.handleSubmit)
	v1.Handle("POST /v1/prompts", middleware.Quota(s.engine, s.logger)(http.HandlerFunc(s.handlePrompt)))
	v1.Handle("GET /v1/profile/access", middleware.Guard(s.engine, goGate.FeatureProtected)(http.HandlerFunc(s.handleProfile)))

	deviceAware := middleware.ClientIP(s.opts.TrustProxy)(
		middleware.Device(s.tokens, middleware.DeviceOptions{
			Secure: s.opts.SecureCookie,
			MaxAge: s.opts.CookieMaxAge,
		})(v1),
	)

	mux := http.NewServeMux()
	mux.Handle("/v1/", deviceAware)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Metrics {
		mux.Handle("GET /metrics", prometheus.NewPrometheusExporter(s.engine).Handler())
	}

	return s.logRequests(mux)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.State(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, middleware.NewStateResponse(st))
}

type submitRequest struct {
	Feature string `json:"feature"`
	Code    string `json:"code"`
}

type submitResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Attempts      int    `json:"attempts"`
	AttemptsLeft  int    `json:"attemptsLeft"`
	RemainingTime int64  `json:"remainingTime"`
}

var submitMessages = map[goGate.SubmitStatus]string{
	goGate.SubmitEmpty:          "Please enter the code.",
	goGate.SubmitUnlocked:       "Access granted.",
	goGate.SubmitDenied:         "Access Denied: Invalid Security Code.",
	goGate.SubmitLockedOut:      "SECURITY LOCKOUT: Too many failed attempts.",
	goGate.SubmitOverrideDenied: "Invalid VIP Key.",
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorResponse{Error: "bad_request"})
		return
	}
	feature, err := goGate.ParseFeature(body.Feature)
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorResponse{Error: "unknown_feature"})
		return
	}

	res, err := s.engine.Submit(r.Context(), feature, body.Code)
	switch {
	case errors.Is(err, goGate.ErrVerifyRateLimited):
		middleware.WriteJSON(w, http.StatusTooManyRequests, middleware.ErrorResponse{Error: "rate_limited"})
		return
	case errors.Is(err, goGate.ErrThrottleUnavailable):
		s.logger.WithError(err).Error("submission throttle unavailable")
		middleware.WriteJSON(w, http.StatusServiceUnavailable, middleware.ErrorResponse{Error: "gate_unavailable"})
		return
	case err != nil:
		s.internalError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, submitResponse{
		Status:        res.Status.String(),
		Message:       submitMessages[res.Status],
		Attempts:      res.Attempts,
		AttemptsLeft:  res.AttemptsLeft,
		RemainingTime: res.Remaining.Milliseconds(),
	})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	req := promptbuilder.Defaults()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorResponse{Error: "bad_request"})
		return
	}

	prompt, err := promptbuilder.Build(req)
	if err != nil {
		code := "bad_request"
		switch {
		case errors.Is(err, promptbuilder.ErrUnknownCategory):
			code = "unknown_category"
		case errors.Is(err, promptbuilder.ErrMissingGoal):
			code = "missing_goal"
		}
		middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorResponse{Error: code})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"access": "granted"})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithError(err).WithField("path", r.URL.Path).Error("gate request failed")
	middleware.WriteJSON(w, http.StatusInternalServerError, middleware.ErrorResponse{Error: "internal_error"})
}
