package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/device"
	"github.com/MrEthical07/goGate/middleware"
	"github.com/MrEthical07/goGate/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testServer struct {
	*httptest.Server
	engine *goGate.Engine
	client *http.Client
}

func newTestServer(t *testing.T, build func(*goGate.Builder) *goGate.Builder) *testServer {
	t.Helper()

	b := goGate.New().WithStore(store.NewMemory()).WithMetricsEnabled(true)
	if build != nil {
		b = build(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	tokens, err := device.NewManager(device.Config{Secret: []byte(strings.Repeat("k", 32))})
	if err != nil {
		t.Fatalf("device manager failed: %v", err)
	}

	srv := httptest.NewServer(New(engine, tokens, nil, Options{Metrics: true}).Handler())
	t.Cleanup(func() {
		srv.Close()
		engine.Close()
	})
	return &testServer{Server: srv, engine: engine, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar failed: %v", err)
	}
	return &http.Client{Jar: jar}
}

func (s *testServer) do(t *testing.T, c *http.Client, method, path string, body any, out any) int {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s failed: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestStateRouteReturnsWireFormat(t *testing.T) {
	s := newTestServer(t, nil)

	var raw map[string]any
	if code := s.do(t, s.client, http.MethodGet, "/v1/gate/state", nil, &raw); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, key := range []string{"attempts", "isLocked", "remainingTime", "isUnlocked", "usageCount"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing %q in %v", key, raw)
		}
	}
}

func TestSubmitLockoutAndOverride(t *testing.T) {
	s := newTestServer(t, nil)
	var res submitResponse

	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROMPT_GEN", Code: "x"}, &res)
	if res.Status != "denied" || res.AttemptsLeft != 2 {
		t.Fatalf("unexpected first response: %+v", res)
	}
	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROMPT_GEN", Code: "x"}, &res)
	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROMPT_GEN", Code: "x"}, &res)
	if res.Status != "locked_out" || res.RemainingTime != 60_000 {
		t.Fatalf("expected lockout, got %+v", res)
	}

	var st middleware.StateResponse
	s.do(t, s.client, http.MethodGet, "/v1/gate/state", nil, &st)
	if !st.IsLocked || st.Attempts != 3 {
		t.Fatalf("expected locked state, got %+v", st)
	}

	// Another browser is unaffected.
	other := newClient(t)
	s.do(t, other, http.MethodGet, "/v1/gate/state", nil, &st)
	if st.IsLocked || st.Attempts != 0 {
		t.Fatalf("lockout leaked to another device: %+v", st)
	}

	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROMPT_GEN", Code: "nope"}, &res)
	if res.Status != "override_denied" || res.Message != "Invalid VIP Key." {
		t.Fatalf("expected override_denied, got %+v", res)
	}
	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROMPT_GEN", Code: "VIP100"}, &res)
	if res.Status != "unlocked" {
		t.Fatalf("expected unlocked, got %+v", res)
	}
	s.do(t, s.client, http.MethodGet, "/v1/gate/state", nil, &st)
	if !st.IsUnlocked || st.IsLocked {
		t.Fatalf("expected open gate, got %+v", st)
	}
}

func TestSubmitValidation(t *testing.T) {
	s := newTestServer(t, nil)
	var e middleware.ErrorResponse

	if code := s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "EDITOR", Code: "x"}, &e); code != http.StatusBadRequest || e.Error != "unknown_feature" {
		t.Fatalf("expected 400 unknown_feature, got %d %+v", code, e)
	}

	var res submitResponse
	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "profile", Code: "  "}, &res)
	if res.Status != "empty" || res.Attempts != 0 {
		t.Fatalf("expected empty submission, got %+v", res)
	}
}

func TestPromptQuota(t *testing.T) {
	s := newTestServer(t, nil)
	req := map[string]string{"category": "CODE", "goal": "a cli"}

	for i := 0; i < 10; i++ {
		var out map[string]string
		if code := s.do(t, s.client, http.MethodPost, "/v1/prompts", req, &out); code != http.StatusOK {
			t.Fatalf("prompt %d: expected 200, got %d", i+1, code)
		}
		if !strings.Contains(out["prompt"], `Write code for: "a cli". Tech Stack: React + Tailwind.`) {
			t.Fatalf("unexpected prompt %q", out["prompt"])
		}
	}

	var q middleware.QuotaResponse
	if code := s.do(t, s.client, http.MethodPost, "/v1/prompts", req, &q); code != http.StatusForbidden || q.Used != 10 {
		t.Fatalf("expected 403 after quota, got %d %+v", code, q)
	}

	var e middleware.ErrorResponse
	if code := s.do(t, newClient(t), http.MethodPost, "/v1/prompts", map[string]string{"category": "CODE"}, &e); code != http.StatusBadRequest || e.Error != "missing_goal" {
		t.Fatalf("expected 400 missing_goal, got %d %+v", code, e)
	}
}

func TestProfileGuard(t *testing.T) {
	s := newTestServer(t, nil)

	var e middleware.ErrorResponse
	if code := s.do(t, s.client, http.MethodGet, "/v1/profile/access", nil, &e); code != http.StatusForbidden || e.Feature != "PROFILE" {
		t.Fatalf("expected 403 for PROFILE, got %d %+v", code, e)
	}

	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROFILE", Code: "KaceDEV"}, nil)
	if code := s.do(t, s.client, http.MethodGet, "/v1/profile/access", nil, nil); code != http.StatusOK {
		t.Fatalf("expected 200 after unlock, got %d", code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	var health map[string]string
	if code := s.do(t, s.client, http.MethodGet, "/healthz", nil, &health); code != http.StatusOK || health["status"] != "ok" {
		t.Fatalf("unexpected health: %d %v", code, health)
	}

	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROFILE", Code: "bad"}, nil)
	resp, err := s.client.Get(s.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "gogate_attempt_recorded_total 1") {
		t.Fatalf("unexpected metrics:\n%s", body)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := newTestServer(t, func(b *goGate.Builder) *goGate.Builder {
		cfg := goGate.DefaultConfig()
		cfg.Metrics.Enabled = true
		cfg.Throttle = goGate.ThrottleConfig{Enabled: true, MaxSubmissions: 1, Window: time.Minute}
		return b.WithConfig(cfg).WithRedis(rdb)
	})

	s.do(t, s.client, http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROFILE", Code: "bad"}, nil)
	var e middleware.ErrorResponse
	if code := s.do(t, newClient(t), http.MethodPost, "/v1/gate/submit", submitRequest{Feature: "PROFILE", Code: "bad"}, &e); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d %+v", code, e)
	}
}
