package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/device"
)

// DeviceCookieName is the cookie holding the device token.
const DeviceCookieName = "gogate_device"

// DeviceOptions controls the device cookie.
type DeviceOptions struct {
	Secure bool
	MaxAge time.Duration
}

// Device resolves the device token from its cookie and attaches the device id
// with [goGate.WithDevice]. A token past half its lifetime, or expired, is
// re-signed for the same device so an unlock outlives the token. A missing or
// forged token gets a fresh device, which starts with an empty gate.
func Device(tokens *device.Manager, opts DeviceOptions) func(http.Handler) http.Handler {
	if opts.MaxAge <= 0 {
		opts.MaxAge = device.DefaultTTL
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				writeError(w, http.StatusServiceUnavailable, "device_unavailable")
				return
			}

			var id, token string
			if c, err := r.Cookie(DeviceCookieName); err == nil {
				id, token, _ = tokens.Resume(c.Value)
			}

			if id == "" {
				var err error
				token, id, err = tokens.Issue()
				if err != nil {
					writeError(w, http.StatusInternalServerError, "device_issue_failed")
					return
				}
			}
			if token != "" {
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(opts.MaxAge / time.Second),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(goGate.WithDevice(r.Context(), id)))
		})
	}
}

// ClientIP attaches the caller's IP with [goGate.WithClientIP]. With
// trustProxy the first X-Forwarded-For entry wins.
func ClientIP(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteIP(r.RemoteAddr)
			if trustProxy {
				if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
					first, _, _ := strings.Cut(fwd, ",")
					if first = strings.TrimSpace(first); first != "" {
						ip = first
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(goGate.WithClientIP(r.Context(), ip)))
		})
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
