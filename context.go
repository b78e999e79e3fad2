package goGate

import "context"

type deviceIDContextKey struct{}
type clientIPContextKey struct{}

// WithDevice attaches a device identifier to ctx. Gate state is namespaced per
// device so one store can back many browsers. Without it the bare key names
// are used, matching a single browser's local storage.
func WithDevice(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDContextKey{}, deviceID)
}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it for
// the per-IP submission throttle and audit logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// DeviceFromContext returns the device id attached by [WithDevice].
func DeviceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(deviceIDContextKey{}).(string)
	return id
}

// ClientIPFromContext returns the IP attached by [WithClientIP].
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
