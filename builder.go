package goGate

import (
	"errors"
	"io"

	"github.com/MrEthical07/goGate/internal/flows"
	"github.com/MrEthical07/goGate/internal/rate"
	"github.com/MrEthical07/goGate/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Builder assembles an [Engine]. A Builder can be used once.
type Builder struct {
	config Config
	store  store.KV
	redis  redis.UniversalClient
	clock  Clock
	logger logrus.FieldLogger

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the key-value store holding gate state. Required.
func (b *Builder) WithStore(kv store.KV) *Builder {
	b.store = kv
	return b
}

// WithRedis supplies the Redis client used by the submission throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithClock overrides the time source.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the logger. Without one the engine logs nowhere.
func (b *Builder) WithLogger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets where audit events go when audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the state read latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("store required")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Throttle.Enabled && b.redis == nil {
		return nil, errors.New("Throttle requires redis client")
	}

	clock := b.clock
	if clock == nil {
		clock = SystemClock{}
	}

	logger := b.logger
	if logger == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		logger = quiet
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
		clock:  clock,
		logger: logger,
		deps: flows.GateDeps{
			Store:       b.store,
			Now:         clock.Now,
			MaxAttempts: cfg.Gate.MaxAttempts,
		},
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	if cfg.Throttle.Enabled {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			MaxSubmissions: cfg.Throttle.MaxSubmissions,
			Window:         cfg.Throttle.Window,
		})
	}

	b.built = true
	return engine, nil
}
