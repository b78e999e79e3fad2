package cli

import (
	"context"
	"fmt"
	"os"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/internal/config"
	"github.com/MrEthical07/goGate/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// runtime is an open engine plus everything that must be closed with it.
type runtime struct {
	engine  *goGate.Engine
	closers []func() error
}

func (r *runtime) Close() {
	if r.engine != nil {
		r.engine.Close()
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
}

// openRuntime opens the configured store and builds the engine.
func openRuntime(cfg *config.Config, logger logrus.FieldLogger) (*runtime, error) {
	rt := &runtime{}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	var rdb redis.UniversalClient
	if cfg.Storage.Backend == config.BackendRedis || cfg.Throttle.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		rt.closers = append(rt.closers, client.Close)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Storage.RedisAddr, err)
		}
		rdb = client
	}

	var kv store.KV
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		kv = store.NewMemory()
	case config.BackendRedis:
		kv = store.NewRedis(rdb, cfg.Storage.RedisPrefix)
	case config.BackendSQLite:
		db, err := store.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		kv = db
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	builder := goGate.New().
		WithConfig(cfg.EngineConfig()).
		WithStore(kv).
		WithLogger(logger)
	if rdb != nil {
		builder = builder.WithRedis(rdb)
	}
	if cfg.Audit.Enabled {
		sink, closeSink, err := openAuditSink(cfg.Audit.Path)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, closeSink)
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("engine build: %w", err)
	}
	rt.engine = engine
	ok = true

	logger.WithField("backend", cfg.Storage.Backend).Debug("gate store opened")
	return rt, nil
}

func openAuditSink(path string) (goGate.AuditSink, func() error, error) {
	if path == "" {
		return goGate.NewJSONWriterSink(os.Stderr), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return goGate.NewJSONWriterSink(f), f.Close, nil
}

// deviceContext attaches the CLI device id, if any.
func (a *app) deviceContext(ctx context.Context) context.Context {
	if a.cfg != nil && a.cfg.Device.CLI != "" {
		return goGate.WithDevice(ctx, a.cfg.Device.CLI)
	}
	return ctx
}
