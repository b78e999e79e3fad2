package cli

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/goGate/device"
	"github.com/MrEthical07/goGate/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gate service",
		Long:  "Serves the gate, the prompt builder, and the guarded profile route to\nbrowser clients. Each browser is identified by a signed device cookie.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Server.Listen = listen
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default: server.listen)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg

	rt, err := openRuntime(cfg, a.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	secret := []byte(cfg.Device.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("device secret: %w", err)
		}
		a.logger.Warn("device.secret not set; device cookies will not survive a restart")
	}
	tokens, err := device.NewManager(device.Config{
		Secret: secret,
		Issuer: cfg.Device.Issuer,
		TTL:    cfg.Device.TTL,
	})
	if err != nil {
		return err
	}

	handler := server.New(rt.engine, tokens, a.logger, server.Options{
		TrustProxy:   cfg.Server.TrustProxy,
		SecureCookie: cfg.Device.SecureCookie,
		CookieMaxAge: cfg.Device.TTL,
		Metrics:      cfg.Metrics.Enabled,
	}).Handler()

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	report := rt.engine.SecurityReport()
	a.logger.WithFields(logrus.Fields{
		"addr":              cfg.Server.Listen,
		"max_attempts":      report.MaxAttempts,
		"protected_lockout": report.ProtectedLockout,
		"general_lockout":   report.GeneralLockout,
		"free_usage_limit":  report.FreeUsageLimit,
		"throttle":          report.ThrottleActive,
		"audit":             report.AuditActive,
	}).Info("gogate listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
