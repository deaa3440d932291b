package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/pkg/config"
	"github.com/ajitpratap0/textreader/pkg/logger"
	"github.com/ajitpratap0/textreader/pkg/observability"
	"github.com/ajitpratap0/textreader/pkg/reader"
	"github.com/ajitpratap0/textreader/pkg/source/objectstore"
)

// session is the configured environment of one command run
type session struct {
	v      *viper.Viper
	cfg    *config.ReadConfig
	opts   reader.Options
	ctx    context.Context
	closer []func()
}

func newSession(cmd *cobra.Command) (*session, error) {
	v, err := newViper(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.ToOptions()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return nil, err
	}

	s := &session{v: v, cfg: cfg, opts: opts, ctx: cmd.Context()}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if d := v.GetDuration("timeout"); d > 0 {
		ctx, cancel := context.WithTimeout(s.ctx, d)
		s.ctx = ctx
		s.closer = append(s.closer, cancel)
	}

	tc := cfg.TracingConfig()
	tc.ServiceVersion = version
	tc.Output = cmd.ErrOrStderr()
	if err := observability.Initialize(tc); err != nil {
		s.Close()
		return nil, err
	}
	if tc.Enabled {
		s.closer = append(s.closer, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := observability.Shutdown(ctx); err != nil {
				logger.Warn("tracer shutdown failed", zap.Error(err))
			}
		})
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		s.serveMetrics(addr)
	}
	objectstore.Configure(objectStoreConfig(v))
	return s, nil
}

func (s *session) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	s.closer = append(s.closer, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

func (s *session) read(identifier string) (*reader.Result, error) {
	res, err := reader.ReadFile(s.ctx, identifier, s.opts)
	if err != nil {
		logger.Error("read failed", zap.String("source", identifier), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// Close releases everything newSession set up, newest first
func (s *session) Close() {
	for i := len(s.closer) - 1; i >= 0; i-- {
		s.closer[i]()
	}
	s.closer = nil
	_ = logger.Sync()
}
