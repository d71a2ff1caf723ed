package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/pkg/config"
	"github.com/helixlab/helixdash/internal/server"
	"github.com/helixlab/helixdash/pkg/logger"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.ParseLevel(cfg.Observability.LogLevel), cfg.IsRelease(),
		zap.String("service", cfg.Observability.ServiceName),
		zap.String("version", version)); err != nil {
		return err
	}
	log := logger.Log
	defer func() { _ = log.Sync() }()

	if cfg.UsingDevSessionSecret() {
		log.Warn("SESSION_SECRET is not set, using the development secret")
	}
	if cfg.JWT.Secret == "" {
		log.Warn("JWT_SECRET is not set, access tokens are decoded without signature checks")
	}

	otelShutdown, err := server.InitObservability(cfg.Observability, version, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			log.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}
	defer srv.Close()

	router, err := server.SetupRouter(cfg, srv.Dependencies(), log)
	if err != nil {
		log.Error("Failed to setup router", zap.Error(err))
		return err
	}
	srv.SetRouter(router)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	// Start pprof server (on separate port, not exposed publicly)
	pprofServer := server.StartPprofServer(cfg.Observability.PprofAddr, log)

	httpServer := srv.HTTPServer()

	done := make(chan struct{})
	go server.GracefulShutdown(ctx, httpServer, log, done, pprofServer)

	log.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("mode", cfg.Server.Mode))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server error", zap.Error(err))
		return err
	}

	<-done
	log.Info("Graceful shutdown complete")
	return nil
}
