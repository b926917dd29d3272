package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"health-reminder-api/internal/grpcapi"
	"health-reminder-api/internal/handler"
	"health-reminder-api/internal/middleware"
	"health-reminder-api/internal/reminder"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the ops gRPC server and the reminder scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := reminder.NewScheduler(cfg.Location(), log)
	if err := sched.Register(reminderJob, cfg.ReminderSchedule, a.runner().Run); err != nil {
		return err
	}
	defer func() { _ = sched.Stop(context.Background()) }()
	if cfg.SchedulerEnabled {
		if err := sched.Start(); err != nil {
			return err
		}
	} else {
		log.Warn().Msg("scheduler disabled, reminders run only on demand")
	}

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rl.Close()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	dash := reminder.NewDashboardService(a.store, a.eval)
	h := handler.New(handler.Deps{
		Store:       a.store,
		Dashboard:   dash,
		Mailer:      a.mailer,
		Secret:      cfg.SecretKey,
		TokenTTL:    cfg.AccessTokenTTL(),
		FrontendURL: cfg.FrontendURL,
		Location:    cfg.Location(),
		Log:         log,
	})
	api := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: handler.NewRouter(h, handler.RouterOptions{
			Limiter:     rl,
			Metrics:     a.metrics,
			FrontendURL: cfg.FrontendURL,
			Log:         log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           a.metrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.OpsAPIKey == "" {
		log.Warn().Msg("OPS_API_KEY is empty, RunReminders over gRPC is disabled")
	}
	gs, hs := grpcapi.NewGRPCServer(
		grpcapi.NewServer(sched, reminderJob, dash, log),
		grpcapi.Options{Secret: cfg.SecretKey, OpsKey: cfg.OpsAPIKey, Limiter: rl},
	)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listen(api, "http") })
	g.Go(func() error { return listen(metricsSrv, "metrics") })
	g.Go(func() error {
		log.Info().Str("addr", lis.Addr().String()).Msg("grpc listening")
		return gs.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// scheduler first: a manual run in flight holds a gRPC call open
		hs.Shutdown()
		return errors.Join(
			sched.Stop(sctx),
			api.Shutdown(sctx),
			metricsSrv.Shutdown(sctx),
			grpcapi.Shutdown(sctx, gs),
		)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func listen(srv *http.Server, name string) error {
	log.Info().Str("addr", srv.Addr).Msgf("%s listening", name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
