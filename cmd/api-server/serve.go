package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"procurement/internal/auth"
	"procurement/internal/handlers"
	"procurement/internal/jobs"
	"procurement/internal/metrics"
	"procurement/internal/notify"
	"procurement/internal/procurement"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the RFQ auto-close scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, closeStore, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(reg)

		var pub notify.Publisher
		if cfg.NATS.URL != "" {
			conn, err := notify.Connect(cfg.NATS.URL, log)
			if err != nil {
				return err
			}
			defer conn.Drain()
			pub = notify.NewNATSPublisher(conn)
			log.Info().Str("url", cfg.NATS.URL).Msg("nats connected")
		}

		svc := procurement.NewService(store, notify.NewEmitter(store, pub, m, log), m, log)

		scheduler := jobs.NewScheduler(log, cfg.Server.RequestTimeout)
		if err := scheduler.AddRFQCloser(cfg.Jobs.RFQCloseSchedule, svc); err != nil {
			return err
		}

		authn := auth.NewAuthenticator(cfg.JWT.SigningKey, store, handlers.WriteError)
		router := handlers.NewRouter(handlers.NewHandler(svc), authn, handlers.RouterConfig{
			Log:            log,
			Metrics:        m,
			Gatherer:       reg,
			RequestTimeout: cfg.Server.RequestTimeout,
		})
		srv := &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("starting server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "listen")
			}
			return nil
		})
		g.Go(func() error {
			scheduler.Start()
			<-gctx.Done()

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			scheduler.Stop(shutdownCtx)
			return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
