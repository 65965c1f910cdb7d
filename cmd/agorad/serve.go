package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/agorahq/agora/pkg/api"
	"github.com/agorahq/agora/pkg/auth"
	"github.com/agorahq/agora/pkg/board"
	"github.com/agorahq/agora/pkg/config"
	"github.com/agorahq/agora/pkg/hub"
	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/metrics"
	"github.com/agorahq/agora/pkg/store"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agora server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().String("config", "", "path to config file (yaml)")
}

func serve(cfg *config.Config) error {
	log := logger.NewZeroWriter(os.Stderr, cfg.Log.Level, cfg.Log.Console)

	st, err := store.NewBoltStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	h := hub.New(log.WithComponent("hub"))
	svc := board.NewService(st, h, log.WithComponent("board"))
	verifier := auth.NewVerifier([]byte(cfg.JWTSecret))

	r := mux.NewRouter()

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(verifier.Middleware)
	api.New(svc, log.WithComponent("api")).Register(apiRouter)

	r.Handle("/ws", hub.NewHandler(h, log.WithComponent("ws"), nil))
	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(ctx)
}
