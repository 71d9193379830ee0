package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amingeek/task-manager/internal/api"
	"github.com/amingeek/task-manager/internal/config"
	"github.com/amingeek/task-manager/internal/crypto"
	"github.com/amingeek/task-manager/internal/utils"
)

func main() {
	configDir := flag.String("config-dir", ".", "directory holding .env and config files")
	logFile := flag.String("log-file", "", "also write JSON logs to this rotated file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		panic(err)
	}
	log, err := utils.NewLogger(cfg.Environment, *logFile)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	secret := cfg.JWTSecret
	if secret == "" {
		// Tokens signed with a random secret do not survive a restart.
		if secret, err = crypto.GenerateMasterKey(); err != nil {
			log.Fatalw("generate jwt secret", "error", err)
		}
		log.Warnw("TASKMANAGER_JWT_SECRET not set, using a random secret")
	}

	srv := api.NewServer(api.NewStore(), api.NewTokenIssuer([]byte(secret), cfg.TokenTTL), log.Named("api"))
	httpSrv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           api.NewRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Errorw("shutdown", "error", err)
	}
}
