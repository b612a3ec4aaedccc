// @title           Task Manager API
// @version         1.0
// @description     Personal task manager: filtered task lists, dashboard statistics, auth.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        session_id
package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"taskmanager/internal/app"
	"taskmanager/internal/config"
	"taskmanager/internal/logger"

	_ "taskmanager/docs"
)

//go:generate swag init -d ../.. -g cmd/api/main.go -o ../../docs --parseInternal

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}
	log, err := logger.New(cfg.App.Env, cfg.Log.Level, os.Stdout)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	log.WithField("driver", cfg.Store.Driver).Info("config loaded, connecting to store and Redis...")

	application, err := app.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("app init")
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		log.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown")
	}

	if err := application.Close(ctx); err != nil {
		log.WithError(err).Error("app close")
	}
	log.Info("stopped")
}
