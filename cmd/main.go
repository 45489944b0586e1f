package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "vitals_overlay/docs"
	"vitals_overlay/internal/dexcom"
	"vitals_overlay/internal/handlers"
	"vitals_overlay/internal/logger"
	"vitals_overlay/internal/repository"
	"vitals_overlay/internal/repository/db"
	"vitals_overlay/internal/server"
	"vitals_overlay/internal/service"
	"vitals_overlay/internal/stromno"
)

const shutdownTimeout = 10 * time.Second

// @title           Vitals Overlay API
// @version         1.0
// @description     Relays live heart-rate and glucose readings to stream overlays.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := loadConfig()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)

	if err := cfg.validate(); err != nil {
		log.Fatalw("invalid config", "err", err)
	}

	// open DB
	conn, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DBPath)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Deps{
		Resolver:        stromno.NewClient(cfg.HeartRateRPCURL, vendorHTTPTimeout),
		Dialer:          stromno.NewDialer(socketHandshakeLimit, cfg.HeartRateReadTimeout),
		HeartRateConfig: cfg.HeartRate,
		GlucoseClient:   dexcom.NewClient(cfg.Dexcom),
		GlucoseConfig:   cfg.Glucose,
		Auth:            cfg.Auth,
		Log:             log,
	})
	apiHandler := handlers.NewHandler(services, log, cfg.HTTP)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// resume feeds from saved settings
	go services.AutoConnect(context.Background(), autoConnectBudget)

	// graceful shutdown
	waitForShutdown(srv, services, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop feed goroutines
	services.Shutdown()

	// allow in-flight requests to complete; open streams are cancelled
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
