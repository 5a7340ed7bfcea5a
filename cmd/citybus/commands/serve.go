package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/database"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/handler"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/repository"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/router"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/service"
)

// DefaultContextTimeout bounds graceful shutdown.
const DefaultContextTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	log := rt.log

	if rt.cfg.IsLocal() {
		if err := database.Migrate(parent, &log, rt.cfg); err != nil {
			log.Error().Err(err).Msg("failed to migrate database")
			return err
		}
	}

	srv, err := server.New(rt.cfg, &log, rt.loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	repos := repository.NewRepositories(srv)
	services, err := service.NewServices(srv, repos)
	if err != nil {
		log.Error().Err(err).Msg("could not create services")
		_ = srv.Shutdown(context.Background())
		return err
	}

	srv.Job.InitHandlers(rt.cfg, &log, services.ProvinceImport)
	if err := srv.Job.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start background jobs")
		_ = srv.Shutdown(context.Background())
		return err
	}

	handlers := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, handlers))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
