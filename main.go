package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	intconfig "shuttlebus/internal/config"
	"shuttlebus/internal/db"
	router "shuttlebus/internal/http"
	"shuttlebus/internal/http/handlers"
	"shuttlebus/internal/notify"
	"shuttlebus/internal/repositories"
	"shuttlebus/internal/services"
	"shuttlebus/internal/utils"
	"shuttlebus/internal/worker"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	utils.InitLogger(utils.LoggerConfig{
		Level:    env.LogLevel,
		Console:  env.GinMode != gin.ReleaseMode,
		FilePath: env.LogFile,
	})
	log := utils.Log()

	conn, err := intconfig.ConnectDB(env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer intconfig.CloseDB()

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureSchema(bootCtx, conn); err != nil {
		cancelBoot()
		log.Fatal().Err(err).Msg("failed to prepare schema")
	}

	tripsRepo := repositories.TripsRepository{DB: conn, Timeout: env.QueryTimeout}
	reservationRepo := repositories.ReservationRepository{DB: conn, Timeout: env.QueryTimeout}
	statusRepo := repositories.StatusRepository{DB: conn, Timeout: env.QueryTimeout}
	settingsRepo := repositories.SettingsRepository{DB: conn, Timeout: env.QueryTimeout}
	userRepo := repositories.UserRepository{DB: conn, Timeout: env.QueryTimeout}

	sink := notify.NewTeamsSink(env.TeamsWebhookURL)
	if !sink.Enabled() {
		log.Warn().Msg("TEAMS_WEBHOOK_URL not set, notifications disabled")
	}
	pool := worker.NewPool(env.NotifyWorkers, env.NotifyQueue)

	notifier := services.NotificationService{
		Trips:   tripsRepo,
		Holders: reservationRepo,
		Users:   userRepo,
		Sink:    sink,
		Pool:    pool,
		Window:  env.ReminderWindow,
	}
	maintenance := services.MaintenanceService{Settings: settingsRepo, Users: userRepo}
	authSvc := services.AuthService{Users: userRepo, Secret: env.JWTSecret, TTL: env.JWTTTL}

	if err := authSvc.EnsureAdmin(bootCtx, env.AdminName, env.AdminEmail, env.AdminPassword); err != nil {
		log.Error().Err(err).Msg("failed to create bootstrap administrator")
	}
	cancelBoot()

	api := &handlers.API{
		Auth:  authSvc,
		Trips: services.TripService{Trips: tripsRepo, Users: userRepo},
		Reservations: services.ReservationService{
			Store:    reservationRepo,
			Gate:     maintenance,
			Notifier: notifier,
			Window:   env.ReminderWindow,
		},
		Statuses: services.TripStatusService{
			Statuses:     statusRepo,
			Reservations: reservationRepo,
			Users:        userRepo,
			Notifier:     notifier,
			Pool:         pool,
		},
		Maintenance: maintenance,
		Docs:        services.DocsService{Reservations: reservationRepo},
		Location:    env.Location,
		Ping:        intconfig.Ping,
	}

	scheduler := services.NewReminderScheduler(tripsRepo, notifier, env.ReminderInterval, env.ReminderWindow)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start reminder scheduler")
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, api),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", env.AppAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	scheduler.Stop()
	if err := pool.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("background tasks abandoned")
	}

	log.Info().Msg("server stopped")
}
