package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/ubuzima-connect/api/internal/config"
	"github.com/ubuzima-connect/api/internal/handler"
	appointmentHandler "github.com/ubuzima-connect/api/internal/handler/appointment"
	authHandler "github.com/ubuzima-connect/api/internal/handler/auth"
	patientHandler "github.com/ubuzima-connect/api/internal/handler/patient"
	userHandler "github.com/ubuzima-connect/api/internal/handler/user"
	"github.com/ubuzima-connect/api/internal/middleware"
	"github.com/ubuzima-connect/api/internal/model"
	"github.com/ubuzima-connect/api/internal/repository/postgres"
	"github.com/ubuzima-connect/api/internal/router"
	appointmentService "github.com/ubuzima-connect/api/internal/service/appointment"
	authService "github.com/ubuzima-connect/api/internal/service/auth"
	"github.com/ubuzima-connect/api/internal/service/notification"
	patientService "github.com/ubuzima-connect/api/internal/service/patient"
	"github.com/ubuzima-connect/api/pkg/auth"
	"github.com/ubuzima-connect/api/pkg/logger"
	"github.com/ubuzima-connect/api/pkg/metrics"
)

func main() {
	logger.Setup()
	appLog := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := model.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("ubuzima", registry)

	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	jwtSvc := auth.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		time.Duration(cfg.JWT.RefreshExpiryHours)*time.Hour,
	)

	sender := notification.NewPindoSender(cfg.SMS, appLog)
	notifSvc := notification.NewService(sender, m)

	authSvc := authService.NewService(userRepo, jwtSvc)
	patientSvc := patientService.NewService(patientRepo, appointmentRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, patientRepo, notifSvc, appLog)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	h := handler.NewHandler(db, registry, m)
	authH := authHandler.NewHandler(authSvc)
	userH := userHandler.NewHandler(authSvc)
	patientH := patientHandler.NewHandler(patientSvc)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc)

	r := router.NewRouter(authMiddleware, authH, userH, patientH, appointmentH, h, m, cfg)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
