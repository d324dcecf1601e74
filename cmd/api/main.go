package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/config"
	appointmentHandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	clinicHandler "github.com/jwalitptl/clinic-api/internal/handler/clinic"
	commissionHandler "github.com/jwalitptl/clinic-api/internal/handler/commission"
	doctorHandler "github.com/jwalitptl/clinic-api/internal/handler/doctor"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	paymentHandler "github.com/jwalitptl/clinic-api/internal/handler/payment"
	userHandler "github.com/jwalitptl/clinic-api/internal/handler/user"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	appointmentService "github.com/jwalitptl/clinic-api/internal/service/appointment"
	authService "github.com/jwalitptl/clinic-api/internal/service/auth"
	clinicService "github.com/jwalitptl/clinic-api/internal/service/clinic"
	commissionService "github.com/jwalitptl/clinic-api/internal/service/commission"
	doctorService "github.com/jwalitptl/clinic-api/internal/service/doctor"
	medicalService "github.com/jwalitptl/clinic-api/internal/service/medical"
	patientService "github.com/jwalitptl/clinic-api/internal/service/patient"
	paymentService "github.com/jwalitptl/clinic-api/internal/service/payment"
	settingsService "github.com/jwalitptl/clinic-api/internal/service/settings"
	userService "github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.RequireSecret(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	store := postgres.NewStore(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Server.MetricsPrefix, reg)

	v := validator.New()
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	sp := settingsService.NewService(store.Settings(), cfg.DefaultSettings(), cfg.Settings.CacheTTL)

	// Initialize services
	userSvc := userService.NewService(store, hasher, v)
	authSvc := authService.NewService(store.Users(), tokens, hasher, v)
	clinicSvc := clinicService.NewService(store.Clinics(), v)
	doctorSvc := doctorService.NewService(store, v)
	patientSvc := patientService.NewService(store, v)
	appointmentSvc := appointmentService.NewService(store, v, m)
	medicalSvc := medicalService.NewService(store)
	paymentSvc := paymentService.NewService(store, v, m)
	commissionSvc := commissionService.NewService(store, sp, v, m)

	// Initialize handlers
	authH := authHandler.NewHandler(authSvc, userSvc)
	healthH := health.NewHandler(map[string]health.Pinger{"database": db})

	var limit rate.Limit
	if cfg.RateLimit.Enabled {
		limit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(tokens),
		sp,
		healthH,
		m,
		router.Config{
			RateLimit:      limit,
			RateBurst:      cfg.RateLimit.Burst,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxBodySize:    middleware.DefaultMaxBodySize,
			Gatherer:       reg,
		},
		[]router.PublicHandler{authH},
		authH,
		userHandler.NewHandler(userSvc),
		clinicHandler.NewHandler(clinicSvc),
		doctorHandler.NewHandler(doctorSvc),
		patientHandler.NewHandler(patientSvc),
		appointmentHandler.NewHandler(appointmentSvc, medicalSvc),
		paymentHandler.NewHandler(paymentSvc),
		commissionHandler.NewHandler(commissionSvc),
	)
	r.Setup()

	srv := r.Server(fmt.Sprintf(":%d", cfg.Server.Port), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
