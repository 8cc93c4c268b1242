// Package server assembles the HTTP router from configuration and a credential store
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/volunteerhub/backend/internal/auth/middleware"
	"github.com/volunteerhub/backend/internal/auth/service"
	"github.com/volunteerhub/backend/internal/config"
	"github.com/volunteerhub/backend/internal/handlers"
	loggerMiddleware "github.com/volunteerhub/backend/internal/logger/middleware"
	"github.com/volunteerhub/backend/internal/middlewares"
	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/internal/services"
	"go.uber.org/zap"
)

// credentialLimitDivisor scales the global per-IP limit down for login and registration
const credentialLimitDivisor = 10

const minCredentialLimit = 5

// NewRouter wires repositories, services, handlers and gates into a chi router
func NewRouter(cfg *config.Config, userRepo services.UserRepository, logger *zap.Logger) chi.Router {
	// Initialize credential primitives
	tokenCodec := service.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	passwordHasher := service.NewPasswordHasher(service.PasswordCost)

	// Initialize services
	accountService := services.NewAccountService(userRepo, passwordHasher, tokenCodec, logger)
	adminService := services.NewAdminService(userRepo, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService, handlers.CookieSettings{
		Secure: cfg.IsProduction(),
		MaxAge: tokenCodec.Expiry(),
	}, logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger)
	healthHandler := handlers.NewHealthHandler(logger)

	// Initialize gates
	authMiddleware := middleware.AuthMiddleware(tokenCodec, logger)
	adminMiddleware := middleware.RoleMiddleware(tokenCodec, logger, models.RoleAdmin)
	apiKeyMiddleware := middleware.APIKeyMiddleware(cfg.APIKey)

	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger))
	r.Use(middlewares.RecoveryMiddleware(logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.RateLimit.RequestsPerMinute, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(middlewares.DefaultMaxRequestSize))

	healthHandler.RegisterRoutes(r)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	// Account routes share a tighter per-IP, per-endpoint limit
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(
			credentialLimit(cfg.RateLimit.RequestsPerMinute),
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		))
		authHandler.RegisterRoutes(r, authMiddleware)
	})

	// Register admin routes with role middleware
	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		adminHandler.RegisterRoutes(r)
	})

	return r
}

func credentialLimit(perMinute int) int {
	return max(perMinute/credentialLimitDivisor, minCredentialLimit)
}
