package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"avtoservis/internal/auth"
	"avtoservis/internal/config"
	"avtoservis/internal/domain"
	"avtoservis/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server exposes the REST API.
type Server struct {
	cfg      config.ServerConfig
	users    *service.UserService
	bookings *service.BookingService
	catalog  *service.CatalogService
	reports  domain.ReportWorker
	tokens   *auth.TokenManager
	limiter  *rateLimiter
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(
	cfg config.ServerConfig,
	rateCfg config.RateLimitConfig,
	users *service.UserService,
	bookings *service.BookingService,
	catalog *service.CatalogService,
	reports domain.ReportWorker,
	tokens *auth.TokenManager,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		users:    users,
		bookings: bookings,
		catalog:  catalog,
		reports:  reports,
		tokens:   tokens,
		limiter:  newRateLimiter(rateCfg),
		logger:   logger,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           cors(s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public auth endpoints, rate limited by client address.
	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.Use(s.rateLimitMiddleware)
	authRouter.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	authRouter.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	// Public catalog listing.
	api.HandleFunc("/services", s.handleListServiceTypes).Methods(http.MethodGet)

	// Authenticated surface.
	private := api.NewRoute().Subrouter()
	private.Use(s.authMiddleware, s.rateLimitMiddleware)

	private.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)

	private.HandleFunc("/cars", s.handleCreateCar).Methods(http.MethodPost)
	private.HandleFunc("/cars", s.handleListCars).Methods(http.MethodGet)
	private.HandleFunc("/cars/{id}", s.handleGetCar).Methods(http.MethodGet)
	private.HandleFunc("/cars/{id}", s.handleUpdateCar).Methods(http.MethodPut)
	private.HandleFunc("/cars/{id}", s.handleDeleteCar).Methods(http.MethodDelete)

	private.HandleFunc("/bookings", s.handleCreateBooking).Methods(http.MethodPost)
	private.HandleFunc("/bookings", s.handleListBookings).Methods(http.MethodGet)
	private.HandleFunc("/bookings/{id}", s.handleGetBooking).Methods(http.MethodGet)
	private.HandleFunc("/bookings/{id}", s.handleUpdateBooking).Methods(http.MethodPatch)
	private.HandleFunc("/bookings/{id}/status", s.handleUpdateBookingStatus).Methods(http.MethodPatch)
	private.HandleFunc("/bookings/{id}", s.handleDeleteBooking).Methods(http.MethodDelete)

	// Admin surface.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.authMiddleware, s.adminOnly)
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/role", s.handleChangeRole).Methods(http.MethodPatch)
	admin.HandleFunc("/services", s.handleListAllServiceTypes).Methods(http.MethodGet)
	admin.HandleFunc("/services", s.handleCreateServiceType).Methods(http.MethodPost)
	admin.HandleFunc("/services/{id}", s.handleUpdateServiceType).Methods(http.MethodPut)
	admin.HandleFunc("/services/{id}", s.handleDeactivateServiceType).Methods(http.MethodDelete)
	admin.HandleFunc("/reports", s.handleEnqueueReport).Methods(http.MethodPost)

	return r
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
