// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mint-booth/internal/auth"
	"github.com/mint-booth/internal/logging"
	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/service"
	"github.com/mint-booth/internal/types"
)

// Service interfaces for dependency injection and testing

// SettingsServiceInterface defines the booth settings operations
type SettingsServiceInterface interface {
	Get(ctx context.Context) (*models.SettingsView, error)
	Update(ctx context.Context, input service.UpdateSettingsInput) (*models.SettingsView, error)
	BoothStatus(ctx context.Context) (*models.BoothStatus, error)
}

// PrintRequestServiceInterface defines the print queue operations
type PrintRequestServiceInterface interface {
	Create(ctx context.Context, input service.CreatePrintRequestInput) (*models.PrintRequest, error)
	GetByWallet(ctx context.Context, walletAddress string) (*models.PrintRequest, error)
	ListPublic(ctx context.Context, page, limit int) (*service.PrintRequestPage, error)
	ListAdmin(ctx context.Context, page, limit int, statusFilter string) (*service.PrintRequestPage, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.PrintRequest, error)
}

// FreeMintServiceInterface defines the sponsored mint operations
type FreeMintServiceInterface interface {
	GetStatus(ctx context.Context, walletAddress string) (types.ClaimStatus, error)
	BuildSponsoredGroup(ctx context.Context, txnBase64 string) (*service.SponsoredGroup, error)
	SubmitGroup(ctx context.Context, group []string) (*service.SubmitResult, error)
}

// AuthServiceInterface defines the admin authentication operations
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Authenticate(token string) (*auth.Claims, error)
	TokenTTL() time.Duration
}

// Pinger is a datastore the health endpoint checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the services the API serves
type Services struct {
	Settings      SettingsServiceInterface
	PrintRequests PrintRequestServiceInterface
	FreeMint      FreeMintServiceInterface
	Auth          AuthServiceInterface
}

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	handler       http.Handler
	httpServer    *http.Server
	settings      SettingsServiceInterface
	printRequests PrintRequestServiceInterface
	freeMint      FreeMintServiceInterface
	auth          AuthServiceInterface
	datastores    map[string]Pinger
	config        *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	AllowedOrigin     string // CORS origin allowed to send credentials
	SecureCookies     bool
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	SubmitTimeout     time.Duration // bounds POST /free-mint-submit, 0 for none
	RequestsPerSecond int           // per client IP
	Burst             int
}

// submitWriteMargin is the time left after the submit deadline to write the
// 504 response.
const submitWriteMargin = 5 * time.Second

// writeTimeout stretches WriteTimeout so a submission that runs to its
// deadline can still write its response.
func (c *ServerConfig) writeTimeout() time.Duration {
	if c.WriteTimeout <= 0 || c.SubmitTimeout <= 0 {
		return c.WriteTimeout
	}
	if minimum := c.SubmitTimeout + submitWriteMargin; c.WriteTimeout < minimum {
		return minimum
	}
	return c.WriteTimeout
}

// NewServer creates a new API server instance. datastores are pinged by
// GET /health, keyed by the name reported in the response.
func NewServer(config *ServerConfig, services Services, datastores map[string]Pinger) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		settings:      services.Settings,
		printRequests: services.PrintRequests,
		freeMint:      services.FreeMint,
		auth:          services.Auth,
		datastores:    datastores,
		config:        config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	s.setupRoutes()

	// The chain wraps the router rather than using router.Use so that CORS
	// preflights and unmatched routes pass through it too. Order matters:
	// the first wrapper listed runs innermost.
	var handler http.Handler = s.router
	handler = CompressionMiddleware(handler)
	handler = RateLimitMiddleware(rateLimiter)(handler)
	handler = CORSMiddleware(s.config.AllowedOrigin)(handler)
	handler = RecoveryMiddleware(handler)
	handler = LoggingMiddleware(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.writeTimeout(),
		IdleTimeout:       s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.NotFoundHandler = http.HandlerFunc(handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/booth-status", s.handleBoothStatus).Methods("GET")

	// Print requests
	s.router.HandleFunc("/print-request", s.handleCreatePrintRequest).Methods("POST")
	s.router.HandleFunc("/print-request", s.handleListPrintRequests).Methods("GET")
	s.router.HandleFunc("/check-print-request/{wallet_address}", s.handleCheckPrintRequest).Methods("GET")
	s.router.HandleFunc("/print-request/{id}", s.requireAdmin(s.handleUpdatePrintRequestStatus)).Methods("PATCH")

	// Admin
	s.router.HandleFunc("/admin-login", s.handleAdminLogin).Methods("POST")
	s.router.HandleFunc("/admin/print-request", s.requireAdmin(s.handleAdminListPrintRequests)).Methods("GET")
	s.router.HandleFunc("/admin/settings", s.requireAdmin(s.handleGetSettings)).Methods("GET")
	s.router.HandleFunc("/admin/settings", s.requireAdmin(s.handleUpdateSettings)).Methods("PATCH")

	// Free mint
	s.router.HandleFunc("/free-mint-status/{wallet_address}", s.handleFreeMintStatus).Methods("GET")
	s.router.HandleFunc("/free-mint-pool-txn", s.handleFreeMintPoolTxn).Methods("POST")
	s.router.HandleFunc("/free-mint-submit", s.handleFreeMintSubmit).Methods("POST")
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
