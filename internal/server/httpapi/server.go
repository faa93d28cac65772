// Package httpapi exposes the account service as a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/policyportal/internal/logging"
	"github.com/dmitrijs2005/policyportal/internal/server/auth"
	"github.com/dmitrijs2005/policyportal/internal/server/models"
	"github.com/dmitrijs2005/policyportal/internal/server/ratelimit"
	"github.com/dmitrijs2005/policyportal/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 10 * time.Second

// AccountService is the business API the handlers call.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.Session, error)
	Login(ctx context.Context, in services.LoginInput) (*services.Session, error)
	GetProfile(ctx context.Context, identityID string) (*models.Profile, error)
	UpdatePassword(ctx context.Context, identityID string, in services.PasswordInput) error
	UpdateEmail(ctx context.Context, identityID string, in services.EmailInput) (string, error)
	UpdateProfile(ctx context.Context, identityID string, in services.ProfileInput) (*models.Profile, error)
	Logout(ctx context.Context, token string) error
}

// TokenValidator authenticates bearer tokens.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Subject, error)
}

type Options struct {
	// Production hides panic details from 500 responses.
	Production     bool
	AllowedOrigins []string
	// RequestTimeout becomes the context deadline of every request; zero
	// disables it.
	RequestTimeout time.Duration
	// Limiter throttles register and login per client IP; nil disables it.
	Limiter ratelimit.Limiter
	// TrustProxyHeaders takes the client IP from X-Forwarded-For/X-Real-IP
	// instead of the connection's remote address.
	TrustProxyHeaders bool
}

type Server struct {
	address  string
	accounts AccountService
	tokens   TokenValidator
	logger   logging.Logger
	opts     Options
}

func NewServer(address string, l logging.Logger, accounts AccountService, tokens TokenValidator, opts Options) *Server {
	return &Server{
		address:  address,
		accounts: accounts,
		tokens:   tokens,
		logger:   l.With("module", "http_server"),
		opts:     opts,
	}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(s.rateLimit).Post("/register", s.register)
		r.With(s.rateLimit).Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/me", s.me)
			r.Post("/logout", s.logout)
			r.Put("/password", s.updatePassword)
			r.Put("/email", s.updateEmail)
			r.Put("/profile", s.updateProfile)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(sctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
