package server

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solecart/internal/ratelimit"
	"solecart/internal/usertoken"
	"solecart/internal/util"
	"solecart/services/cart/internal/app"
)

const defaultMaxBodyBytes = 64 * 1024

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	TokenVerifier  *usertoken.Verifier
	Limiter        *ratelimit.FixedWindowLimiter
	Registry       *prometheus.Registry
	TrustedProxies *util.TrustedProxies
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Server exposes HTTP endpoints for the cart service.
type Server struct {
	app            *app.App
	tokenVerifier  *usertoken.Verifier
	limiter        *ratelimit.FixedWindowLimiter
	registry       *prometheus.Registry
	metrics        *Metrics
	trusted        *util.TrustedProxies
	allowedOrigins []string
	validate       *validator.Validate
	mux            *http.ServeMux
	maxBodyBytes   int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	if cfg.TokenVerifier == nil {
		return nil, errors.New("server: token verifier is required")
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		app:            cfg.App,
		tokenVerifier:  cfg.TokenVerifier,
		limiter:        cfg.Limiter,
		registry:       reg,
		metrics:        NewMetrics(reg),
		trusted:        cfg.TrustedProxies,
		allowedOrigins: cfg.AllowedOrigins,
		validate:       newValidator(),
		mux:            http.NewServeMux(),
		maxBodyBytes:   maxBodyBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("cart", s.trusted, util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, s.mux))))
}

func (s *Server) routes() {
	s.handle("/healthz", "/healthz", http.HandlerFunc(s.handleHealth))
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// catalog
	s.handle("/api/products", "/api/products", http.HandlerFunc(s.handleProducts))
	s.handle("/api/products/", "/api/products/{id}", http.HandlerFunc(s.handleProductByID))

	// cart
	s.handle("/api/cart", "/api/cart", s.withUser(s.handleCart))
	s.handle("/api/cart/", "/api/cart/{productId}/{size}", s.withUser(s.handleCartItem))
}

func (s *Server) handle(pattern, route string, h http.Handler) {
	s.mux.Handle(pattern, s.metrics.instrument(route, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, string)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		userID, err := s.tokenVerifier.VerifySubject(token)
		if err != nil {
			util.LoggerFromContext(r.Context()).Debug("token rejected", "err", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := util.ContextWithLogger(r.Context(), util.LoggerFromContext(r.Context()).With("user_id", userID))
		next(w, r.WithContext(ctx), userID)
	})
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
