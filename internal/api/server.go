package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig carries the HTTP settings.
type ServerConfig struct {
	Port        string
	AdminAPIKey string
	CORSOrigins []string
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(cfg ServerConfig, positions *Handler, system *SystemHandler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(cfg, positions, system),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter builds the route tree. Admin POSTs require the bearer key when one is set.
func NewRouter(cfg ServerConfig, positions *Handler, system *SystemHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	admin := func(h http.HandlerFunc) http.Handler {
		if cfg.AdminAPIKey == "" {
			return h
		}
		return requireAuth(cfg.AdminAPIKey, h)
	}

	r.Get("/health", system.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/positions", func(r chi.Router) {
			r.Get("/wallets", positions.ListWallets)
			r.Route("/{walletId}", func(r chi.Router) {
				r.Get("/", positions.GetPortfolio)
				r.Get("/summary", positions.GetSummary)
				r.Get("/unclaimed-fees", positions.GetUnclaimedFees)
				r.Get("/earnings", positions.GetEarnings)
				r.Get("/history", positions.GetHistory)
				r.Get("/pool/{poolAddress}", positions.GetPosition)
				r.Method(http.MethodPost, "/refresh", admin(positions.Refresh))
			})
		})
		r.Route("/prices", func(r chi.Router) {
			r.Get("/", system.ListPrices)
			r.Get("/status", system.PriceStatus)
			r.Method(http.MethodPost, "/clear", admin(system.ClearPrices))
			r.Get("/{mint}", system.GetPrice)
		})
		r.Route("/scheduler", func(r chi.Router) {
			r.Get("/status", system.SchedulerStatus)
			r.Method(http.MethodPost, "/tasks/{name}/run", admin(system.RunTask))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route "+r.Method+" "+r.URL.Path+" not found")
	})

	return r
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
