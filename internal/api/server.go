// Package api exposes the producer directory over REST.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"terroir/internal/auth"
	"terroir/internal/config"
	"terroir/internal/database"
	"terroir/internal/events"
	"terroir/internal/geocode"
	"terroir/internal/metrics"
)

// HTTPServer holds the handler dependencies.
type HTTPServer struct {
	db       *database.DB
	log      *zerolog.Logger
	tokens   *auth.Manager
	geocoder *geocode.Client
	bus      *events.Bus

	mediaDir       string
	maxUploadBytes int64

	ratePerSecond rate.Limit
	rateBurst     int
	limiterMu     sync.Mutex
	limiters      map[string]*rate.Limiter

	mu         sync.RWMutex
	categories *config.CategoriesConfig
}

// New constructs the server. geocoder and bus may be nil in tests.
func New(
	db *database.DB,
	tokens *auth.Manager,
	geocoder *geocode.Client,
	bus *events.Bus,
	categories *config.CategoriesConfig,
	mediaDir string,
	maxUploadBytes int64,
	ratePerSecond float64,
	rateBurst int,
	log *zerolog.Logger,
) *HTTPServer {
	if ratePerSecond <= 0 {
		ratePerSecond = 50
	}
	if rateBurst <= 0 {
		rateBurst = 100
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &HTTPServer{
		db:             db,
		log:            log,
		tokens:         tokens,
		geocoder:       geocoder,
		bus:            bus,
		categories:     categories,
		mediaDir:       mediaDir,
		maxUploadBytes: maxUploadBytes,
		ratePerSecond:  rate.Limit(ratePerSecond),
		rateBurst:      rateBurst,
		limiters:       make(map[string]*rate.Limiter),
	}
}

// SetCategories swaps the category config after a hot reload.
func (s *HTTPServer) SetCategories(cfg *config.CategoriesConfig) {
	s.mu.Lock()
	s.categories = cfg
	s.mu.Unlock()
}

func (s *HTTPServer) categoriesConfig() *config.CategoriesConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories
}

// Routes wires every endpoint onto a fresh mux.
func (s *HTTPServer) Routes() http.Handler {
	mux := http.NewServeMux()

	// auth
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/auth/me", s.withAuth(s.handleMe))
	mux.HandleFunc("PATCH /api/auth/me", s.withAuth(s.handleUpdateMe))
	mux.HandleFunc("POST /api/auth/change-password", s.withAuth(s.handleChangePassword))

	// producers
	mux.HandleFunc("GET /api/producers", s.handleListProducers)
	mux.HandleFunc("GET /api/producers/nearby", s.handleNearbyProducers)
	mux.HandleFunc("GET /api/producers/{id}", s.handleGetProducer)
	mux.HandleFunc("POST /api/producers", s.withAuth(s.handleCreateProducer))
	mux.HandleFunc("PATCH /api/producers/{id}", s.withAuth(s.handleUpdateProducer))
	mux.HandleFunc("DELETE /api/producers/{id}", s.withAuth(s.handleDeleteProducer))
	mux.HandleFunc("POST /api/producers/{id}/photos", s.withAuth(s.handleUploadProducerPhoto))
	mux.HandleFunc("DELETE /api/photos/{id}", s.withAuth(s.handleDeleteProducerPhoto))
	mux.HandleFunc("GET /api/producers/{id}/schedule/week", s.handleProducerWeekGrid)

	// sale modes
	mux.HandleFunc("GET /api/producers/{id}/sale-modes", s.handleListSaleModes)
	mux.HandleFunc("POST /api/producers/{id}/sale-modes", s.withAuth(s.handleCreateSaleMode))
	mux.HandleFunc("GET /api/sale-modes/{id}", s.handleGetSaleMode)
	mux.HandleFunc("PATCH /api/sale-modes/{id}", s.withAuth(s.handleUpdateSaleMode))
	mux.HandleFunc("DELETE /api/sale-modes/{id}", s.withAuth(s.handleDeleteSaleMode))
	mux.HandleFunc("GET /api/sale-modes/{id}/status", s.handleSaleModeStatus)

	// products
	mux.HandleFunc("GET /api/products", s.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", s.handleGetProduct)
	mux.HandleFunc("POST /api/producers/{id}/products", s.withAuth(s.handleCreateProduct))
	mux.HandleFunc("PATCH /api/products/{id}", s.withAuth(s.handleUpdateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", s.withAuth(s.handleDeleteProduct))
	mux.HandleFunc("POST /api/products/{id}/photos", s.withAuth(s.handleUploadProductPhoto))
	mux.HandleFunc("DELETE /api/product-photos/{id}", s.withAuth(s.handleDeleteProductPhoto))

	// categories
	mux.HandleFunc("GET /api/categories", s.handleListActivityCategories)
	mux.HandleFunc("GET /api/product-categories", s.handleListProductCategories)

	// geocoding proxy
	mux.HandleFunc("GET /api/geocode/search", s.handleGeocodeSearch)
	mux.HandleFunc("GET /api/geocode/reverse", s.handleGeocodeReverse)

	// stored photos
	mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaDir))))

	return s.withRateLimit(mux)
}

// withRateLimit applies a per-client request budget keyed by remote IP.
func (s *HTTPServer) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.clientLimiter(r).Allow() {
			metrics.IncHTTPRequest(r.URL.Path, "429")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) clientLimiter(r *http.Request) *rate.Limiter {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	limiter, ok := s.limiters[host]
	if !ok {
		// Bounded by dropping the whole map; clients re-fill their bucket
		// from a clean slate.
		if len(s.limiters) > 10000 {
			s.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(s.ratePerSecond, s.rateBurst)
		s.limiters[host] = limiter
	}
	return limiter
}

type ctxKey int

const userIDKey ctxKey = 0

// withAuth checks the bearer token and stores the user id in the context.
func (s *HTTPServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization")
			return
		}
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}
		claims, err := s.tokens.Verify(parts[1], auth.KindAccess)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, claims.UserID)))
	}
}

// userID returns the authenticated user's id; zero when unauthenticated.
func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

// pathID parses a numeric path segment.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// ListenAndServe runs the API server until the context is cancelled.
func (s *HTTPServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	s.log.Info().Str("addr", addr).Msg("API server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
