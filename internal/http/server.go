// Package http exposes the JSON API: authentication, vehicle and transaction
// management, reports, and the live event stream.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fleetledger/internal/auth"
	"fleetledger/internal/cache"
	"fleetledger/internal/core"
	"fleetledger/internal/events"
	"fleetledger/internal/live"
	"fleetledger/internal/middleware/ratelimit"
	"fleetledger/internal/middleware/security"
	"fleetledger/internal/middleware/trace"
	"fleetledger/internal/store"
)

type Server struct {
	http.Server

	store     store.Store
	auth      *auth.Service
	publisher events.Publisher

	vehicleFeed     *live.Feed[core.Vehicle]
	transactionFeed *live.Feed[core.Transaction]

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	statsCache *cache.LRU[dashboardStats]
	chartCache *cache.LRU[dashboardChart]
	janitor    *cache.Janitor

	shutdownOnce sync.Once
}

// Options carries everything NewServer needs; zero cache and rate limit
// values fall back to defaults.
type Options struct {
	Addr      string
	Store     store.Store
	Auth      *auth.Service
	Publisher events.Publisher

	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 500
	}

	s := &Server{
		store:     opts.Store,
		auth:      opts.Auth,
		publisher: opts.Publisher,

		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(clientIP),

		statsCache: cache.NewLRU[dashboardStats](opts.CacheSize, opts.CacheTTL),
		chartCache: cache.NewLRU[dashboardChart](opts.CacheSize, opts.CacheTTL),
		janitor:    cache.NewJanitor(),
	}

	s.vehicleFeed = live.NewFeed("vehicles", func(ctx context.Context, ownerID string) ([]core.Vehicle, error) {
		return s.store.ListVehicles(ctx, ownerID)
	})
	s.transactionFeed = live.NewFeed("transactions", func(ctx context.Context, ownerID string) ([]core.Transaction, error) {
		return s.store.ListTransactions(ctx, ownerID, 0)
	})

	s.janitor.Register(s.statsCache)
	s.janitor.Register(s.chartCache)
	s.janitor.Start(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/auth/signout", s.handleSignOut)
	protected.HandleFunc("POST /api/auth/password", s.handleChangePassword)
	protected.HandleFunc("POST /api/auth/email", s.handleChangeEmail)

	protected.HandleFunc("GET /api/profile", s.handleGetProfile)
	protected.HandleFunc("PATCH /api/profile", s.handleUpdateProfile)
	protected.HandleFunc("POST /api/profile/verify-email", s.handleVerifyEmail)

	protected.HandleFunc("GET /api/vehicles", s.handleListVehicles)
	protected.HandleFunc("POST /api/vehicles", s.handleCreateVehicle)
	protected.HandleFunc("PATCH /api/vehicles/{id}", s.handleUpdateVehicle)
	protected.HandleFunc("DELETE /api/vehicles/{id}", s.handleDeleteVehicle)

	protected.HandleFunc("GET /api/transactions", s.handleListTransactions)
	protected.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	protected.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	protected.HandleFunc("GET /api/categories", s.handleListCategories)
	protected.HandleFunc("POST /api/categories", s.handleAddCategory)
	protected.HandleFunc("DELETE /api/categories", s.handleRemoveCategory)

	protected.HandleFunc("GET /api/dashboard/stats", s.handleDashboardStats)
	protected.HandleFunc("GET /api/dashboard/chart", s.handleDashboardChart)

	protected.HandleFunc("GET /api/reports/weekly", s.handleWeeklyReport)
	protected.HandleFunc("GET /api/reports/weekly.csv", s.handleWeeklyReportCSV)
	protected.HandleFunc("GET /api/reports/vehicle", s.handleVehicleReport)
	protected.HandleFunc("GET /api/reports/monthly", s.handleMonthlyReport)

	protected.HandleFunc("GET /api/events", s.handleEvents)

	mux.Handle("/api/", s.auth.Middleware(protected))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(clientIP)

	s.Addr = opts.Addr
	s.Handler = headers.Middleware(s.tracer.Middleware(limited(mux)))
	s.ReadHeaderTimeout = 10 * time.Second

	return s
}

// notifyChange fans a mutation out to every interested party: the AMQP
// publisher, the live feeds, and the per-owner report caches.
func (s *Server) notifyChange(ctx context.Context, ownerID, entity, action, entityID string) {
	ev := events.NewChangeEvent(entity, action, ownerID, entityID)
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to publish change event",
			"entity", entity, "action", action, "error", err)
	}

	s.statsCache.DeletePrefix(ownerID + ":")
	s.chartCache.DeletePrefix(ownerID + ":")

	if entity == events.EntityVehicle {
		s.vehicleFeed.Notify(ctx, ownerID)
		// Vehicle renames and deletes change the names shown on transactions.
		s.transactionFeed.Notify(ctx, ownerID)
		return
	}
	s.transactionFeed.Notify(ctx, ownerID)
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
