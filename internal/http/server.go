// Package http serves the wallet page and its JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wallet/internal/aggregate"
	"wallet/internal/cache"
	"wallet/internal/core"
	"wallet/internal/ledger"
	"wallet/internal/log"
	"wallet/internal/middleware/ratelimit"
	"wallet/internal/middleware/security"
	"wallet/internal/middleware/trace"
	appweb "wallet/web"
)

// Ledger is the part of the ledger store the handlers use.
type Ledger interface {
	Snapshot() core.Snapshot
	Subscribe(fn ledger.Observer) (cancel func())
	AddIncome(amount core.Money) (core.Snapshot, error)
	AddExpense(d core.ExpenseDraft) (core.Transaction, error)
	EditExpense(id int64, d core.ExpenseDraft) (core.Transaction, error)
	DeleteExpense(id int64) (core.Transaction, error)
}

var _ Ledger = (*ledger.Store)(nil)

// Config holds the server settings.
type Config struct {
	Addr            string
	Currency        string
	SummaryCacheTTL time.Duration
	RateLimitRPM    int
	MetricsEnabled  bool
	// Ready, when set, is checked by /readyz.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	cfg       Config
	ledger    Ledger
	logger    *log.Logger
	sl        *log.StructuredLogger
	templates *template.Template

	hub          *Hub
	summaryCache *cache.LRUCache[aggregate.Summary]
	caches       *cache.Manager
	limiter      *ratelimit.Limiter
	unsubscribe  func()

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg Config, l Ledger, logger *log.Logger) *Server {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.SummaryCacheTTL <= 0 {
		cfg.SummaryCacheTTL = 5 * time.Minute
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		cfg:          cfg,
		ledger:       l,
		logger:       logger,
		sl:           log.NewStructuredLogger(logger),
		hub:          NewHub(),
		summaryCache: cache.NewLRUCache[aggregate.Summary](32, cfg.SummaryCacheTTL),
		caches:       cache.NewManager(logger),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitRPM}),
		shutdown:     make(chan struct{}),
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.caches.Register("summary", s.summaryCache)
	s.caches.StartCleanup(cfg.SummaryCacheTTL)
	s.unsubscribe = l.Subscribe(s.publishSnapshot)
	return s
}

func (s *Server) routes() http.Handler {
	ips := security.NewClientIPResolver()
	tracer := trace.NewMiddleware(s.logger, ips.ClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
			WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, ips.ClientIP(r), log.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
	})

	r := chi.NewRouter()
	r.Use(tracer.Handler)
	r.Use(middleware.Recoverer)
	r.Use(headers.Handler)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/wallet", s.handleWallet)
		r.Get("/summary", s.handleSummary)
		r.Get("/categories", s.handleCategories)
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/income", s.handleAddIncome)
			r.Post("/expenses", s.handleAddExpense)
			r.Put("/expenses/{id}", s.handleEditExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
		})
	})
	return r
}

// summary returns the cached Summary for the snapshot's version.
func (s *Server) summary(snap core.Snapshot) aggregate.Summary {
	return s.summaryCache.GetOrCompute(strconv.FormatInt(snap.Version, 10), func() aggregate.Summary {
		return aggregate.Summarize(snap)
	})
}

// Shutdown closes event streams, stops background goroutines and then
// shuts the HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
