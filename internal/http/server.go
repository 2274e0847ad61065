package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"caixinha/internal/assistant"
	"caixinha/internal/ledger"
	"caixinha/internal/log"
	appweb "caixinha/web"
)

// ReadinessCheck reports whether an optional dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Options configures the dashboard server.
type Options struct {
	Addr               string
	Ledger             *ledger.Service
	Chat               *assistant.Session
	Logger             *log.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int
	ReadinessChecks    map[string]ReadinessCheck
}

// Server serves the dashboard, its htmx partials and a small JSON API.
type Server struct {
	http.Server
	router    *mux.Router
	templates *template.Template

	ledger *ledger.Service
	chat   *assistant.Session

	logger      *log.Logger
	ops         *log.StructuredLogger
	limiter     *writeLimiter
	suspicious  atomic.Int64
	readiness   map[string]ReadinessCheck
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		router:    mux.NewRouter(),
		ledger:    opts.Ledger,
		chat:      opts.Chat,
		logger:    logger,
		ops:       log.NewStructuredLogger(logger),
		limiter:   newWriteLimiter(opts.RateLimitPerMinute),
		readiness: opts.ReadinessChecks,
		startedAt: time.Now(),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	s.routes()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// credentials stay off while the wildcard origin is allowed
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "HX-Request", "HX-Target", "HX-Trigger", "HX-Current-URL"},
		ExposedHeaders:   []string{"HX-Trigger"},
		AllowCredentials: false,
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		// outside the router so unmatched paths are tagged and screened too
		Handler:           c.Handler(s.withRequestContext(s.router)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		alert(http.StatusNotFound, "Página não encontrada").write(w)
	})

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, req)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/ui/summary", s.handleSummaryPartial).Methods(http.MethodGet)
	r.HandleFunc("/ui/members", s.handleMembersPartial).Methods(http.MethodGet)
	r.HandleFunc("/ui/chat", s.handleChatPartial).Methods(http.MethodGet)

	r.HandleFunc("/members", s.handleAddMember).Methods(http.MethodPost)
	r.HandleFunc("/members/{id}", s.handleRemoveMember).Methods(http.MethodDelete)
	r.HandleFunc("/members/{id}/payment", s.handleTogglePayment).Methods(http.MethodPost)
	r.HandleFunc("/members/{id}/fine", s.handleToggleFine).Methods(http.MethodPost)
	r.HandleFunc("/members/{id}/loan", s.handleSetLoan).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/members/{id}/loan", s.handleRemoveLoan).Methods(http.MethodDelete)

	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/roster", s.handleAPIRoster).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleAPISummary).Methods(http.MethodGet)
	api.HandleFunc("/rules", s.handleAPIRules).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.handleAPIChat).Methods(http.MethodGet)
}

// Shutdown stops the HTTP server; later calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
