package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/storage"
	"github.com/claude/healthtrends/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"
)

// PipelineFunc returns the chart pipeline reading the given user's data.
type PipelineFunc func(userID int) *metrics.Pipeline

// Server holds dependencies for HTTP handlers.
type Server struct {
	pipelines PipelineFunc
	db        *storage.DB // nil in remote mode
	tel       *telemetry.Manager
	log       *slog.Logger
	apiKey    string
	router    chi.Router

	ts      *local.Client
	devUser UserInfo
	devID   int

	mu       sync.Mutex
	displays map[int]*userDisplay
}

// userDisplay is one user's displayed chart and its event subscribers.
type userDisplay struct {
	display metrics.Display
	hub     *hub
}

// New creates a new Server with all routes configured. db may be nil, in
// which case the storage-backed routes are not mounted. tel may be nil.
func New(pipelines PipelineFunc, db *storage.DB, tel *telemetry.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		pipelines: pipelines,
		db:        db,
		tel:       tel,
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
		devUser:   UserInfo{Login: "local", DisplayName: "Local Dev User"},
		devID:     1,
		displays:  make(map[int]*userDisplay),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches identity resolution from the dev user to tailnet
// WhoIs lookups.
func (s *Server) SetTailscale(lc *local.Client) {
	s.ts = lc
}

// SetDevUser sets the identity used when Tailscale is not enabled.
func (s *Server) SetDevUser(id int, info UserInfo) {
	s.devID = id
	s.devUser = info
}

// SetMetricsHandler mounts the Prometheus scrape endpoint.
func (s *Server) SetMetricsHandler(h http.Handler) {
	s.router.Handle("/metrics", h)
}

// SetMCPHandler mounts an MCP transport at /mcp behind identity resolution.
func (s *Server) SetMCPHandler(h http.Handler) {
	s.router.With(s.identity).Handle("/mcp", h)
}

// UserID returns the user resolved for r by the identity middleware.
func UserID(r *http.Request) int {
	return userIDFromContext(r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.tel != nil {
		s.router.Use(RequestMetrics(s.tel))
	}
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/metrics", s.handleCatalog)
		r.Get("/chart", s.handleChart)
		r.Get("/chart/current", s.handleCurrentChart)
		r.Get("/chart/events", s.handleChartEvents)
		r.Get("/derived", s.handleDerived)
		r.Get("/calories", s.handleCalories)

		if s.db == nil {
			return
		}
		r.Get("/stats", s.handleStats)
		r.Get("/ingest-logs", s.handleIngestLogs)

		// Write endpoints (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/records", s.handleInsertRecords)
			r.Put("/profile", s.handlePutProfile)
			r.Put("/targets/{type}", s.handlePutTarget)
		})
	})
}

// displayFor returns the display slot of a user, creating it on first use.
func (s *Server) displayFor(userID int) *userDisplay {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.displays[userID]
	if !ok {
		d = &userDisplay{hub: newHub()}
		s.displays[userID] = d
	}
	return d
}
