package rest

import (
	"chat-dm/auth"
	"chat-dm/domain"
	"chat-dm/observability"
	"chat-dm/services"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are the local front-end dev servers.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:3000",
}

// Options tunes the HTTP surface.
type Options struct {
	Production     bool
	AllowedOrigins []string
	UploadsRoot    string
	MaxUploadBytes int64
	StreamBuffer   int
	Heartbeat      time.Duration
}

// Server holds the handlers of the messaging API.
type Server struct {
	log      *slog.Logger
	service  services.IChatService
	verifier *auth.Verifier
	metrics  *observability.Metrics
	options  Options
	started  time.Time

	closing   chan struct{}
	closeOnce sync.Once
}

func NewServer(log *slog.Logger, service services.IChatService, verifier *auth.Verifier,
	metrics *observability.Metrics, options Options) *Server {
	if len(options.AllowedOrigins) == 0 {
		options.AllowedOrigins = DefaultAllowedOrigins
	}
	if options.StreamBuffer <= 0 {
		options.StreamBuffer = 16
	}
	if options.Heartbeat <= 0 {
		options.Heartbeat = 25 * time.Second
	}
	return &Server{
		log:      log,
		service:  service,
		verifier: verifier,
		metrics:  metrics,
		options:  options,
		started:  time.Now().UTC(),
		closing:  make(chan struct{}),
	}
}

// CloseStreams ends every open event stream. Meant for graceful shutdown,
// where the server would otherwise wait on clients that never leave.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// Routes configures every route and middleware.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(s.accessLog)
	router.Use(s.recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.options.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/", s.status)
	router.Get("/healthz", s.health)
	if s.metrics != nil {
		router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	router.Handle(domain.PublicFilesPrefix+"*",
		http.StripPrefix(domain.PublicFilesPrefix, publicFiles(s.options.UploadsRoot)))

	router.Route("/api/messages", func(r chi.Router) {
		r.Use(auth.Middleware(s.verifier, s.log, s.authFailure))
		r.Post("/get-messages", s.getMessages)
		r.Post("/upload-file", s.uploadFile)
		r.Post("/send-message", s.sendMessage)
		r.Get("/stream", s.stream)
	})

	return router
}
