package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/carservice-desk/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/carservice-desk/internal/http/middleware"
	"github.com/wolfman30/carservice-desk/internal/webchat"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// Config holds router configuration. Optional handlers left nil are not mounted.
type Config struct {
	Logger       *logging.Logger
	Conversation *handlers.ConversationHandler
	Appointments *handlers.AppointmentsHandler
	Transcripts  *handlers.TranscriptHandler
	WebChat      *webchat.Handler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP limit on the conversation endpoints; zero disables it.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates the chi router with every route configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(talk chi.Router) {
		if cfg.RateLimitPerSecond > 0 {
			talk.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}
		if cfg.Conversation != nil {
			talk.Post("/start", cfg.Conversation.Start)
			talk.Post("/listen", cfg.Conversation.Listen)
			if cfg.Conversation.SupportsAudio() {
				talk.Post("/listen/audio", cfg.Conversation.ListenAudio)
			}
		}
		if cfg.WebChat != nil {
			talk.Get("/ws", cfg.WebChat.HandleWebSocket)
			talk.Get("/chat/history", cfg.WebChat.HandleHistory)
		}
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.Compress(5))
		if cfg.Appointments != nil {
			admin.Get("/appointments", cfg.Appointments.List)
		}
		if cfg.Transcripts != nil {
			admin.Get("/conversations/{sessionID}", cfg.Transcripts.Get)
		}
	})

	return r
}
