package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/go-chathub/chathub/internal/config"
	"github.com/go-chathub/chathub/internal/metrics"
	"github.com/go-chathub/chathub/internal/server"
)

// ChatHubApp is the HTTP surface: read-only dumps of hub state, the
// attachment upload side-channel, the metrics endpoint and the websocket
// upgrade.
type ChatHubApp struct {
	log            *log.Logger
	srv            *http.Server
	cs             *server.ChatServer
	uploadDir      string
	maxUploadBytes int64
	allowedOrigins []string
}

func NewChatHubApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, m *metrics.PromProvider, cfg *config.Config) *ChatHubApp {
	s := &ChatHubApp{
		log:            logger,
		cs:             cs,
		uploadDir:      cfg.UploadDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /api/rooms", s.getRooms)
	mux.HandleFunc("GET /api/users", s.getUsers)
	mux.HandleFunc("GET /api/messages/{roomId}", s.getMessages)
	mux.HandleFunc("POST /api/upload", s.upload)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /{$}", s.root)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *ChatHubApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *ChatHubApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *ChatHubApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Printf("panic: %v", panicError)
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}
