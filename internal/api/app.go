package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/nextdoorbuddy/neighborchat/internal/config"
	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/server"
	"github.com/nextdoorbuddy/neighborchat/internal/stats"
)

type NeighborChatApp struct {
	log            *log.Logger
	db             database.NeighborChatRepository
	mux            *http.Server
	cs             *server.ChatServer
	stats          *stats.StatsUpdater
	signingKey     []byte
	allowedOrigins []string
}

func NewNeighborChatApp(logger *log.Logger, cs *server.ChatServer, db database.NeighborChatRepository,
	su *stats.StatsUpdater, cfg *config.Config) *NeighborChatApp {
	s := &NeighborChatApp{
		log:            logger,
		db:             db,
		cs:             cs,
		stats:          su,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /api/rooms", s.authMiddleware(s.getRooms))
	mux.Handle("GET /api/rooms/available", s.authMiddleware(s.getAvailableRooms))
	mux.Handle("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.Handle("GET /api/rooms/{id}", s.authMiddleware(s.getRoom))
	mux.Handle("DELETE /api/rooms/{id}", s.authMiddleware(s.deactivateRoom))
	mux.Handle("POST /api/rooms/{id}/join", s.authMiddleware(s.joinRoom))
	mux.Handle("POST /api/rooms/{id}/leave", s.authMiddleware(s.leaveRoom))
	mux.Handle("GET /api/rooms/{id}/messages", s.authMiddleware(s.getMessages))
	mux.Handle("GET /api/rooms/{id}/members", s.authMiddleware(s.getMembers))
	mux.Handle("GET /api/rooms/{id}/unread-count", s.authMiddleware(s.getUnreadCount))
	mux.Handle("POST /api/rooms/{id}/mark-read", s.authMiddleware(s.markRead))
	mux.Handle("GET /api/users/online", s.authMiddleware(s.getOnlineUsers))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))
	mux.Handle("GET /metrics", su.Handler())
	mux.HandleFunc("GET /healthz", s.healthz)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mux = srv
	return s
}

func (s *NeighborChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *NeighborChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *NeighborChatApp) errorHandler(next http.Handler) http.Handler {
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

func (s *NeighborChatApp) healthz(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}
