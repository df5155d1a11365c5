package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"planetguard/internal/service"
	"planetguard/internal/transport/rest/handler"
	"planetguard/internal/transport/rest/middleware"
	"planetguard/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService *service.AuthService
	GameService *service.GameService
	WSHub       *ws.Hub
	Logger      *zap.Logger

	// AllowedOrigins is sent as Access-Control-Allow-Origin. Empty means "*".
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := mux.NewRouter()

	// Initialize handlers
	gameHandler := handler.NewGameHandler(c.GameService, logger.Named("http"))
	playerHandler := handler.NewPlayerHandler(c.GameService, logger.Named("http"))
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.GameService, logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/leaderboard", playerHandler.Leaderboard).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	// User routes (require user auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/me/stats", playerHandler.Stats).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/games", gameHandler.Create).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games", gameHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/games/history", playerHandler.History).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}", gameHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/join", gameHandler.Join).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/leave", gameHandler.Leave).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/start", gameHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/answer", gameHandler.Answer).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/monster", gameHandler.Monster).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/battle/end", gameHandler.EndBattle).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/vote", gameHandler.Vote).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowedOrigins := strings.Join(origins, ", ")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
