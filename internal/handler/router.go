/*
This file defines the main Router, applying middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers
(API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

const (
	VerifyRate  = 0.05
	VerifyBurst = 2
	AuthRate    = 0.2
	AuthBurst   = 5
	WsRate      = 0.5
	WsBurst     = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global
// and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	verifyLimiter := limiter.NewIPRateLimiter(rate.Limit(VerifyRate), VerifyBurst, "send_verification")
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst, "auth")
	wsLimiter := limiter.NewIPRateLimiter(rate.Limit(WsRate), WsBurst, "ws")

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "RelayChat Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Method(http.MethodPost, "/send-verification",
				verifyLimiter.Middleware(HandleSendVerification(deps)))
			auth.Method(http.MethodPost, "/register",
				authLimiter.Middleware(HandleRegister(deps)))
			auth.Method(http.MethodPost, "/login",
				authLimiter.Middleware(HandleLogin(deps)))
			auth.Method(http.MethodPost, "/telegram",
				authLimiter.Middleware(HandleTelegramLogin(deps)))
			auth.Post("/verify-token", HandleVerifyToken(deps))
		})

		api.Route("/chats", func(chats chi.Router) {
			chats.Get("/", HandleListChats(deps))
			chats.Post("/private", HandleCreatePrivateChat(deps))
			chats.Get("/{chatID}/messages", HandleGetMessages(deps))
			chats.Post("/{chatID}/messages", HandleSendMessage(deps))
			chats.Post("/{chatID}/leave", HandleLeaveChat(deps))
		})

		api.Route("/contacts", func(contacts chi.Router) {
			contacts.Get("/", HandleListContacts(deps))
			contacts.Post("/", HandleAddContact(deps))
			contacts.Get("/search", HandleSearchContacts(deps))
			contacts.Delete("/{userID}", HandleRemoveContact(deps))
		})

		api.Get("/users/search", HandleSearchUsers(deps))

		api.Post("/media/file", HandleUploadMedia(deps, UploadKindFile))
		api.Post("/media/voice", HandleUploadMedia(deps, UploadKindVoice))
		api.Get("/media/download", HandlePresignDownload(deps))
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, wsLimiter, deps))

	return r
}
