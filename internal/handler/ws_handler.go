/*
This file contains the HandleWebSocket function, which rate limits and
upgrades the HTTP connection, registers it with the connection registry, and
drives the client lifecycle until disconnect.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"relaychat/internal/app/chat"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// Connections start unauthenticated; the session handler takes over once the
// first envelope arrives.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r.RemoteAddr) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r.RemoteAddr))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connID := deps.Registry.NextConnID()
		client := chat.NewClient(connID, conn)
		deps.Registry.Register(connID, client)

		logx.Info("WebSocket connection established", "conn_id", connID)

		go client.WritePump()

		// ReadPump blocks for the life of the connection; the deferred
		// disconnect runs exactly once when it returns. The request context
		// is already canceled at that point, so cleanup gets a fresh one.
		defer func() {
			deps.Sessions.HandleDisconnect(context.Background(), connID)
			client.Close()
			logx.Info("WebSocket connection closed", "conn_id", connID)
		}()

		client.ReadPump(func(raw []byte) {
			deps.Sessions.HandleEnvelope(r.Context(), connID, client, raw)
		})
	}
}
