/*
This file covers the chat surface: listing chats, opening private chats, and
reading and sending messages over REST. Messages sent here are also fanned out
to live realtime connections so both transports observe the same stream.
*/
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"relaychat/internal/app/chat"
	"relaychat/internal/app/store"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

// currentUserID extracts the authenticated user from the request context, or
// 0 for anonymous requests.
func currentUserID(r *http.Request) int64 {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return 0
	}
	return payload.UserID
}

// chatIDParam parses the {chatID} route parameter.
func chatIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireParticipant checks that the user is an active participant of the
// chat, writing the appropriate error response otherwise.
func requireParticipant(w http.ResponseWriter, r *http.Request, deps *AppDeps, chatID, userID int64) bool {
	c, err := deps.Store.FindChat(r.Context(), chatID)
	if err != nil {
		logx.Error(err, "Failed to load chat", "chat_id", chatID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return false
	}
	if c == nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrChatNotFound))
		return false
	}

	member, err := deps.Store.IsActiveParticipant(r.Context(), chatID, userID)
	if err != nil {
		logx.Error(err, "Failed to check chat membership", "chat_id", chatID, "user_id", userID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return false
	}
	if !member {
		resp.RespondError(w, r, errs.NewError(errs.ErrChatAccessDenied))
		return false
	}
	return true
}

// HandleListChats returns the caller's chat list with previews and unread
// counters.
func HandleListChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		chats, err := deps.Store.ListUserChats(r.Context(), userID)
		if err != nil {
			logx.Error(err, "Failed to list chats", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"chats": chats})
	}
}

// HandleCreatePrivateChat opens a private chat with another user, returning
// the existing chat when one is already shared.
func HandleCreatePrivateChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var body struct {
			UserID int64 `json:"user_id"`
		}
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}
		if body.UserID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if body.UserID == userID {
			resp.RespondError(w, r, errs.NewError(errs.ErrChatWithSelf))
			return
		}

		other, err := deps.Store.GetUserByID(r.Context(), body.UserID)
		if err != nil {
			logx.Error(err, "Failed to load chat partner", "user_id", body.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if other == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		existing, err := deps.Store.FindPrivateChatBetween(r.Context(), userID, body.UserID)
		if err != nil {
			logx.Error(err, "Failed to look up private chat")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if existing != nil {
			resp.RespondSuccess(w, r, map[string]any{"chat": existing.View(), "created": false})
			return
		}

		created, err := deps.Store.CreatePrivateChat(r.Context(), userID, body.UserID)
		if err != nil {
			logx.Error(err, "Failed to create private chat")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"chat": created.View(), "created": true})
	}
}

// HandleLeaveChat ends the caller's membership in the chat. Their realtime
// subscriptions lapse naturally: the joined-set is per-connection state and
// future join_chat envelopes fail the membership check.
func HandleLeaveChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		chatID, ok := chatIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !requireParticipant(w, r, deps, chatID, userID) {
			return
		}

		if err := deps.Store.RemoveParticipant(r.Context(), chatID, userID); err != nil {
			logx.Error(err, "Failed to leave chat", "chat_id", chatID, "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"status": "left"})
	}
}

// HandleGetMessages returns a chronological page of a chat's messages and
// marks the other participants' messages as read.
func HandleGetMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		chatID, ok := chatIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !requireParticipant(w, r, deps, chatID, userID) {
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		messages, err := deps.Store.ListMessages(r.Context(), chatID, limit, offset)
		if err != nil {
			logx.Error(err, "Failed to list messages", "chat_id", chatID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.Store.MarkAllRead(r.Context(), chatID, userID); err != nil {
			logx.Warn("Failed to mark messages read", "chat_id", chatID, "user_id", userID)
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

// HandleSendMessage persists a text message sent over REST and fans it out to
// the chat's live realtime connections.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		chatID, ok := chatIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var body struct {
			Content          string `json:"content"`
			Type             string `json:"type"`
			ReplyToMessageID *int64 `json:"reply_to_message_id"`
		}
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}
		if body.Content == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentEmpty))
			return
		}
		if len(body.Content) > chat.MaxContentBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		if !requireParticipant(w, r, deps, chatID, userID) {
			return
		}

		msg, err := deps.Store.AppendMessage(r.Context(), store.AppendMessageParams{
			ChatID:           chatID,
			SenderID:         userID,
			Type:             body.Type,
			Content:          body.Content,
			ReplyToMessageID: body.ReplyToMessageID,
		})
		if err != nil {
			logx.Error(err, "Failed to persist message", "chat_id", chatID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		view := msg.View()
		deps.Broadcaster.Broadcast(chatID, userID, chat.MessageEvent{Type: chat.TypeNewMessage, Message: view})

		resp.RespondSuccess(w, r, map[string]any{"message": view})
	}
}
