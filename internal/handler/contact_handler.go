// This file covers the contact list: listing, adding, and removing contacts.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"relaychat/internal/app/db"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

// HandleListContacts returns the caller's contact list.
func HandleListContacts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		contacts, err := deps.Store.ListContacts(r.Context(), userID)
		if err != nil {
			logx.Error(err, "Failed to list contacts", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"contacts": contacts})
	}
}

// HandleAddContact adds another user to the caller's contact list.
func HandleAddContact(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var body struct {
			UserID   int64   `json:"user_id"`
			Nickname *string `json:"nickname"`
		}
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}
		if body.UserID <= 0 || body.UserID == userID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		other, err := deps.Store.GetUserByID(r.Context(), body.UserID)
		if err != nil {
			logx.Error(err, "Failed to load contact target", "user_id", body.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if other == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		if err := deps.Store.AddContact(r.Context(), userID, body.UserID, body.Nickname); err != nil {
			if db.IsUniqueViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrContactExists))
				return
			}
			logx.Error(err, "Failed to add contact", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"status": "added"})
	}
}

// HandleSearchContacts filters the caller's contact list by the q query
// parameter, matching names, nicknames, and phone numbers.
func HandleSearchContacts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		contacts, err := deps.Store.SearchContacts(r.Context(), userID, query)
		if err != nil {
			logx.Error(err, "Failed to search contacts", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"contacts": contacts})
	}
}

// HandleRemoveContact removes a user from the caller's contact list.
func HandleRemoveContact(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		contactUserID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil || contactUserID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		removed, err := deps.Store.RemoveContact(r.Context(), userID, contactUserID)
		if err != nil {
			logx.Error(err, "Failed to remove contact", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !removed {
			resp.RespondError(w, r, errs.NewError(errs.ErrContactNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"status": "removed"})
	}
}
