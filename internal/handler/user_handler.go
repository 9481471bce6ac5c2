// This file covers user lookup: searching accounts by phone or by name.
package handler

import (
	"net/http"
	"strings"

	"relaychat/internal/app/store"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

// HandleSearchUsers finds accounts by phone number or by name. Exactly one of
// the phone and name query parameters must be set.
func HandleSearchUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if userID == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		phone := strings.TrimSpace(r.URL.Query().Get("phone"))
		name := strings.TrimSpace(r.URL.Query().Get("name"))

		var (
			results []store.UserSearchResult
			err     error
		)
		switch {
		case phone != "" && name == "":
			results, err = deps.Store.SearchUsersByPhone(r.Context(), userID, phone)
		case name != "" && phone == "":
			results, err = deps.Store.SearchUsersByName(r.Context(), userID, name)
		default:
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err != nil {
			logx.Error(err, "Failed to search users", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"users": results})
	}
}
