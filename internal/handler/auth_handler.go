/*
Package handler provides the HTTP handlers and routing setup for the messenger API.

This file covers the account lifecycle: phone verification codes, registration,
password login, Telegram login, and token inspection.
*/
package handler

import (
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"relaychat/internal/app/db"
	"relaychat/internal/app/store"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 50

	// PurposeRegister labels verification codes issued for account creation.
	PurposeRegister = "register"
)

// authResult is the payload returned by every endpoint that signs the user in.
type authResult struct {
	Token string         `json:"token"`
	User  store.UserView `json:"user"`
}

// HandleSendVerification issues a phone verification code. Delivery over SMS
// is out of scope for now; in development the code is echoed back so the flow
// can be exercised end to end.
func HandleSendVerification(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Phone string `json:"phone"`
		}
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		body.Phone = strings.TrimSpace(body.Phone)
		if body.Phone == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		code, err := deps.Verify.IssueCode(r.Context(), PurposeRegister, body.Phone)
		if err != nil {
			logx.Error(err, "Failed to issue verification code", "phone", body.Phone)
			resp.RespondError(w, r, errs.NewError(errs.ErrVerificationSendFailed))
			return
		}

		logx.Info("Verification code issued", "phone", body.Phone)

		data := map[string]string{"status": "sent"}
		if deps.Config.IsDevelopment() {
			data["code"] = code
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleRegister creates an account after checking the phone verification
// code, then signs the new user in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Phone     string `json:"phone"`
			Email     string `json:"email"`
			Password  string `json:"password"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Code      string `json:"code"`
		}
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		body.Phone = strings.TrimSpace(body.Phone)
		body.Email = strings.TrimSpace(body.Email)
		if body.Phone == "" || body.Email == "" || body.FirstName == "" || body.Code == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if len(body.Password) < minPasswordLength || len(body.Password) > maxPasswordLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}
		if _, err := mail.ParseAddress(body.Email); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
			return
		}

		ok, err := deps.Verify.CheckCode(r.Context(), PurposeRegister, body.Phone, body.Code)
		if err != nil {
			logx.Error(err, "Failed to check verification code", "phone", body.Phone)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrVerificationCodeInvalid))
			return
		}

		existing, err := deps.Store.GetUserByPhone(r.Context(), body.Phone)
		if err == nil && existing == nil {
			existing, err = deps.Store.GetUserByEmail(r.Context(), body.Email)
		}
		if err != nil {
			logx.Error(err, "Failed to look up account during registration")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if existing != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			logx.Error(err, "Failed to hash password")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		user, err := deps.Store.CreateUser(r.Context(), store.CreateUserParams{
			Phone:         body.Phone,
			Email:         body.Email,
			PasswordHash:  string(hash),
			FirstName:     body.FirstName,
			LastName:      body.LastName,
			PhoneVerified: true,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				// A concurrent registration won the race with the checks above.
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}
			logx.Error(err, "Failed to create account", "phone", body.Phone)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		respondSignedIn(w, r, deps, user)
	}
}

// HandleLogin signs a user in with a phone number or email plus password.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		}
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		body.Login = strings.TrimSpace(body.Login)
		if body.Login == "" || body.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		user, err := deps.Store.GetUserByPhone(r.Context(), body.Login)
		if err == nil && user == nil {
			user, err = deps.Store.GetUserByEmail(r.Context(), body.Login)
		}
		if err != nil {
			logx.Error(err, "Failed to look up account during login")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if user == nil || user.PasswordHash == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := deps.Store.UpdateLastSeen(r.Context(), user.ID); err != nil {
			logx.Warn("Failed to stamp last seen on login", "user_id", user.ID)
		}

		respondSignedIn(w, r, deps, user)
	}
}

// HandleTelegramLogin signs a user in through their Telegram identity,
// creating the account on first contact and refreshing the mirrored profile
// fields on every later one.
func HandleTelegramLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TelegramID int64   `json:"telegram_id"`
			Username   string  `json:"username"`
			FirstName  string  `json:"first_name"`
			LastName   string  `json:"last_name"`
			Avatar     *string `json:"avatar"`
		}
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		if body.TelegramID == 0 || body.FirstName == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		user, err := deps.Store.GetUserByTelegramID(r.Context(), body.TelegramID)
		if err != nil {
			logx.Error(err, "Failed to look up telegram account")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if user == nil {
			user, err = deps.Store.CreateTelegramUser(r.Context(),
				body.TelegramID, body.Username, body.FirstName, body.LastName, body.Avatar)
			if err != nil {
				logx.Error(err, "Failed to create telegram account")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
		} else {
			err = deps.Store.UpdateTelegramProfile(r.Context(),
				user.ID, body.Username, body.FirstName, body.LastName, body.Avatar)
			if err != nil {
				logx.Warn("Failed to refresh telegram profile", "user_id", user.ID)
			}
			user, err = deps.Store.GetUserByID(r.Context(), user.ID)
			if err != nil || user == nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
		}

		respondSignedIn(w, r, deps, user)
	}
}

// HandleVerifyToken returns the account behind the presented bearer token.
// Clients call it on startup to decide whether a stored token is still good.
func HandleVerifyToken(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		user, err := deps.Store.GetUserByID(r.Context(), payload.UserID)
		if err != nil {
			logx.Error(err, "Failed to load account for token check", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if user == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": user.View()})
	}
}

func respondSignedIn(w http.ResponseWriter, r *http.Request, deps *AppDeps, user *store.User) {
	token, err := jwt.GenerateToken(user.ID, deps.Config.JWTSecret, jwt.UserIdentityExpiration)
	if err != nil {
		logx.Error(err, "Failed to generate token", "user_id", user.ID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	resp.RespondSuccess(w, r, authResult{Token: token, User: user.View()})
}
