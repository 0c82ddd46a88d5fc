package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"undangan/internal/middleware"
	"undangan/internal/session"
	"undangan/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  Sessions
	userStore UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions Sessions, userStore UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks a username and password and starts a session. It accepts
// JSON or a form.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isForm(r) {
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}

	user, err := a.userStore.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		serverError(w, "login lookup failed", err)
		return
	}
	if user == nil {
		slog.Warn("failed login", "username", req.Username, "remote", middleware.ClientIP(r))
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		serverError(w, "session create failed", err)
		return
	}

	slog.Info("admin logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me returns the signed-in admin.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": sess})
}

// ChangePassword replaces the signed-in admin's password after checking
// the current one. Existing sessions stay valid.
func (a *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Login required.")
		return
	}

	var in passwordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validatePassword(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	switch err := a.userStore.ChangePassword(r.Context(), sess.UserID, in.CurrentPassword, in.NewPassword); {
	case errors.Is(err, store.ErrWrongPassword):
		slog.Warn("password change rejected", "username", sess.Username, "remote", middleware.ClientIP(r))
		writeError(w, http.StatusBadRequest, "Current password is incorrect.")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		serverError(w, "change password failed", err, "user_id", sess.UserID)
		return
	}

	slog.Info("admin password changed", "username", sess.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CSRFToken hands the double-submit token to scripted clients, which must
// echo it in the X-CSRF-Token header on every state-changing request.
func (a *Auth) CSRFToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": middleware.CSRFToken(r)})
}
