package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const (
	// csrfTokenLength is the byte length of CSRF tokens (64 hex chars).
	csrfTokenLength = 32

	// CSRFCookieName is the cookie that holds the CSRF token.
	CSRFCookieName = "undangan_csrf"

	// CSRFHeaderName is the header the admin editor sends the token in.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField is the form field checked when the header is absent.
	CSRFFormField = "csrf_token"

	csrfKey contextKey = "csrf"
)

// CSRF provides double-submit cookie protection. A token cookie is issued
// on first contact, and state-changing requests (POST, PUT, PATCH, DELETE)
// must echo it in the X-CSRF-Token header or the csrf_token form field.
// The cookie is readable by scripts so the editor can copy it into the header.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ensureCSRFCookie(w, r, secure)
			if err != nil {
				jsonError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), csrfKey, token))

			if isSafeMethod(r.Method) || validCSRF(r, token) {
				next.ServeHTTP(w, r)
				return
			}
			jsonError(w, http.StatusForbidden, "Invalid or missing CSRF token.")
		})
	}
}

// ensureCSRFCookie returns the request's token, minting and setting a new
// cookie when it has none.
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, secure bool) (string, error) {
	if c, err := r.Cookie(CSRFCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

func validCSRF(r *http.Request, token string) bool {
	submitted := r.Header.Get(CSRFHeaderName)
	if submitted == "" {
		submitted = r.FormValue(CSRFFormField)
	}
	return submitted != "" && subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) == 1
}

// CSRFToken returns the token for the current request, including one
// issued by CSRF on this very response.
func CSRFToken(r *http.Request) string {
	if token, ok := r.Context().Value(csrfKey).(string); ok {
		return token
	}
	if c, err := r.Cookie(CSRFCookieName); err == nil {
		return c.Value
	}
	return ""
}
