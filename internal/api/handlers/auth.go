package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"courier-backoffice-service/internal/api/dto"
	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/services"
)

// SessionCookie holds the session token for browser clients.
const SessionCookie = "session"

type sessionKey struct{}

func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domain.Session)
	return s, ok
}

// TokenFromRequest returns the bearer token, falling back to the session
// cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// requirePermission writes 401 when the request has no session and 403
// when the session holds none of perms.
func requirePermission(w http.ResponseWriter, r *http.Request, perms ...string) (domain.Session, bool) {
	s, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return domain.Session{}, false
	}
	for _, p := range perms {
		if s.HasPermission(p) {
			return s, true
		}
	}
	writeError(w, r, http.StatusForbidden, domain.ErrForbidden.Error())
	return domain.Session{}, false
}

// showAmounts reports whether monetary fields go into the response.
// Anonymous calls keep the legacy behaviour of seeing everything.
func showAmounts(r *http.Request) bool {
	s, ok := SessionFrom(r.Context())
	return !ok || s.HasPermission(domain.PermOrdersViewAmounts)
}

type AuthHandler struct {
	Auth *services.Authenticator
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, domain.ErrUnauthorized) {
		writeJSON(w, r, http.StatusUnauthorized, dto.LoginResponse{Success: false, Error: "Credenciales inválidas"})
		return
	}
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewLoginResponse(s))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), TokenFromRequest(r)); err != nil {
		writeServiceError(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadSession attaches the caller's session to the request context. A
// request without a token passes through anonymously; a stale or unknown
// token is rejected.
func (h *AuthHandler) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		s, err := h.Auth.Resolve(r.Context(), token)
		if err != nil {
			writeServiceError(w, r, "resolve session", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}
