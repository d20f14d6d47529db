package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/icaoscore/internal/domain/access"
)

// Session transport.
const (
	SessionCookie   = "icao_user"
	UserIDHeader    = "X-User-ID"
	TrainerKeyParam = "key"

	sessionMaxAge = 365 * 24 * 60 * 60
)

type sessionKey struct{}

// sessions resolves the caller's identity and role on every request.
type sessions struct {
	resolver *access.Resolver
	secure   bool
}

// middleware attaches the resolved access.Session to the request context.
// A caller without an id gets a fresh one and the cookie that carries it.
func (s *sessions) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				userID = strings.TrimSpace(c.Value)
			}
		}
		if userID == "" {
			userID = s.issue(w)
		}
		sess := s.resolver.Resolve(userID, r.URL.Query().Get(TrainerKeyParam))
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	}
}

// issue generates a new user id and sets it as the session cookie.
func (s *sessions) issue(w http.ResponseWriter) string {
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// sessionFrom returns the session stored by the middleware. Requests that
// bypassed it are anonymous viewers.
func sessionFrom(ctx context.Context) access.Session {
	if sess, ok := ctx.Value(sessionKey{}).(access.Session); ok {
		return sess
	}
	return access.Session{Role: access.RoleViewer}
}

type sessionResponse struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// handleSessionReset handles POST /session/reset by issuing a new identity.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	old := sessionFrom(r.Context())
	id := s.sessions.issue(w)
	writeJSON(w, http.StatusOK, sessionResponse{UserID: id, Role: old.Role.String()})
}
