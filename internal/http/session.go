package http

import (
	"net/http"
	"strings"
	"time"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

const sessionCookie = "finanzas_session"

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *services.Session)

// withSession resolves the session from a bearer token or the session
// cookie. Requests without an authorized session get 401.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, r, core.ErrUnauthorized)
			return
		}

		id, err := s.tokens.Parse(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		sess, ok := s.sessions.Get(id)
		if !ok || !sess.IsAuthorized() {
			writeError(w, r, core.ErrUnauthorized)
			return
		}

		ctx := r.Context()
		logger := applog.FromContext(ctx).With(applog.FieldSessionID, id)
		next(w, r.WithContext(applog.WithLogger(ctx, logger)), sess)
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// handleLogin passes the PIN gate and opens a new authorized session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := s.gate.Check(req.Pin); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "PIN rejected",
			applog.FieldOperation, applog.OpLogin)
		writeError(w, r, err)
		return
	}

	tok, err := s.tokens.Issue()
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess := services.NewSession(tok.SessionID)
	sess.Authorize()
	s.sessions.Put(sess)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    tok.Token,
		Path:     "/api",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	applog.FromContext(ctx).InfoContext(ctx, "Session opened",
		applog.FieldOperation, applog.OpLogin,
		applog.FieldSessionID, tok.SessionID)

	writeData(w, http.StatusCreated, loginResponse{
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil)
}

// handleLogout revokes the session and clears its cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.sessions.End(sess.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/api",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
