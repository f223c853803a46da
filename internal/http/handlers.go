package http

import (
	"context"
	"net/http"
	"time"

	"flux/internal/core"
	"flux/internal/identity"
	applog "flux/internal/log"
)

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func newUserView(id identity.Identity) userView {
	return userView{ID: id.UserID, Email: id.Email}
}

type sessionView struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userView  `json:"user"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	email, password := p.Get("email"), p.Get("password")
	confirm := p.Get("confirm_password")
	if err := identity.ValidateSignUp(email, password, confirm); err != nil {
		writeError(w, r, applog.OpSignUp, err)
		return
	}

	id, err := s.auth.SignUp(r.Context(), email, password)
	if err != nil {
		writeError(w, r, applog.OpSignUp, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User signed up", applog.FieldUserID, id.UserID)
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{"user": newUserView(id)}).Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	sess, err := s.auth.SignIn(r.Context(), p.Get("email"), p.Get("password"))
	if err != nil {
		writeError(w, r, applog.OpSignIn, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User signed in", applog.FieldUserID, sess.Identity.UserID)
	NewJSONResponse().
		Cookie(sessionCookie(r, sess.Token, sess.ExpiresAt)).
		Body(sessionView{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: newUserView(sess.Identity)}).
		Write(w)
}

// handleSignOut always clears the cookie; an unknown or expired token is not
// an error.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.auth.SignOut(r.Context(), token); err != nil {
			applog.FromContext(r.Context()).DebugContext(r.Context(), "Sign out with unusable token", applog.FieldError, err.Error())
		}
	}
	NewJSONResponse().Status(http.StatusNoContent).Cookie(clearedSessionCookie(r)).Write(w)
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	id, err := identity.Require(r.Context())
	if err != nil {
		writeError(w, r, "me", err)
		return
	}
	NewJSONResponse().Body(map[string]any{"user": newUserView(id)}).Write(w)
}

func handleCategories(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().
		Header("Cache-Control", "public, max-age=3600").
		Body(map[string]any{"categories": core.Categories()}).
		Write(w)
}
