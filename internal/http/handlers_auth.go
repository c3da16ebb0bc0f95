package http

import (
	"net/http"
	"time"

	"finmind/internal/auth"
	flog "finmind/internal/log"
)

func setSessionCookie(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	logger := flog.FromContext(r.Context())

	sess, err := s.deps.Auth.SignUp(r.Context(), p.Get("email"), p.GetSecret("password"), p.Get("full_name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Account created",
		flog.NewFields().WithOperation(flog.OpSignUp).WithUser(sess.User.ID)...)

	if s.deps.OnSignUp != nil {
		if err := s.deps.OnSignUp(r.Context(), sess.User.ID); err != nil {
			logger.ErrorContext(r.Context(), "Sign up hook failed",
				flog.NewFields().WithUser(sess.User.ID).WithError(err)...)
		}
	}

	setSessionCookie(w, r, sess)
	Created(sess).Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	sess, err := s.deps.Auth.SignIn(r.Context(), p.Get("email"), p.GetSecret("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	flog.FromContext(r.Context()).InfoContext(r.Context(), "Signed in",
		flog.NewFields().WithOperation(flog.OpSignIn).WithUser(sess.User.ID)...)

	setSessionCookie(w, r, sess)
	OK(sess).Write(w)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if tok := sessionToken(r); tok != "" {
		if err := s.deps.Auth.SignOut(r.Context(), tok); err != nil {
			writeError(w, r, err)
			return
		}
	}
	clearSessionCookie(w)
	NoContent().Write(w)
}

// handleSession reports the caller's session without echoing the token.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	sess.Token = ""
	OK(sess).Write(w)
}
