package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finmind/internal/assistant"
	"finmind/internal/auth"
	"finmind/internal/core"
	flog "finmind/internal/log"
	"finmind/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			flog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", flog.FieldError, err)
			ServiceUnavailableError("not ready").Write(w)
			return
		}
	}
	OK(map[string]string{"status": "ready"}).Write(w)
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err),
		errors.Is(err, assistant.ErrEmptyMessage),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, auth.ErrInvalidCredentials):
		UnauthorizedError(err.Error()).Write(w)
	case errors.Is(err, auth.ErrEmailTaken):
		ConflictError(err.Error()).Write(w)
	case errors.Is(err, services.ErrUnknownSymbol):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailableError("request cancelled").Write(w)
	default:
		flog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", flog.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}

// parseBody parses the request body, writing a 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return nil, false
	}
	return p, true
}
