package auth

import (
	"context"
	"encoding/json"
	"time"
)

// State is where a session is in its lifecycle. The zero value is
// StateLoading: the session has not been resolved yet.
type State int

const (
	StateLoading State = iota
	StateSignedOut
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateSignedOut:
		return "signed_out"
	case StateSignedIn:
		return "signed_in"
	default:
		return "loading"
	}
}

func (s State) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *State) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v {
	case "signed_out":
		*s = StateSignedOut
	case "signed_in":
		*s = StateSignedIn
	default:
		*s = StateLoading
	}
	return nil
}

// Session is the explicit per-request identity. It is created by Resolve or
// returned from SignIn/SignUp and passed to whatever needs it.
type Session struct {
	State     State     `json:"state"`
	Token     string    `json:"token,omitempty"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (s Session) SignedIn() bool { return s.State == StateSignedIn }

// Resolve moves a session out of StateLoading by asking p about token.
func Resolve(ctx context.Context, p Provider, token string) Session {
	if token == "" {
		return Session{State: StateSignedOut}
	}
	u, ok := p.CurrentUser(ctx, token)
	if !ok {
		return Session{State: StateSignedOut}
	}
	return Session{State: StateSignedIn, Token: token, User: u}
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession. A context without
// one yields a StateLoading session.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(ctxKey{}).(Session)
	return s
}
