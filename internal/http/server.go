package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finmind/internal/auth"
	flog "finmind/internal/log"
	"finmind/internal/middleware/ratelimit"
	"finmind/internal/middleware/security"
	"finmind/internal/middleware/trace"
	"finmind/internal/services"
)

// Deps are the collaborators the API serves. Transactions, Chat, Sentiment
// and Auth are required.
type Deps struct {
	Auth         auth.Provider
	Transactions *services.TransactionService
	Chat         *services.ChatService
	Sentiment    *services.SentimentService

	// Ready reports backend readiness for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// OnSignUp runs after an account is created, e.g. to seed demo data.
	// Failures are logged and do not fail the sign up.
	OnSignUp func(ctx context.Context, userID string) error

	Logger             *flog.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps Deps

	logger   *flog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Shutdown releases the rate limiter's goroutine.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = flog.New(flog.DefaultConfig())
	}
	logger = logger.WithComponent(flog.ComponentHTTP)

	rlCfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		rlCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		deps:     deps,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(rlCfg),
		detector: security.NewDetector(logger),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/auth/signout", s.handleSignOut)
	mux.HandleFunc("GET /api/auth/session", s.handleSession)

	mux.Handle("GET /api/transactions", s.requireSession(s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.requireSession(s.handleCreateTransaction))
	mux.Handle("GET /api/dashboard", s.requireSession(s.handleDashboard))
	mux.Handle("GET /api/budgets", s.requireSession(s.handleListBudgets))
	mux.Handle("POST /api/budgets", s.requireSession(s.handleSaveBudget))

	mux.Handle("GET /api/sentiment", s.requireSession(s.handleListSentiment))
	mux.Handle("GET /api/sentiment/history", s.requireSession(s.handleSentimentHistory))
	mux.Handle("GET /api/sentiment/{symbol}", s.requireSession(s.handleLookupSentiment))

	mux.Handle("GET /api/chat", s.requireSession(s.handleChatHistory))
	mux.Handle("POST /api/chat", s.requireSession(s.handleChatSend))
	mux.Handle("POST /api/chat/voice", s.requireSession(s.handleChatVoice))

	var h http.Handler = mux
	h = s.resolveSession(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		flog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			flog.FieldClientIP, s.detector.ExtractClientIP(r))
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Close stops background routines without waiting for connections.
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.Server.Close()
}

// resolveSession attaches the caller's session to every request context.
func (s *Server) resolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := auth.Resolve(r.Context(), s.deps.Auth, sessionToken(r))
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

// requireSession rejects requests without a signed-in session.
func (s *Server) requireSession(h func(http.ResponseWriter, *http.Request, auth.Session)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := auth.FromContext(r.Context())
		if !sess.SignedIn() {
			UnauthorizedError("sign in required").Write(w)
			return
		}
		ctx := flog.IntoContext(r.Context(), flog.FromContext(r.Context()).With(flog.FieldUserID, sess.User.ID))
		h(w, r.WithContext(ctx), sess)
	})
}
