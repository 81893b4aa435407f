// Package http exposes the JSON API. Every /api route runs behind
// bearer-token authentication; the resolved identity travels in the
// request context and is handed explicitly to the service layer.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type contextKey string

const identityKey contextKey = "identity"

// Server wires the API handlers over the service layer.
type Server struct {
	http.Server

	provider auth.Provider

	categories   *services.CategoryService
	transactions *services.TransactionService
	goals        *services.GoalService
	vouchers     *services.VoucherService
	contacts     *services.ContactService
	reports      *services.ReportService

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Services bundles the dependencies for NewServer.
type Services struct {
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Vouchers     *services.VoucherService
	Contacts     *services.ContactService
	Reports      *services.ReportService
}

// NewServer configures routes and middleware, returning a
// ready-to-run server.
func NewServer(addr string, provider auth.Provider, deps Services) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		provider:     provider,
		categories:   deps.Categories,
		transactions: deps.Transactions,
		goals:        deps.Goals,
		vouchers:     deps.Vouchers,
		contacts:     deps.Contacts,
		reports:      deps.Reports,
		rateLimiter:  newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	api := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.withMiddleware(s.withAuth(h)))
	}

	api("POST /api/categories", s.handleCreateCategory)
	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories/defaults", s.handleSeedCategories)
	api("GET /api/categories/{id}", s.handleGetCategory)
	api("PATCH /api/categories/{id}", s.handleUpdateCategory)
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("POST /api/transactions", s.handleCreateTransaction)
	api("GET /api/transactions", s.handleListTransactions)
	api("GET /api/transactions/stream", s.handleTransactionStream)
	api("GET /api/transactions/{id}", s.handleGetTransaction)
	api("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	api("POST /api/goals", s.handleCreateGoal)
	api("GET /api/goals", s.handleListGoals)
	api("GET /api/goals/{id}", s.handleGetGoal)
	api("PATCH /api/goals/{id}", s.handleUpdateGoal)
	api("DELETE /api/goals/{id}", s.handleDeleteGoal)
	api("POST /api/goals/{id}/contributions", s.handleGoalContribution)

	api("POST /api/vouchers", s.handleCreateVoucher)
	api("GET /api/vouchers", s.handleListVouchers)
	api("GET /api/vouchers/{id}", s.handleGetVoucher)
	api("POST /api/vouchers/{id}/void", s.handleVoidVoucher)
	api("DELETE /api/vouchers/{id}", s.handleDeleteVoucher)
	api("GET /api/vouchers/{id}/pdf", s.handleVoucherPDF)

	api("POST /api/contacts", s.handleCreateContact)
	api("GET /api/contacts", s.handleListContacts)
	api("GET /api/contacts/{id}", s.handleGetContact)
	api("PATCH /api/contacts/{id}", s.handleUpdateContact)
	api("DELETE /api/contacts/{id}", s.handleDeleteContact)

	api("GET /api/reports", s.handleReport)
	api("GET /api/reports/trends", s.handleSpendingTrends)
	api("GET /api/reports/export", s.handleReportExport)

	return s
}

// Shutdown stops the rate limiter cleanup and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request
// logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)

		requestID := generateRequestID()
		logger := log.FromContext(r.Context()).With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		httpLog := log.NewHTTPLogger(logger)
		httpLog.LogStart(ctx, r, ip)

		if isWrite(r.Method) && !s.rateLimiter.allow(ip) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, ip,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests,
				errorResponse{Error: "rate limit exceeded, try again later"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		httpLog.LogEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	}
}

// withAuth resolves the bearer token to an identity and stores it in
// the request context. Requests without a valid token get 401.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.ErrUnauthenticated.Error()})
			return
		}

		id, err := s.provider.Authenticate(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.ErrInvalidToken.Error()})
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// identity returns the authenticated caller stored by withAuth.
func identity(r *http.Request) auth.Identity {
	if id, ok := r.Context().Value(identityKey).(auth.Identity); ok {
		return id
	}
	return auth.Identity{}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
