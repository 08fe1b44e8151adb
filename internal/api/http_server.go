package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"renthub/internal/apperr"
	"renthub/internal/config"
	"renthub/internal/domain"
	"renthub/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPServer exposes the marketplace REST API. Callers identify themselves
// through the identity header; there is no authentication beyond trusting it.
type HTTPServer struct {
	cfg      config.HTTPConfig
	bookings domain.BookingService
	items    domain.ItemService
	users    domain.UserService
	requests domain.RequestService
	reports  ReportService
	logger   *zerolog.Logger
	server   *http.Server
	limiter  *callerLimiter
}

// ReportService builds a bookings workbook for a date range and returns the
// file path.
type ReportService interface {
	BookingsReport(ctx context.Context, start, end time.Time) (string, error)
}

// RateCounter is a shared request counter behind the limiter, so several
// instances enforce one budget. Nil means purely in-process limiting.
type RateCounter interface {
	Allow(ctx context.Context, caller string, limit int, window time.Duration) (bool, error)
}

type Services struct {
	Bookings    domain.BookingService
	Items       domain.ItemService
	Users       domain.UserService
	Requests    domain.RequestService
	Reports     ReportService
	RateCounter RateCounter
}

func NewHTTPServer(cfg config.HTTPConfig, rl config.RateLimitConfig, services Services, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		bookings: services.Bookings,
		items:    services.Items,
		users:    services.Users,
		requests: services.Requests,
		reports:  services.Reports,
		logger:   logger,
		limiter:  newCallerLimiter(rl, cfg.IdentityHeader, services.RateCounter),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /bookings", srv.handleCreateBooking)
	mux.HandleFunc("PATCH /bookings/{id}", srv.handleSetApproval)
	mux.HandleFunc("GET /bookings/owner", srv.handleListBookingsByOwner)
	mux.HandleFunc("GET /bookings/{id}", srv.handleGetBooking)
	mux.HandleFunc("GET /bookings", srv.handleListBookingsByBooker)

	mux.HandleFunc("POST /items", srv.handleAddItem)
	mux.HandleFunc("PATCH /items/{id}", srv.handleUpdateItem)
	mux.HandleFunc("GET /items/search", srv.handleSearchItems)
	mux.HandleFunc("GET /items/{id}", srv.handleGetItem)
	mux.HandleFunc("GET /items", srv.handleListItems)
	mux.HandleFunc("POST /items/{id}/comment", srv.handleAddComment)

	mux.HandleFunc("POST /users", srv.handleCreateUser)
	mux.HandleFunc("PATCH /users/{id}", srv.handleUpdateUser)
	mux.HandleFunc("GET /users/{id}", srv.handleGetUser)
	mux.HandleFunc("GET /users", srv.handleListUsers)
	mux.HandleFunc("DELETE /users/{id}", srv.handleDeleteUser)

	mux.HandleFunc("POST /requests", srv.handleCreateRequest)
	mux.HandleFunc("GET /requests/all", srv.handleListOtherRequests)
	mux.HandleFunc("GET /requests/{id}", srv.handleGetRequest)
	mux.HandleFunc("GET /requests", srv.handleListRequests)

	mux.HandleFunc("GET /admin/reports/bookings", srv.handleBookingsReport)

	handler := srv.loggingMiddleware(srv.limiter.wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the routing stack without the listener, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// callerID reads the trusted identity header. Zero return means the header is
// missing or malformed and an error response was already written.
func (s *HTTPServer) callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get(s.cfg.IdentityHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header is required", s.cfg.IdentityHeader))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header is malformed", s.cfg.IdentityHeader))
		return 0, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id is malformed")
		return 0, false
	}
	return id, true
}

// writeServiceError maps error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, apperr.Message(err))
	case errors.Is(err, apperr.ErrUnsupportedState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrInvalid):
		writeError(w, http.StatusBadRequest, apperr.Message(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// pageParams parses optional from/size query values. Absent values stay nil;
// malformed ones fail the request.
func pageParams(w http.ResponseWriter, r *http.Request) (from, size *int64, ok bool) {
	parse := func(name string) (*int64, bool) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return nil, true
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is malformed", name))
			return nil, false
		}
		return &v, true
	}

	from, ok = parse("from")
	if !ok {
		return nil, nil, false
	}
	size, ok = parse("size")
	if !ok {
		return nil, nil, false
	}
	return from, size, true
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
	})
}

// callerLimiter throttles per identity header value, falling back to the
// remote address for anonymous requests. With a shared counter the budget is
// enforced across instances; without one each process keeps its own
// token-bucket limiters.
type callerLimiter struct {
	cfg      config.RateLimitConfig
	header   string
	counter  RateCounter
	limiters sync.Map // map[string]*rate.Limiter
}

func newCallerLimiter(cfg config.RateLimitConfig, header string, counter RateCounter) *callerLimiter {
	return &callerLimiter{cfg: cfg, header: header, counter: counter}
}

func (l *callerLimiter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.cfg.RPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !l.allow(r.Context(), l.key(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow consults the shared counter first and falls back to the local bucket
// when the counter is absent or unreachable.
func (l *callerLimiter) allow(ctx context.Context, key string) bool {
	if l.counter != nil {
		limit := l.cfg.Burst
		if limit <= 0 {
			limit = int(l.cfg.RPS)
		}
		ok, err := l.counter.Allow(ctx, key, limit, time.Second)
		if err == nil {
			return ok
		}
	}
	return l.get(key).Allow()
}

func (l *callerLimiter) key(r *http.Request) string {
	if id := r.Header.Get(l.header); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (l *callerLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
