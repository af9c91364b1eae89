// Package demo is an in-memory fleet server speaking the same REST API as
// the real one. It backs `fleetdash demo` and the HTTP tests.
package demo

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/logging"
	"github.com/fleetdash/fleetdash/internal/version"
)

const (
	DefaultUsername = "admin"
	DefaultPassword = "admin"
	defaultMaxLimit = 500
)

// Options configures a demo server
type Options struct {
	Counts      Counts
	Username    string
	Password    string
	RequireAuth bool
	// Latency delays every list and get, like a slow backend
	Latency time.Duration
	// HostDevice adds a "localhost" device reporting this machine's load
	HostDevice bool
	MaxLimit   int
	Now        func() time.Time
}

// Server serves seeded fleet data over HTTP
type Server struct {
	opts         Options
	data         map[api.Resource][]api.Record
	passwordHash []byte
	router       *mux.Router
	sample       hostSampler

	mu     sync.RWMutex
	tokens map[string]string // token -> username
}

// New seeds a dataset and builds the router
func New(opts Options) (*Server, error) {
	if opts.Counts == nil {
		opts.Counts = DefaultCounts
	}
	if opts.Username == "" {
		opts.Username = DefaultUsername
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaultMaxLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo password: %w", err)
	}

	s := &Server{
		opts:         opts,
		data:         seed(opts.Counts),
		passwordHash: hash,
		sample:       localDevice,
		tokens:       make(map[string]string),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)

	collections := r.PathPrefix("/").Subrouter()
	collections.Use(s.authenticate)
	collections.HandleFunc("/{resource}", s.list).Methods(http.MethodGet)
	collections.HandleFunc("/{resource}/{id}", s.get).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.Logger.Info("demo server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Health{Status: "ok", Version: version.Version})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if creds.Username != s.opts.Username ||
		bcrypt.CompareHashAndPassword(s.passwordHash, []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = creds.Username
	s.mu.Unlock()

	logging.Logger.Info("demo login", "username", creds.Username)
	writeJSON(w, http.StatusOK, api.Session{Token: token, Username: creds.Username})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.RequireAuth {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.RLock()
		_, known := s.tokens[token]
		s.mu.RUnlock()
		if !ok || !known {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Logger.Debug("demo request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery, "duration", time.Since(start))
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}
	q, err := s.parseQuery(res, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.delay(r.Context()) {
		return
	}

	rows := s.snapshot(res)
	if q.OrderBy != "" {
		sortRecords(rows, q.OrderBy, q.Sort)
	}

	total := len(rows)
	start := min(q.Offset, total)
	end := min(start+q.Limit, total)
	writeJSON(w, http.StatusOK, api.Page{Items: rows[start:end], Total: total})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resource(w, r)
	if !ok {
		return
	}
	if !s.delay(r.Context()) {
		return
	}

	id := mux.Vars(r)["id"]
	for _, rec := range s.snapshot(res) {
		if rec.ID() == id {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", res, id))
}

func (s *Server) resource(w http.ResponseWriter, r *http.Request) (api.Resource, bool) {
	name := mux.Vars(r)["resource"]
	for _, res := range api.Resources {
		if name == string(res) {
			return res, true
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("unknown resource %q", name))
	return "", false
}

func (s *Server) parseQuery(res api.Resource, r *http.Request) (api.Query, error) {
	v := r.URL.Query()
	q := api.Query{Limit: s.opts.MaxLimit}

	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid limit %q", raw)
		}
		q.Limit = min(n, s.opts.MaxLimit)
	}
	if raw := v.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid offset %q", raw)
		}
		q.Offset = n
	}
	if q.OrderBy = v.Get("orderBy"); q.OrderBy != "" && !slices.Contains(res.Orderable(), q.OrderBy) {
		return q, fmt.Errorf("cannot order %s by %q", res, q.OrderBy)
	}
	sort, err := api.ParseSort(v.Get("sort"))
	if err != nil {
		return q, err
	}
	q.Sort = sort
	return q, nil
}

// delay waits out the configured latency. It returns false if the client
// went away first.
func (s *Server) delay(ctx context.Context) bool {
	if s.opts.Latency <= 0 {
		return true
	}
	timer := time.NewTimer(s.opts.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// snapshot returns a copy of a collection with live fields filled in
func (s *Server) snapshot(res api.Resource) []api.Record {
	rows := s.data[res]
	if res != api.Device {
		return slices.Clone(rows)
	}

	now := s.opts.Now()
	out := make([]api.Record, 0, len(rows)+1)
	if s.opts.HostDevice {
		out = append(out, s.sample(now))
	}
	for i, rec := range rows {
		out = append(out, liveDevice(rec, i, now))
	}
	return out
}

func sortRecords(rows []api.Record, key string, dir api.Sort) {
	slices.SortStableFunc(rows, func(a, b api.Record) int {
		c := compareField(a[key], b[key])
		if dir == api.Desc {
			return -c
		}
		return c
	})
}

func compareField(a, b any) int {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		return cmp.Compare(fa, fb)
	}
	sa := api.Record{"v": a}.String("v")
	sb := api.Record{"v": b}.String("v")
	return cmp.Compare(strings.ToLower(sa), strings.ToLower(sb))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
