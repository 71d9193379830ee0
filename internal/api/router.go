package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server is the in-memory reference backend.
type Server struct {
	store  *Store
	tokens *TokenIssuer
	log    *zap.SugaredLogger
}

func NewServer(store *Store, tokens *TokenIssuer, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{store: store, tokens: tokens, log: log}
}

// Store exposes the backing store, mainly for seeding.
func (s *Server) Store() *Store { return s.store }

type ctxKey int

const userIDKey ctxKey = iota

func userID(r *http.Request) uint {
	id, _ := r.Context().Value(userIDKey).(uint)
	return id
}

// NewRouter mounts every endpoint under /api.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, "OK", map[string]string{"status": "ok"})
	}).Methods("GET")

	public := r.PathPrefix("/api").Subrouter()
	public.HandleFunc("/register", s.RegisterHandler).Methods("POST")
	public.HandleFunc("/login", s.LoginHandler).Methods("POST")

	p := r.PathPrefix("/api").Subrouter()
	p.Use(s.requireAuth)

	p.HandleFunc("/me", s.MeHandler).Methods("GET")
	p.HandleFunc("/profile", s.UpdateProfileHandler).Methods("PUT")
	p.HandleFunc("/users/search", s.SearchUsersHandler).Methods("GET")

	p.HandleFunc("/tasks", s.ListTasksHandler).Methods("GET")
	p.HandleFunc("/tasks", s.CreateTaskHandler).Methods("POST")
	p.HandleFunc("/tasks/{id:[0-9]+}", s.GetTaskHandler).Methods("GET")
	p.HandleFunc("/tasks/{id:[0-9]+}", s.UpdateTaskHandler).Methods("PUT")
	p.HandleFunc("/tasks/{id:[0-9]+}", s.DeleteTaskHandler).Methods("DELETE")
	p.HandleFunc("/tasks/{id:[0-9]+}/progress", s.GetProgressHandler).Methods("GET")
	p.HandleFunc("/tasks/{id:[0-9]+}/progress", s.UpdateProgressHandler).Methods("PUT")
	p.HandleFunc("/tasks/{id:[0-9]+}/my-progress", s.GetMyProgressHandler).Methods("GET")
	p.HandleFunc("/tasks/{id:[0-9]+}/my-progress", s.UpdateMyProgressHandler).Methods("PUT")
	p.HandleFunc("/tasks/{id:[0-9]+}/group-progress", s.OverrideProgressHandler).Methods("PUT")
	p.HandleFunc("/tasks/{id:[0-9]+}/files", s.ListFilesHandler).Methods("GET")

	p.HandleFunc("/files/upload", s.UploadFileHandler).Methods("POST")
	p.HandleFunc("/files/{id:[0-9]+}/download", s.DownloadFileHandler).Methods("GET")
	p.HandleFunc("/files/{id:[0-9]+}", s.DeleteFileHandler).Methods("DELETE")

	p.HandleFunc("/groups", s.ListGroupsHandler).Methods("GET")
	p.HandleFunc("/groups", s.CreateGroupHandler).Methods("POST")
	p.HandleFunc("/groups/search", s.SearchGroupsHandler).Methods("GET")
	p.HandleFunc("/groups/invitations", s.InvitationsHandler).Methods("GET")
	p.HandleFunc("/groups/{id:[0-9]+}", s.GetGroupHandler).Methods("GET")
	p.HandleFunc("/groups/{id:[0-9]+}", s.UpdateGroupHandler).Methods("PUT")
	p.HandleFunc("/groups/{id:[0-9]+}", s.DeleteGroupHandler).Methods("DELETE")
	p.HandleFunc("/groups/{id:[0-9]+}/members", s.AddMembersHandler).Methods("POST")
	p.HandleFunc("/groups/{id:[0-9]+}/members/{userId:[0-9]+}", s.RemoveMemberHandler).Methods("DELETE")
	p.HandleFunc("/groups/{id:[0-9]+}/accept", s.AcceptInvitationHandler).Methods("POST")
	p.HandleFunc("/groups/{id:[0-9]+}/tasks", s.CreateGroupTaskHandler).Methods("POST")

	p.HandleFunc("/notifications", s.ListNotificationsHandler).Methods("GET")
	p.HandleFunc("/notifications/{id:[0-9]+}/read", s.MarkReadHandler).Methods("PUT")
	p.HandleFunc("/notifications/{id:[0-9]+}", s.DeleteNotificationHandler).Methods("DELETE")

	p.HandleFunc("/analytics/streak", s.StreakHandler).Methods("GET")
	p.HandleFunc("/analytics/summary", s.SummaryHandler).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return r
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if header == "" || !ok || scheme != "Bearer" {
			writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}
		claims, err := s.tokens.Parse(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if _, err := s.store.User(claims.UserID); err != nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request, keyed by the caller's X-Request-ID.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Infow("request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"latency", time.Since(start),
		)
	})
}
