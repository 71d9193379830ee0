package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/files"
	"github.com/amingeek/task-manager/internal/models"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionChanged is returned when a logout or a newer login overtook the request.
	ErrSessionChanged = errors.New("session changed while request was in flight")
)

// LoginRoute is where an unauthenticated session is sent.
const LoginRoute = "/login"

type Status int

const (
	StatusUnauthenticated Status = iota
	StatusLoading
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is a point-in-time copy of the store.
type Session struct {
	Token  string
	UserID uint
	User   *models.User
	Status Status
}

// AuthAPI is the subset of the account endpoints the store drives.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*models.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (*models.AuthResult, error)
	// Me fetches the profile, authenticating with token when it is non-empty.
	Me(ctx context.Context, token string) (*models.User, error)
}

// Navigator moves the current route. replace drops the current history entry.
type Navigator func(route string, replace bool)

type StoreOption func(*Store)

func WithNavigator(nav Navigator) StoreOption {
	return func(s *Store) { s.navigate = nav }
}

func WithLogger(log *zap.SugaredLogger) StoreOption {
	return func(s *Store) { s.log = log }
}

// Store owns the authenticated session of the process. It is safe for concurrent use.
type Store struct {
	api      AuthAPI
	persist  files.Store
	navigate Navigator
	log      *zap.SugaredLogger

	mu       sync.Mutex
	token    string
	userID   uint
	user     *models.User
	status   Status
	gen      uint64
	initDone chan struct{}
	subs     map[int]func(Status)
	nextSub  int
}

// NewStore creates an unauthenticated store. Call Initialize to pick up a persisted token.
func NewStore(api AuthAPI, persist files.Store, opts ...StoreOption) *Store {
	s := &Store{
		api:      api,
		persist:  persist,
		navigate: func(string, bool) {},
		log:      zap.NewNop().Sugar(),
		subs:     make(map[int]func(Status)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===== Read side =====

// Token returns the bearer token of an authenticated session, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a copy of the session. The profile is copied too.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := Session{Token: s.token, UserID: s.userID, Status: s.status}
	if s.user != nil {
		u := *s.user
		sess.User = &u
	}
	return sess
}

// Subscribe registers fn for every status transition. The returned func unregisters it.
func (s *Store) Subscribe(fn func(Status)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// setStatusLocked records st and returns the notification to run once mu is released.
func (s *Store) setStatusLocked(st Status) func() {
	if s.status == st {
		return func() {}
	}
	s.status = st
	subs := make([]func(Status), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(st)
		}
	}
}

// ===== Lifecycle =====

// Initialize loads the persisted token and validates it against /me. Concurrent
// callers share one profile fetch; later calls return the current status.
func (s *Store) Initialize(ctx context.Context) Status {
	s.mu.Lock()
	if done := s.initDone; done != nil {
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return s.Status()
	}
	done := make(chan struct{})
	s.initDone = done
	defer close(done)

	// A login or logout already decided the session.
	if s.gen != 0 {
		st := s.status
		s.mu.Unlock()
		return st
	}
	sf, err := s.persist.Load()
	if err != nil {
		s.mu.Unlock()
		if !errors.Is(err, files.ErrNoSession) {
			s.log.Warnw("load persisted session", "error", err)
		}
		return StatusUnauthenticated
	}
	gen := s.gen
	notify := s.setStatusLocked(StatusLoading)
	s.mu.Unlock()
	notify()

	user, err := s.api.Me(ctx, sf.Token)

	s.mu.Lock()
	if gen != s.gen {
		st := s.status
		s.mu.Unlock()
		return st
	}
	if err != nil {
		s.log.Infow("persisted token rejected", "op", "initialize", "error", err)
		notify = s.clearLocked()
	} else {
		notify = s.commitLocked(sf.Token, user, false)
	}
	st := s.status
	s.mu.Unlock()
	notify()
	return st
}

// Logout drops the session from memory and disk. Requests still in flight cannot
// restore it.
func (s *Store) Logout() {
	s.mu.Lock()
	s.gen++
	notify := s.clearLocked()
	s.mu.Unlock()
	notify()
}

// HandleUnauthorized is the client's 401 hook: log out, then replace the route with login.
func (s *Store) HandleUnauthorized() {
	s.log.Debugw("session rejected by server", "op", "unauthorized")
	s.Logout()
	s.navigate(LoginRoute, true)
}

// RefreshProfile replaces the cached profile with a fresh /me.
func (s *Store) RefreshProfile(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	gen, token := s.gen, s.token
	s.mu.Unlock()
	if token == "" {
		return nil, ErrSessionChanged
	}

	user, err := s.api.Me(ctx, "")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ErrSessionChanged
	}
	s.user = user
	u := *user
	return &u, nil
}

// ===== Transitions (mu held) =====

// beginLocked starts a credential exchange. The in-memory session is dropped and any
// earlier exchange is superseded.
func (s *Store) beginLocked() (uint64, func()) {
	s.gen++
	s.token, s.userID, s.user = "", 0, nil
	return s.gen, s.setStatusLocked(StatusLoading)
}

// failLocked ends exchange gen unauthenticated unless something newer owns the store.
func (s *Store) failLocked(gen uint64) func() {
	if gen != s.gen {
		return func() {}
	}
	return s.clearLocked()
}

func (s *Store) clearLocked() func() {
	s.token, s.userID, s.user = "", 0, nil
	if err := s.persist.Clear(); err != nil {
		s.log.Warnw("clear persisted session", "error", err)
	}
	return s.setStatusLocked(StatusUnauthenticated)
}

// commitLocked publishes token together with its profile. persist also writes the session file.
func (s *Store) commitLocked(token string, user *models.User, persist bool) func() {
	s.token, s.userID, s.user = token, user.ID, user
	if persist {
		sf := &files.SessionFile{Token: token, UserID: user.ID, SavedAt: time.Now()}
		if err := s.persist.Save(sf); err != nil {
			s.log.Warnw("persist session", "error", err)
		}
	}
	return s.setStatusLocked(StatusAuthenticated)
}
