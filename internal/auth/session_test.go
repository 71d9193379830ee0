package auth

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/files"
	"github.com/amingeek/task-manager/internal/models"
)

// stubAPI answers like the backend for a single user "alice"/"secret1".
type stubAPI struct {
	meCalls    atomic.Int32
	loginCalls atomic.Int32
	regCalls   atomic.Int32

	omitUser bool
	meGate   chan struct{} // when set, Me blocks until closed
	meErr    error
}

var alice = &models.User{ID: 3, Username: "alice", Email: "alice@example.com"}

func (a *stubAPI) Login(ctx context.Context, username, password string) (*models.AuthResult, error) {
	a.loginCalls.Add(1)
	if username == "" {
		return nil, &client.Error{Kind: client.KindRequest, Status: http.StatusBadRequest, Message: "username is required"}
	}
	if username != "alice" || password != "secret1" {
		return nil, &client.Error{Kind: client.KindAuthentication, Status: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	res := &models.AuthResult{Token: "tok-alice"}
	if !a.omitUser {
		u := *alice
		res.User = &u
	}
	return res, nil
}

func (a *stubAPI) Register(ctx context.Context, username, email, password string) (*models.AuthResult, error) {
	a.regCalls.Add(1)
	if username == "taken" {
		return nil, &client.Error{Kind: client.KindRequest, Status: http.StatusBadRequest, Message: "username already taken"}
	}
	return &models.AuthResult{Token: "tok-" + username, User: &models.User{ID: 9, Username: username, Email: email}}, nil
}

func (a *stubAPI) Me(ctx context.Context, token string) (*models.User, error) {
	a.meCalls.Add(1)
	if a.meGate != nil {
		<-a.meGate
	}
	if a.meErr != nil {
		return nil, a.meErr
	}
	u := *alice
	return &u, nil
}

func TestLoginPersistsSession(t *testing.T) {
	persist := files.NewMemoryStore()
	s := NewStore(&stubAPI{}, persist)

	var seen []Status
	s.Subscribe(func(st Status) { seen = append(seen, st) })

	sess, err := s.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if sess.Status != StatusAuthenticated || sess.Token != "tok-alice" || sess.User.Username != "alice" {
		t.Fatalf("session = %+v", sess)
	}
	sf, err := persist.Load()
	if err != nil {
		t.Fatalf("nothing persisted: %v", err)
	}
	if sf.Token != "tok-alice" || sf.UserID != alice.ID {
		t.Fatalf("persisted %+v", sf)
	}
	if len(seen) != 2 || seen[0] != StatusLoading || seen[1] != StatusAuthenticated {
		t.Fatalf("transitions = %v", seen)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	persist := files.NewMemoryStore()
	s := NewStore(&stubAPI{}, persist)

	_, err := s.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
	if s.Status() != StatusUnauthenticated || s.Token() != "" {
		t.Fatalf("store not cleared: %+v", s.Snapshot())
	}
	if _, err := persist.Load(); !errors.Is(err, files.ErrNoSession) {
		t.Fatalf("persisted after failed login: %v", err)
	}
}

func TestBackendRejectionIsValidation(t *testing.T) {
	persist := files.NewMemoryStore()
	s := NewStore(&stubAPI{}, persist)
	ctx := context.Background()

	_, err := s.Login(ctx, "", "secret1")
	if client.KindOf(err) != client.KindValidation {
		t.Fatalf("Login() kind = %v, want validation (err %v)", client.KindOf(err), err)
	}
	if client.ServerMessage(err) != "username is required" {
		t.Fatalf("message = %q", client.ServerMessage(err))
	}
	if s.Status() != StatusUnauthenticated {
		t.Fatalf("status = %v", s.Status())
	}
	if _, err := persist.Load(); !errors.Is(err, files.ErrNoSession) {
		t.Fatalf("persisted after rejected login: %v", err)
	}

	_, err = s.Register(ctx, RegisterInput{Username: "taken", Email: "t@example.com", Password: "secret1", Confirm: "secret1"})
	var ce *client.Error
	if !errors.As(err, &ce) || ce.Kind != client.KindValidation || ce.Status != http.StatusBadRequest {
		t.Fatalf("Register() error = %#v", err)
	}
}

func TestLoginFetchesProfileWhenMissing(t *testing.T) {
	api := &stubAPI{omitUser: true}
	s := NewStore(api, files.NewMemoryStore())

	sess, err := s.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if api.meCalls.Load() != 1 {
		t.Fatalf("Me called %d times", api.meCalls.Load())
	}
	if sess.User == nil || sess.UserID != alice.ID {
		t.Fatalf("profile not attached: %+v", sess)
	}
}

func TestRegisterValidatesBeforeNetwork(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"short password", RegisterInput{Username: "bob", Email: "b@x.io", Password: "12345", Confirm: "12345"}, "password"},
		{"mismatch", RegisterInput{Username: "bob", Email: "b@x.io", Password: "123456", Confirm: "123457"}, "confirm"},
		{"no username", RegisterInput{Email: "b@x.io", Password: "123456", Confirm: "123456"}, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &stubAPI{}
			s := NewStore(api, files.NewMemoryStore())
			_, err := s.Register(context.Background(), tt.in)
			var ve *client.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("Register() error = %v, want validation on %s", err, tt.field)
			}
			if api.regCalls.Load() != 0 {
				t.Fatalf("request sent despite validation failure")
			}
			if s.Status() != StatusUnauthenticated {
				t.Fatalf("status = %v", s.Status())
			}
		})
	}
}

func TestRegisterSixCharPassword(t *testing.T) {
	api := &stubAPI{}
	s := NewStore(api, files.NewMemoryStore())
	sess, err := s.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "123456", Confirm: "123456",
	})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if sess.Status != StatusAuthenticated || sess.User.Username != "bob" || sess.User.Email != "bob@example.com" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestInitializeWithoutToken(t *testing.T) {
	api := &stubAPI{}
	s := NewStore(api, files.NewMemoryStore())
	if st := s.Initialize(context.Background()); st != StatusUnauthenticated {
		t.Fatalf("Initialize() = %v", st)
	}
	if api.meCalls.Load() != 0 {
		t.Fatalf("Me called without a token")
	}
}

func TestInitializeSingleFlight(t *testing.T) {
	persist := files.NewMemoryStore()
	persist.Save(&files.SessionFile{Token: "tok-alice", UserID: alice.ID})
	api := &stubAPI{meGate: make(chan struct{})}
	s := NewStore(api, persist)

	loading := make(chan struct{})
	var once sync.Once
	s.Subscribe(func(st Status) {
		if st == StatusLoading {
			once.Do(func() { close(loading) })
		}
	})

	var wg sync.WaitGroup
	results := make([]Status, 5)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = s.Initialize(context.Background())
	}()
	<-loading
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Initialize(context.Background())
		}(i)
	}
	close(api.meGate)
	wg.Wait()

	if n := api.meCalls.Load(); n != 1 {
		t.Fatalf("Me called %d times, want 1", n)
	}
	for i, st := range results {
		if st != StatusAuthenticated {
			t.Fatalf("caller %d got %v", i, st)
		}
	}
	if s.Snapshot().User.Username != "alice" {
		t.Fatalf("profile not cached")
	}
}

func TestInitializeDiscardsRejectedToken(t *testing.T) {
	persist := files.NewMemoryStore()
	persist.Save(&files.SessionFile{Token: "stale", UserID: 1})
	api := &stubAPI{meErr: &client.Error{Kind: client.KindServer, Status: 500}}
	s := NewStore(api, persist)

	if st := s.Initialize(context.Background()); st != StatusUnauthenticated {
		t.Fatalf("Initialize() = %v", st)
	}
	if _, err := persist.Load(); !errors.Is(err, files.ErrNoSession) {
		t.Fatalf("stale token kept on disk")
	}
}

func TestLogoutDuringLoginDiscardsResult(t *testing.T) {
	persist := files.NewMemoryStore()
	api := &stubAPI{omitUser: true, meGate: make(chan struct{})}
	s := NewStore(api, persist)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "alice", "secret1")
		errc <- err
	}()
	for api.meCalls.Load() == 0 {
		runtime.Gosched()
	}
	s.Logout()
	close(api.meGate)

	if err := <-errc; !errors.Is(err, ErrSessionChanged) {
		t.Fatalf("Login() error = %v, want ErrSessionChanged", err)
	}
	if s.Status() != StatusUnauthenticated || s.Token() != "" {
		t.Fatalf("session resurrected: %+v", s.Snapshot())
	}
	if _, err := persist.Load(); !errors.Is(err, files.ErrNoSession) {
		t.Fatalf("session persisted after logout")
	}
}

func TestHandleUnauthorizedNavigatesToLogin(t *testing.T) {
	persist := files.NewMemoryStore()
	var route string
	var replace bool
	s := NewStore(&stubAPI{}, persist, WithNavigator(func(r string, rep bool) { route, replace = r, rep }))
	if _, err := s.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	s.HandleUnauthorized()

	if s.Token() != "" || s.Status() != StatusUnauthenticated {
		t.Fatalf("session kept after 401")
	}
	if route != LoginRoute || !replace {
		t.Fatalf("navigated to %q replace=%v", route, replace)
	}
	if _, err := persist.Load(); !errors.Is(err, files.ErrNoSession) {
		t.Fatalf("token kept on disk after 401")
	}
}

func TestSubscribeCancel(t *testing.T) {
	s := NewStore(&stubAPI{}, files.NewMemoryStore())
	calls := 0
	cancel := s.Subscribe(func(Status) { calls++ })
	cancel()
	cancel()
	s.Login(context.Background(), "alice", "secret1")
	if calls != 0 {
		t.Fatalf("cancelled subscriber called %d times", calls)
	}
}
