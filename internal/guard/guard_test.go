package guard

import (
	"context"
	"testing"

	"github.com/amingeek/task-manager/internal/auth"
)

type fakeSession struct {
	status auth.Status
	subs   []func(auth.Status)
}

func (f *fakeSession) Status() auth.Status { return f.status }

func (f *fakeSession) Subscribe(fn func(auth.Status)) func() {
	f.subs = append(f.subs, fn)
	i := len(f.subs) - 1
	return func() { f.subs[i] = nil }
}

func (f *fakeSession) set(st auth.Status) {
	f.status = st
	for _, fn := range f.subs {
		if fn != nil {
			fn(st)
		}
	}
}

type fakeView struct {
	loads, unmounts int
}

func (v *fakeView) Load(context.Context) error { v.loads++; return nil }
func (v *fakeView) Unmount()                   { v.unmounts++ }

func TestDecide(t *testing.T) {
	tests := []struct {
		st   auth.Status
		want Decision
	}{
		{auth.StatusLoading, ShowPlaceholder},
		{auth.StatusUnauthenticated, RedirectToLogin},
		{auth.StatusAuthenticated, RenderView},
	}
	for _, tt := range tests {
		if got := Decide(tt.st); got != tt.want {
			t.Errorf("Decide(%v) = %v, want %v", tt.st, got, tt.want)
		}
	}
}

func TestGuardFollowsSession(t *testing.T) {
	sess := &fakeSession{status: auth.StatusLoading}
	hist := NewHistory("/")
	hist.Push("/dashboard")
	view := &fakeView{}
	g := New(sess, hist, view)

	d, err := g.Activate(context.Background())
	if err != nil || d != ShowPlaceholder {
		t.Fatalf("Activate() = %v, %v", d, err)
	}
	if view.loads != 0 {
		t.Fatalf("view loaded while session loading")
	}

	sess.set(auth.StatusAuthenticated)
	sess.set(auth.StatusAuthenticated)
	if view.loads != 1 {
		t.Fatalf("view loaded %d times, want 1", view.loads)
	}

	sess.set(auth.StatusUnauthenticated)
	if view.unmounts != 1 {
		t.Fatalf("view not unmounted on logout")
	}
	if hist.Current() != auth.LoginRoute {
		t.Fatalf("current route = %q", hist.Current())
	}
	if hist.Back(); hist.Current() == "/dashboard" {
		t.Fatalf("back navigation returned to the guarded route")
	}

	g.Deactivate()
	sess.set(auth.StatusAuthenticated)
	if view.loads != 1 {
		t.Fatalf("deactivated guard still mounting")
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory("/")
	h.Push("/groups")
	h.Push("/groups/1")
	h.Replace("/groups")
	if got := h.Entries(); len(got) != 3 || got[2] != "/groups" {
		t.Fatalf("entries = %v", got)
	}
	if !h.Back() || h.Current() != "/groups" {
		t.Fatalf("Back() -> %q", h.Current())
	}
	h.Back()
	if h.Back() {
		t.Fatalf("Back() past the first entry")
	}
	h.Navigate("/login", true)
	if h.Current() != "/login" || len(h.Entries()) != 1 {
		t.Fatalf("Navigate replace = %v", h.Entries())
	}
}
