package guard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/auth"
	"github.com/amingeek/task-manager/internal/views"
)

type Decision int

const (
	ShowPlaceholder Decision = iota
	RedirectToLogin
	RenderView
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect_to_login"
	case RenderView:
		return "render_view"
	}
	return "show_placeholder"
}

// Decide maps a session status to what a protected route shows.
func Decide(st auth.Status) Decision {
	switch st {
	case auth.StatusAuthenticated:
		return RenderView
	case auth.StatusLoading:
		return ShowPlaceholder
	}
	return RedirectToLogin
}

// Session is what the guard needs from the session store.
type Session interface {
	Status() auth.Status
	Subscribe(fn func(auth.Status)) (cancel func())
}

type Option func(*Guard)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(g *Guard) { g.log = log }
}

// Guard wraps one protected view and keeps it in step with the session.
type Guard struct {
	session Session
	nav     views.Navigator
	view    views.View
	log     *zap.SugaredLogger

	mu       sync.Mutex
	mounted  bool
	decision Decision
	cancel   func()
	loadErr  error
}

func New(session Session, nav views.Navigator, view views.View, opts ...Option) *Guard {
	g := &Guard{session: session, nav: nav, view: view, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Activate evaluates the current status and follows every later transition until
// Deactivate. It returns the first decision and, when the view was mounted, its load error.
func (g *Guard) Activate(ctx context.Context) (Decision, error) {
	g.mu.Lock()
	if g.cancel == nil {
		g.cancel = g.session.Subscribe(func(st auth.Status) { g.apply(ctx, st) })
	}
	g.mu.Unlock()

	d := g.apply(ctx, g.session.Status())
	g.mu.Lock()
	defer g.mu.Unlock()
	return d, g.loadErr
}

// Deactivate stops following the session and unmounts the view.
func (g *Guard) Deactivate() {
	g.mu.Lock()
	cancel, mounted := g.cancel, g.mounted
	g.cancel, g.mounted = nil, false
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if mounted {
		g.view.Unmount()
	}
}

// Decision returns the last decision taken.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

func (g *Guard) apply(ctx context.Context, st auth.Status) Decision {
	d := Decide(st)

	g.mu.Lock()
	g.decision = d
	mount := d == RenderView && !g.mounted
	unmount := d == RedirectToLogin && g.mounted
	if mount {
		g.mounted = true
	}
	if unmount {
		g.mounted = false
	}
	g.mu.Unlock()

	g.log.Debugw("route decision", "status", st.String(), "decision", d.String())
	switch {
	case mount:
		err := g.view.Load(ctx)
		g.mu.Lock()
		g.loadErr = err
		g.mu.Unlock()
	case d == RedirectToLogin:
		if unmount {
			g.view.Unmount()
		}
		g.nav.Replace(auth.LoginRoute)
	}
	return d
}
