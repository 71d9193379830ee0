package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/auth"
	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/config"
	"github.com/amingeek/task-manager/internal/files"
	"github.com/amingeek/task-manager/internal/guard"
	"github.com/amingeek/task-manager/internal/services"
	"github.com/amingeek/task-manager/internal/utils"
	"github.com/amingeek/task-manager/internal/views"
)

// HomeRoute is where a fresh process starts.
const HomeRoute = "/"

// App holds one client process: its session, services and navigation.
type App struct {
	Config  config.Config
	Log     *zap.SugaredLogger
	Client  *client.Client
	Session *auth.Store
	History *guard.History

	Auth          *services.Auth
	Tasks         *services.Tasks
	Groups        *services.Groups
	Notifications *services.Notifications
	Analytics     *services.Analytics
}

// New wires the client, the session store and every service around persist.
func New(cfg config.Config, log *zap.SugaredLogger, persist files.Store) *App {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &App{Config: cfg, Log: log, History: guard.NewHistory(HomeRoute)}

	// The client and the session refer to each other; the closures resolve a.Session lazily.
	opts := []client.Option{
		client.WithLogger(log.Named("http")),
		client.WithTokenSource(client.TokenFunc(func() string { return a.Session.Token() })),
		client.WithUnauthorizedHandler(func() { a.Session.HandleUnauthorized() }),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.RequestTimeout))
	}
	a.Client = client.New(cfg.APIURL, opts...)
	a.Auth = services.NewAuth(a.Client)
	a.Tasks = services.NewTasks(a.Client)
	a.Groups = services.NewGroups(a.Client)
	a.Notifications = services.NewNotifications(a.Client)
	a.Analytics = services.NewAnalytics(a.Client)

	a.Session = auth.NewStore(a.Auth, persist,
		auth.WithNavigator(a.History.Navigate),
		auth.WithLogger(log.Named("session")),
	)
	return a
}

// NewFromConfig builds the logger and the on-disk session file described by cfg.
func NewFromConfig(cfg config.Config) (*App, error) {
	log, err := utils.NewLogger(cfg.Environment, cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	key, err := cfg.SessionKey()
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	return New(cfg, log, files.NewFileStore(cfg.SessionDir, key)), nil
}

// UserID returns the signed-in user's id, or 0.
func (a *App) UserID() uint {
	return a.Session.Snapshot().UserID
}

// Protect wraps view in a route guard bound to this app's session and history.
func (a *App) Protect(view views.View) *guard.Guard {
	return guard.New(a.Session, a.History, view, guard.WithLogger(a.Log.Named("guard")))
}

// ===== Views =====

func (a *App) Dashboard() *views.Dashboard {
	return views.NewDashboard(a.Tasks, a.Groups, a.Log)
}

func (a *App) Profile() *views.Profile {
	return views.NewProfile(a.Session, a.Auth, a.Tasks, a.Analytics, a.Log)
}

func (a *App) GroupList() *views.Groups {
	return views.NewGroups(a.Groups, a.Log)
}

func (a *App) GroupSettings(id uint) *views.GroupSettings {
	return views.NewGroupSettings(id, a.Groups, a.Auth, a.History, a.Log)
}

func (a *App) Invitations() *views.Invitations {
	return views.NewInvitations(a.Groups, a.Log)
}

func (a *App) TaskDetail(id uint) *views.TaskDetail {
	return views.NewTaskDetail(id, a.Tasks, a.UserID, a.Log)
}

func (a *App) NotificationList() *views.Notifications {
	return views.NewNotifications(a.Notifications, a.Log)
}
