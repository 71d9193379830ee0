package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/auth"
	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/services"
)

// Profile shows the cached user, task statistics and the streak.
type Profile struct {
	lifecycle
	session  *auth.Store
	accounts *services.Auth

	Tasks  *Resource[[]models.Task]
	Streak *Resource[*models.Streak]
}

func NewProfile(session *auth.Store, accounts *services.Auth, tasks *services.Tasks, analytics *services.Analytics, log *zap.SugaredLogger) *Profile {
	p := &Profile{session: session, accounts: accounts}
	p.init(log)
	p.Tasks = newResource(&p.lifecycle, "tasks", BestEffort, tasks.List)
	p.Streak = newResource(&p.lifecycle, "streak", BestEffort, analytics.Streak)
	return p
}

func (p *Profile) Load(ctx context.Context) error {
	if err := p.Tasks.Refresh(ctx); err != nil {
		return err
	}
	return p.Streak.Refresh(ctx)
}

// User returns the profile cached by the session.
func (p *Profile) User() *models.User {
	return p.session.Snapshot().User
}

func (p *Profile) Stats() models.TaskStats {
	return models.ComputeTaskStats(p.Tasks.Get())
}

// Update saves the editable fields and refreshes the cached profile.
func (p *Profile) Update(ctx context.Context, in models.ProfileInput) error {
	return p.mutate(ctx, "update_profile", func(ctx context.Context) error {
		_, err := p.accounts.UpdateProfile(ctx, in)
		return err
	}, RefreshFunc(func(ctx context.Context) error {
		_, err := p.session.RefreshProfile(ctx)
		return err
	}))
}
