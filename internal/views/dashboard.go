package views

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/services"
)

// Dashboard lists the user's tasks and groups and edits personal tasks.
type Dashboard struct {
	lifecycle
	tasks *services.Tasks

	Tasks  *Resource[[]models.Task]
	Groups *Resource[[]models.Group]
}

func NewDashboard(tasks *services.Tasks, groups *services.Groups, log *zap.SugaredLogger) *Dashboard {
	d := &Dashboard{tasks: tasks}
	d.init(log)
	d.Tasks = newResource(&d.lifecycle, "tasks", BestEffort, tasks.List)
	d.Groups = newResource(&d.lifecycle, "groups", BestEffort, groups.List)
	return d
}

func (d *Dashboard) Load(ctx context.Context) error {
	if err := d.Tasks.Refresh(ctx); err != nil {
		return err
	}
	return d.Groups.Refresh(ctx)
}

// Stats counts the personal tasks currently shown.
func (d *Dashboard) Stats() models.TaskStats {
	return models.ComputeTaskStats(d.Tasks.Get())
}

// CreateTask adds a personal task. Only the title is required.
func (d *Dashboard) CreateTask(ctx context.Context, in models.TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return client.NewValidationError("title", "title is required")
	}
	if in.StartTime != nil && in.EndTime != nil && in.EndTime.Before(*in.StartTime) {
		return client.NewValidationError("end_time", "end time must be after start time")
	}
	return d.mutate(ctx, "create_task", func(ctx context.Context) error {
		_, err := d.tasks.Create(ctx, in)
		return err
	}, d.Tasks)
}

// SetStatus changes only the status of task id. Expired is computed by the server.
func (d *Dashboard) SetStatus(ctx context.Context, id uint, status models.TaskStatus) error {
	if !status.Valid() || status == models.StatusExpired {
		return client.NewValidationError("status", "unknown status "+string(status))
	}
	return d.mutate(ctx, "set_status", func(ctx context.Context) error {
		_, err := d.tasks.Update(ctx, id, models.TaskPatch{Status: &status})
		return err
	}, d.Tasks)
}

func (d *Dashboard) DeleteTask(ctx context.Context, id uint) error {
	return d.mutate(ctx, "delete_task", func(ctx context.Context) error {
		return d.tasks.Delete(ctx, id)
	}, d.Tasks)
}
