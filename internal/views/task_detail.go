package views

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/services"
)

// ErrFileNotDeletable is returned without a request when the caller neither uploaded
// the file nor created the task.
var ErrFileNotDeletable = errors.New("file can only be deleted by its uploader or the task creator")

// TaskDetail shows one task with the caller's progress, its files and, for group
// tasks, every member's progress.
type TaskDetail struct {
	lifecycle
	id     uint
	tasks  *services.Tasks
	userID func() uint

	Task       *Resource[*models.Task]
	MyProgress *Resource[*models.Progress]
	Files      *Resource[[]models.File]
	Roster     *Resource[[]models.Progress]
}

// NewTaskDetail creates the view for task id. userID reports the signed-in user.
func NewTaskDetail(id uint, tasks *services.Tasks, userID func() uint, log *zap.SugaredLogger) *TaskDetail {
	d := &TaskDetail{id: id, tasks: tasks, userID: userID}
	d.init(log)
	d.Task = newResource(&d.lifecycle, "task", Strict, func(ctx context.Context) (*models.Task, error) {
		return tasks.Get(ctx, id)
	})
	d.MyProgress = newResource(&d.lifecycle, "my_progress", BestEffort, func(ctx context.Context) (*models.Progress, error) {
		t := d.Task.Get()
		if t == nil {
			return nil, nil
		}
		return tasks.MyProgress(ctx, t)
	})
	d.Files = newResource(&d.lifecycle, "files", BestEffort, func(ctx context.Context) ([]models.File, error) {
		return tasks.ListFiles(ctx, id)
	})
	// Members without rights over the task get a 403 and an empty roster.
	d.Roster = newResource(&d.lifecycle, "roster", BestEffort, func(ctx context.Context) ([]models.Progress, error) {
		t := d.Task.Get()
		if t == nil || !t.IsGroupTask {
			return nil, nil
		}
		return tasks.GroupProgress(ctx, id)
	})
	return d
}

// Load fetches the task first; the rest depends on whether it is a group task.
func (d *TaskDetail) Load(ctx context.Context) error {
	if err := d.Task.Refresh(ctx); err != nil {
		return err
	}
	for _, r := range []interface{ Refresh(context.Context) error }{d.MyProgress, d.Files, d.Roster} {
		if err := r.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

func validProgress(p int) error {
	if p < 0 || p > 100 {
		return client.NewValidationError("progress", "progress must be between 0 and 100")
	}
	return nil
}

func (d *TaskDetail) loadedTask() (*models.Task, error) {
	t := d.Task.Get()
	if t == nil {
		return nil, client.NewValidationError("task", "task is not loaded")
	}
	return t, nil
}

// UpdateProgress records the caller's own progress.
func (d *TaskDetail) UpdateProgress(ctx context.Context, progress int, notes string) error {
	if err := validProgress(progress); err != nil {
		return err
	}
	t, err := d.loadedTask()
	if err != nil {
		return err
	}
	return d.mutate(ctx, "update_progress", func(ctx context.Context) error {
		_, err := d.tasks.UpdateProgress(ctx, t, progress, notes)
		return err
	}, d.Task, d.MyProgress, d.Roster)
}

// SetMemberProgress overrides a member's progress on a group task. Progress of 100
// approves it.
func (d *TaskDetail) SetMemberProgress(ctx context.Context, userID uint, progress int, notes string) error {
	if err := validProgress(progress); err != nil {
		return err
	}
	in := models.MemberProgressInput{UserID: userID, Progress: progress, Approved: progress == 100, Notes: notes}
	return d.mutate(ctx, "set_member_progress", func(ctx context.Context) error {
		_, err := d.tasks.UpdateGroupMemberProgress(ctx, d.id, in)
		return err
	}, d.Roster, d.MyProgress)
}

func (d *TaskDetail) UploadFile(ctx context.Context, filename string, r io.Reader, notes string) error {
	if filename == "" {
		return client.NewValidationError("file", "choose a file to upload")
	}
	return d.mutate(ctx, "upload_file", func(ctx context.Context) error {
		_, err := d.tasks.UploadFile(ctx, d.id, filename, r, notes)
		return err
	}, d.Files)
}

func (d *TaskDetail) DownloadFile(ctx context.Context, fileID uint, w io.Writer) (int64, error) {
	return d.tasks.DownloadFile(ctx, fileID, w)
}

// CanDeleteFile reports whether the signed-in user may delete f.
func (d *TaskDetail) CanDeleteFile(f *models.File) bool {
	return f.CanDelete(d.userID(), d.Task.Get())
}

func (d *TaskDetail) DeleteFile(ctx context.Context, fileID uint) error {
	for _, f := range d.Files.Get() {
		if f.ID == fileID && !d.CanDeleteFile(&f) {
			return ErrFileNotDeletable
		}
	}
	return d.mutate(ctx, "delete_file", func(ctx context.Context) error {
		return d.tasks.DeleteFile(ctx, fileID)
	}, d.Files)
}
