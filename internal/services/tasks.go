package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
)

// Tasks wraps task, progress and file endpoints.
type Tasks struct {
	c *client.Client
}

func NewTasks(c *client.Client) *Tasks { return &Tasks{c: c} }

func taskPath(id uint, suffix string) string {
	return fmt.Sprintf("/tasks/%d%s", id, suffix)
}

func (s *Tasks) List(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	if err := s.c.Do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Tasks) Get(ctx context.Context, id uint) (*models.Task, error) {
	var t models.Task
	if err := s.c.Do(ctx, http.MethodGet, taskPath(id, ""), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Tasks) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	var t models.Task
	if err := s.c.Do(ctx, http.MethodPost, "/tasks", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Tasks) Update(ctx context.Context, id uint, patch models.TaskPatch) (*models.Task, error) {
	var t models.Task
	if err := s.c.Do(ctx, http.MethodPut, taskPath(id, ""), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Tasks) Delete(ctx context.Context, id uint) error {
	return s.c.Do(ctx, http.MethodDelete, taskPath(id, ""), nil, nil)
}

// progressPath picks the caller's own progress route: group tasks use /my-progress,
// personal tasks /progress.
func progressPath(task *models.Task) string {
	if task.IsGroupTask {
		return taskPath(task.ID, "/my-progress")
	}
	return taskPath(task.ID, "/progress")
}

// MyProgress returns the caller's progress on task.
func (s *Tasks) MyProgress(ctx context.Context, task *models.Task) (*models.Progress, error) {
	var p models.Progress
	if err := s.c.Do(ctx, http.MethodGet, progressPath(task), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProgress sets the caller's progress on task.
func (s *Tasks) UpdateProgress(ctx context.Context, task *models.Task, progress int, notes string) (*models.Progress, error) {
	var p models.Progress
	in := models.ProgressInput{Progress: progress, Notes: notes}
	if err := s.c.Do(ctx, http.MethodPut, progressPath(task), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GroupProgress returns every member's progress on a group task. Only the task
// creator or a group admin may read it.
func (s *Tasks) GroupProgress(ctx context.Context, id uint) ([]models.Progress, error) {
	var out []models.Progress
	if err := s.c.Do(ctx, http.MethodGet, taskPath(id, "/progress"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateGroupMemberProgress overrides one member's progress on a group task.
func (s *Tasks) UpdateGroupMemberProgress(ctx context.Context, id uint, in models.MemberProgressInput) (*models.Progress, error) {
	var p models.Progress
	if err := s.c.Do(ctx, http.MethodPut, taskPath(id, "/group-progress"), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ===== Files =====

func (s *Tasks) ListFiles(ctx context.Context, taskID uint) ([]models.File, error) {
	var out []models.File
	if err := s.c.Do(ctx, http.MethodGet, taskPath(taskID, "/files"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadFile posts r as a multipart form with fields file, task_id and notes.
func (s *Tasks) UploadFile(ctx context.Context, taskID uint, filename string, r io.Reader, notes string) (*models.File, error) {
	mb := &client.MultipartBody{
		FileField: "file",
		Filename:  filename,
		File:      r,
		Fields: map[string]string{
			"task_id": strconv.FormatUint(uint64(taskID), 10),
			"notes":   notes,
		},
	}
	var f models.File
	if err := s.c.Do(ctx, http.MethodPost, "/files/upload", nil, &f, client.WithMultipart(mb)); err != nil {
		return nil, err
	}
	return &f, nil
}

// DownloadFile streams the file content into w.
func (s *Tasks) DownloadFile(ctx context.Context, fileID uint, w io.Writer) (int64, error) {
	return s.c.Download(ctx, fmt.Sprintf("/files/%d/download", fileID), w)
}

func (s *Tasks) DeleteFile(ctx context.Context, fileID uint) error {
	return s.c.Do(ctx, http.MethodDelete, fmt.Sprintf("/files/%d", fileID), nil, nil)
}
