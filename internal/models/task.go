package models

import (
	"math"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	// StatusExpired is computed by the server once EndTime has passed.
	StatusExpired TaskStatus = "expired"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

type Task struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	IsGroupTask bool       `json:"is_group_task"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatorID   uint       `json:"creator_id"`
	GroupID     *uint      `json:"group_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskInput is the body of POST /tasks.
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// TaskPatch is the body of PUT /tasks/{id}. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
}

// GroupTaskInput is the body of POST /groups/{id}/tasks.
type GroupTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	UserIDs     []uint     `json:"user_ids,omitempty"`
}

// Progress is one (task, user) progress record.
type Progress struct {
	TaskID      uint   `json:"task_id"`
	UserID      uint   `json:"user_id"`
	Progress    int    `json:"progress"`
	Notes       string `json:"notes"`
	Approved    bool   `json:"approved"`
	IsCompleted bool   `json:"is_completed"`
	User        *User  `json:"user,omitempty"`
}

// ProgressInput is the body of PUT /tasks/{id}/progress and /my-progress.
type ProgressInput struct {
	Progress int    `json:"progress"`
	Notes    string `json:"notes"`
}

// MemberProgressInput is the body of PUT /tasks/{id}/group-progress.
type MemberProgressInput struct {
	UserID   uint   `json:"user_id"`
	Progress int    `json:"progress"`
	Approved bool   `json:"approved"`
	Notes    string `json:"notes,omitempty"`
}

// TaskStats summarises the personal tasks of a list.
type TaskStats struct {
	Total          int
	Completed      int
	Pending        int
	InProgress     int
	Expired        int
	CompletionRate int
}

// ComputeTaskStats counts personal tasks by status. Group tasks are ignored.
func ComputeTaskStats(tasks []Task) TaskStats {
	var st TaskStats
	for _, t := range tasks {
		if t.IsGroupTask {
			continue
		}
		st.Total++
		switch t.Status {
		case StatusCompleted:
			st.Completed++
		case StatusPending:
			st.Pending++
		case StatusInProgress:
			st.InProgress++
		case StatusExpired:
			st.Expired++
		}
	}
	st.CompletionRate = CompletionRate(st.Completed, st.Total)
	return st
}

// CompletionRate returns round(completed/total*100), or 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
