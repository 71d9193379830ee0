package models

import "time"

// File is an attachment owned by a task.
type File struct {
	ID         uint      `json:"id"`
	TaskID     uint      `json:"task_id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"file_size"`
	MimeType   string    `json:"mime_type,omitempty"`
	UploaderID uint      `json:"user_id"`
	Notes      string    `json:"notes,omitempty"`
	UploadedAt time.Time `json:"created_at"`
}

// CanDelete reports whether userID may delete f: the uploader or the task creator.
func (f *File) CanDelete(userID uint, task *Task) bool {
	if f.UploaderID == userID {
		return true
	}
	return task != nil && task.CreatorID == userID
}
