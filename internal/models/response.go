package models

import "encoding/json"

// Response is the envelope every backend endpoint answers with.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    int             `json:"code"`
}
