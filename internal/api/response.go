package api

import (
	"encoding/json"
	"net/http"

	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/utils"
)

// writeData answers with the success envelope.
func writeData(w http.ResponseWriter, status int, message string, data any) {
	resp := models.Response{Success: true, Message: message, Code: status}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "encode response")
			return
		}
		resp.Data = raw
	}
	writeJSON(w, status, resp)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.Response{Success: false, Error: message, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fail maps err to its status. Unexpected errors are logged and answered with 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := utils.StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return utils.BadRequest("invalid request body: " + err.Error())
	}
	return nil
}
