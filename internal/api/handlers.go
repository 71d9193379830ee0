package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/utils"
)

func pathID(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, utils.BadRequest("invalid " + name)
	}
	return uint(n), nil
}

// ===== Accounts =====

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, status int, message string, u *models.User) {
	tok, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, status, message, models.AuthResult{Token: tok, User: u})
}

// RegisterHandler creates an account and signs it in.
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.store.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issue(w, r, http.StatusCreated, "User registered successfully", u)
}

// LoginHandler exchanges credentials for a token.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issue(w, r, http.StatusOK, "Login successful", u)
}

func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.User(userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "OK", u)
}

func (s *Server) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.store.UpdateProfile(userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Profile updated", u)
}

func (s *Server) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "OK", s.store.SearchUsers(r.URL.Query().Get("q")))
}

// ===== Tasks =====

func (s *Server) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "OK", s.store.Tasks(userID(r)))
}

func (s *Server) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in models.TaskInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.store.CreateTask(userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Task created", t)
}

func (s *Server) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.store.Task(id, userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "OK", t)
}

func (s *Server) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var patch models.TaskPatch
	if err := decode(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.store.UpdateTask(id, userID(r), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Task updated", t)
}

func (s *Server) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteTask(id, userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Task deleted", nil)
}

// ===== Progress =====

// GetProgressHandler serves personal progress, or the member roster of a group task.
func (s *Server) GetProgressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	uid := userID(r)
	t, err := s.store.Task(id, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if t.IsGroupTask {
		roster, err := s.store.GroupProgress(id, uid)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeData(w, http.StatusOK, "OK", roster)
		return
	}
	p, err := s.store.PersonalProgress(id, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "OK", p)
}

func (s *Server) UpdateProgressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in models.ProgressInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.UpdatePersonalProgress(id, userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Progress updated", p)
}

func (s *Server) GetMyProgressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.MyProgress(id, userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "OK", p)
}

func (s *Server) UpdateMyProgressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in models.ProgressInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.UpdateMyProgress(id, userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Progress updated", p)
}

func (s *Server) OverrideProgressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in models.MemberProgressInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.OverrideProgress(id, userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Member progress updated", p)
}

// ===== Notifications & analytics =====

func (s *Server) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "OK", s.store.Notifications(userID(r)))
}

func (s *Server) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.MarkRead(id, userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Notification marked as read", nil)
}

func (s *Server) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteNotification(id, userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Notification deleted", nil)
}

func (s *Server) StreakHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "OK", s.store.Streak(userID(r)))
}

func (s *Server) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "OK", s.store.Summary(userID(r)))
}
