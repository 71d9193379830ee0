package api

import (
	"net/http"

	"github.com/amingeek/task-manager/internal/models"
)

func (s *Server) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "OK", s.store.Groups(userID(r)))
}

func (s *Server) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	var in models.GroupInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	g, err := s.store.CreateGroup(userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Group created successfully", g)
}

func (s *Server) SearchGroupsHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "OK", s.store.SearchGroups(r.URL.Query().Get("q")))
}

func (s *Server) InvitationsHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "OK", s.store.Invitations(userID(r)))
}

func (s *Server) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	g, err := s.store.Group(id, userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "OK", g)
}

func (s *Server) UpdateGroupHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var patch models.GroupPatch
	if err := decode(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	g, err := s.store.UpdateGroup(id, userID(r), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Group updated", g)
}

func (s *Server) DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteGroup(id, userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Group deleted", nil)
}

func (s *Server) AddMembersHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in models.MembersInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.AddMembers(id, userID(r), in.UserIDs); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Members added successfully", nil)
}

func (s *Server) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	memberID, err := pathID(r, "userId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.RemoveMember(id, userID(r), memberID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Member removed", nil)
}

func (s *Server) AcceptInvitationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.AcceptInvitation(id, userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Invitation accepted", nil)
}

func (s *Server) CreateGroupTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in models.GroupTaskInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.store.CreateGroupTask(id, userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Group task created", t)
}
