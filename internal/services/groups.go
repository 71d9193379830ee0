package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
)

// Groups wraps group, membership and invitation endpoints.
type Groups struct {
	c *client.Client
}

func NewGroups(c *client.Client) *Groups { return &Groups{c: c} }

func groupPath(id uint, suffix string) string {
	return fmt.Sprintf("/groups/%d%s", id, suffix)
}

func (s *Groups) List(ctx context.Context) ([]models.Group, error) {
	var out []models.Group
	if err := s.c.Do(ctx, http.MethodGet, "/groups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Groups) Get(ctx context.Context, id uint) (*models.Group, error) {
	var g models.Group
	if err := s.c.Do(ctx, http.MethodGet, groupPath(id, ""), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Create makes a group owned by the caller and invites memberIDs.
func (s *Groups) Create(ctx context.Context, name, description string, memberIDs []uint) (*models.Group, error) {
	if memberIDs == nil {
		memberIDs = []uint{}
	}
	in := models.GroupInput{Name: name, Description: description, UserIDs: memberIDs}
	var g models.Group
	if err := s.c.Do(ctx, http.MethodPost, "/groups", in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Groups) Update(ctx context.Context, id uint, patch models.GroupPatch) (*models.Group, error) {
	var g models.Group
	if err := s.c.Do(ctx, http.MethodPut, groupPath(id, ""), patch, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Groups) Delete(ctx context.Context, id uint) error {
	return s.c.Do(ctx, http.MethodDelete, groupPath(id, ""), nil, nil)
}

func (s *Groups) Search(ctx context.Context, query string) ([]models.Group, error) {
	var out []models.Group
	q := url.Values{"q": {query}}
	if err := s.c.Do(ctx, http.MethodGet, "/groups/search", nil, &out, client.WithQuery(q)); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMembers invites userIDs. Admin only.
func (s *Groups) AddMembers(ctx context.Context, id uint, userIDs []uint) error {
	return s.c.Do(ctx, http.MethodPost, groupPath(id, "/members"), models.MembersInput{UserIDs: userIDs}, nil)
}

// RemoveMember drops userID from the group. Admin only.
func (s *Groups) RemoveMember(ctx context.Context, id, userID uint) error {
	return s.c.Do(ctx, http.MethodDelete, groupPath(id, fmt.Sprintf("/members/%d", userID)), nil, nil)
}

// PendingInvitations lists groups the caller was invited to but has not joined.
func (s *Groups) PendingInvitations(ctx context.Context) ([]models.Invitation, error) {
	var out []models.Invitation
	if err := s.c.Do(ctx, http.MethodGet, "/groups/invitations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AcceptInvitation joins groupID. Only the invited user can accept.
func (s *Groups) AcceptInvitation(ctx context.Context, groupID uint) error {
	return s.c.Do(ctx, http.MethodPost, groupPath(groupID, "/accept"), nil, nil)
}

func (s *Groups) CreateGroupTask(ctx context.Context, groupID uint, in models.GroupTaskInput) (*models.Task, error) {
	var t models.Task
	if err := s.c.Do(ctx, http.MethodPost, groupPath(groupID, "/tasks"), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
