package views

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/services"
)

// ErrAlreadyMember is returned without a request when the user is already listed.
var ErrAlreadyMember = errors.New("user is already a member of this group")

// GroupsRoute is where a deleted group's settings navigate to.
const GroupsRoute = "/groups"

// GroupSettings manages one group: details, members and group tasks.
type GroupSettings struct {
	lifecycle
	id     uint
	groups *services.Groups
	users  *services.Auth
	nav    Navigator

	Group      *Resource[*models.Group]
	Candidates *Resource[[]models.User]

	qmu   sync.Mutex
	query string
}

func NewGroupSettings(id uint, groups *services.Groups, users *services.Auth, nav Navigator, log *zap.SugaredLogger) *GroupSettings {
	s := &GroupSettings{id: id, groups: groups, users: users, nav: nav}
	s.init(log)
	s.Group = newResource(&s.lifecycle, "group", Strict, func(ctx context.Context) (*models.Group, error) {
		return groups.Get(ctx, id)
	})
	s.Candidates = newResource(&s.lifecycle, "candidates", BestEffort, s.searchCandidates)
	return s
}

func (s *GroupSettings) Load(ctx context.Context) error {
	return s.Group.Refresh(ctx)
}

func (s *GroupSettings) Update(ctx context.Context, patch models.GroupPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return client.NewValidationError("name", "group name is required")
	}
	return s.mutate(ctx, "update_group", func(ctx context.Context) error {
		_, err := s.groups.Update(ctx, s.id, patch)
		return err
	}, s.Group)
}

// searchCandidates returns matching users who are not listed in the group yet.
func (s *GroupSettings) searchCandidates(ctx context.Context) ([]models.User, error) {
	s.qmu.Lock()
	q := s.query
	s.qmu.Unlock()
	if q == "" {
		return nil, nil
	}
	users, err := s.users.SearchUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	g := s.Group.Get()
	if g == nil {
		return users, nil
	}
	out := users[:0]
	for _, u := range users {
		if !g.HasMember(u.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *GroupSettings) SearchCandidates(ctx context.Context, query string) error {
	s.qmu.Lock()
	s.query = strings.TrimSpace(query)
	s.qmu.Unlock()
	return s.Candidates.Refresh(ctx)
}

// AddMember invites userID. A user already listed is rejected locally.
func (s *GroupSettings) AddMember(ctx context.Context, userID uint) error {
	if g := s.Group.Get(); g != nil && g.HasMember(userID) {
		return ErrAlreadyMember
	}
	return s.mutate(ctx, "add_member", func(ctx context.Context) error {
		return s.groups.AddMembers(ctx, s.id, []uint{userID})
	}, s.Group, s.Candidates)
}

func (s *GroupSettings) RemoveMember(ctx context.Context, userID uint) error {
	return s.mutate(ctx, "remove_member", func(ctx context.Context) error {
		return s.groups.RemoveMember(ctx, s.id, userID)
	}, s.Group)
}

// Delete removes the group and leaves the settings screen for good.
func (s *GroupSettings) Delete(ctx context.Context) error {
	err := s.mutate(ctx, "delete_group", func(ctx context.Context) error {
		return s.groups.Delete(ctx, s.id)
	})
	if err != nil {
		return err
	}
	if s.nav != nil && s.Mounted() {
		s.nav.Replace(GroupsRoute)
	}
	return nil
}

// CreateTask assigns a task to the group, or to userIDs when given.
func (s *GroupSettings) CreateTask(ctx context.Context, in models.GroupTaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return client.NewValidationError("title", "title is required")
	}
	return s.mutate(ctx, "create_group_task", func(ctx context.Context) error {
		_, err := s.groups.CreateGroupTask(ctx, s.id, in)
		return err
	}, s.Group)
}
