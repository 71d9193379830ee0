package views

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/services"
)

// Groups lists the user's groups and creates new ones.
type Groups struct {
	lifecycle
	svc *services.Groups

	List    *Resource[[]models.Group]
	Results *Resource[[]models.Group]

	qmu   sync.Mutex
	query string
}

func NewGroups(svc *services.Groups, log *zap.SugaredLogger) *Groups {
	g := &Groups{svc: svc}
	g.init(log)
	g.List = newResource(&g.lifecycle, "groups", Strict, svc.List)
	g.Results = newResource(&g.lifecycle, "group_search", BestEffort, g.search)
	return g
}

func (g *Groups) Load(ctx context.Context) error {
	return g.List.Refresh(ctx)
}

func (g *Groups) search(ctx context.Context) ([]models.Group, error) {
	g.qmu.Lock()
	q := g.query
	g.qmu.Unlock()
	if q == "" {
		return nil, nil
	}
	return g.svc.Search(ctx, q)
}

// Search finds groups by name. A blank query clears the results without a request.
func (g *Groups) Search(ctx context.Context, query string) error {
	g.qmu.Lock()
	g.query = strings.TrimSpace(query)
	g.qmu.Unlock()
	return g.Results.Refresh(ctx)
}

// Create makes a group with the caller as admin and invites memberIDs.
func (g *Groups) Create(ctx context.Context, name, description string, memberIDs []uint) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return client.NewValidationError("name", "group name is required")
	}
	return g.mutate(ctx, "create_group", func(ctx context.Context) error {
		_, err := g.svc.Create(ctx, name, description, memberIDs)
		return err
	}, g.List)
}
