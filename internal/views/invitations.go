package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/services"
)

// Invitations lists pending group invitations.
type Invitations struct {
	lifecycle
	svc *services.Groups

	List *Resource[[]models.Invitation]
}

func NewInvitations(svc *services.Groups, log *zap.SugaredLogger) *Invitations {
	v := &Invitations{svc: svc}
	v.init(log)
	v.List = newResource(&v.lifecycle, "invitations", BestEffort, svc.PendingInvitations)
	return v
}

func (v *Invitations) Load(ctx context.Context) error {
	return v.List.Refresh(ctx)
}

func (v *Invitations) Accept(ctx context.Context, groupID uint) error {
	return v.mutate(ctx, "accept_invitation", func(ctx context.Context) error {
		return v.svc.AcceptInvitation(ctx, groupID)
	}, v.List)
}

// Reject hides the invitation on this screen only. The backend has no reject endpoint,
// so the invitation comes back on the next load.
func (v *Invitations) Reject(groupID uint) {
	v.List.Update(func(list []models.Invitation) []models.Invitation {
		out := make([]models.Invitation, 0, len(list))
		for _, inv := range list {
			if inv.GroupID != groupID {
				out = append(out, inv)
			}
		}
		return out
	})
}
