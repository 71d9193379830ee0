package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/services"
)

type Notifications struct {
	lifecycle
	svc *services.Notifications

	List *Resource[[]models.Notification]
}

func NewNotifications(svc *services.Notifications, log *zap.SugaredLogger) *Notifications {
	n := &Notifications{svc: svc}
	n.init(log)
	n.List = newResource(&n.lifecycle, "notifications", BestEffort, svc.List)
	return n
}

func (n *Notifications) Load(ctx context.Context) error {
	return n.List.Refresh(ctx)
}

func (n *Notifications) Unread() int {
	count := 0
	for _, item := range n.List.Get() {
		if !item.IsRead {
			count++
		}
	}
	return count
}

func (n *Notifications) MarkRead(ctx context.Context, id uint) error {
	return n.mutate(ctx, "mark_read", func(ctx context.Context) error {
		return n.svc.MarkRead(ctx, id)
	}, n.List)
}

func (n *Notifications) Delete(ctx context.Context, id uint) error {
	return n.mutate(ctx, "delete_notification", func(ctx context.Context) error {
		return n.svc.Delete(ctx, id)
	}, n.List)
}
