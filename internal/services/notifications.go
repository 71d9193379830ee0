package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
)

// Notifications wraps the notification inbox.
type Notifications struct {
	c *client.Client
}

func NewNotifications(c *client.Client) *Notifications { return &Notifications{c: c} }

func (s *Notifications) List(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	if err := s.c.Do(ctx, http.MethodGet, "/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Notifications) MarkRead(ctx context.Context, id uint) error {
	return s.c.Do(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

func (s *Notifications) Delete(ctx context.Context, id uint) error {
	return s.c.Do(ctx, http.MethodDelete, fmt.Sprintf("/notifications/%d", id), nil, nil)
}

// Analytics wraps the read-only statistics endpoints.
type Analytics struct {
	c *client.Client
}

func NewAnalytics(c *client.Client) *Analytics { return &Analytics{c: c} }

func (s *Analytics) Streak(ctx context.Context) (*models.Streak, error) {
	var out models.Streak
	if err := s.c.Do(ctx, http.MethodGet, "/analytics/streak", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Analytics) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	var out models.AnalyticsSummary
	if err := s.c.Do(ctx, http.MethodGet, "/analytics/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
