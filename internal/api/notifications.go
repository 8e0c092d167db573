package api

import (
	"context"
	"net/http"

	"github.com/balkashynov/ems/internal/models"
)

// ListNotifications calls GET /notifications/
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	err := c.do(ctx, http.MethodGet, "/notifications/", nil, &out)
	return out, err
}

// MarkNotificationRead calls PUT /notifications/{id}/read
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID int) error {
	return c.do(ctx, http.MethodPut, "/notifications/"+escape(notificationID)+"/read", nil, nil)
}

// MarkAllNotificationsRead calls PUT /notifications/read-all
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/notifications/read-all", nil, nil)
}
