package api

import (
	"context"

	"libris/internal/models"
)

func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.get(ctx, "/notifications/get", nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationsRead flags every unread notification as read.
func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.patch(ctx, "/notifications/mark-read", nil, nil)
}
