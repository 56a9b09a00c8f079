package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"quizforge-session-service/internal/domain"
)

// Admin account management. The backend enforces the admin role on these
// endpoints; the transport layer gates them as well so a non-admin request
// never leaves this process.

func (c *Client) ListUsers(ctx context.Context, token string) ([]domain.User, error) {
	if token == "" {
		return nil, domain.ErrNoToken
	}
	var users []domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, token string, user domain.User) error {
	if token == "" {
		return domain.ErrNoToken
	}
	return c.doJSON(ctx, http.MethodPost, "/admin/users", token, user, nil)
}

func (c *Client) UpdateUserRole(ctx context.Context, token string, userID int, role string) error {
	if token == "" {
		return domain.ErrNoToken
	}
	body := map[string]string{"role": role}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/admin/users/%d", userID), token, body, nil)
}

func (c *Client) DeleteUser(ctx context.Context, token string, userID int) error {
	if token == "" {
		return domain.ErrNoToken
	}
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", userID), token, nil, nil)
}
