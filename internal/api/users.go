package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"libris/internal/models"
)

type userListEnvelope struct {
	Items []models.User `json:"items"`
	Total int           `json:"total"`
}

func (c *Client) ListUsers(ctx context.Context, page int, filter ListFilter) (Page[models.User], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.pageSize))
	if filter.Query != "" {
		query.Set("query", filter.Query)
	}

	var env userListEnvelope
	if err := c.get(ctx, "/users/", query, &env); err != nil {
		return Page[models.User]{}, err
	}
	return Page[models.User]{Items: env.Items, Total: env.Total, Page: page, PageSize: c.pageSize}, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, fmt.Sprintf("/users/user/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Profile is the public profile page payload: the user plus their recent
// activity, fetched in one round trip.
type Profile struct {
	User    models.User     `json:"user"`
	Borrows []models.Borrow `json:"borrows"`
	Reviews []models.Review `json:"reviews"`
}

func (c *Client) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, fmt.Sprintf("/users/user/profile/%d", id), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Bio   *string `json:"bio,omitempty"`
	Image *string `json:"image,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := c.patch(ctx, fmt.Sprintf("/users/user/%d", id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type BanRequest struct {
	Banned    bool       `json:"banned"`
	Reason    string     `json:"reason,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
	Permanent bool       `json:"permanent"`
}

// SetBan bans or unbans a user. Lifting a ban sends Banned=false with the
// remaining fields empty.
func (c *Client) SetBan(ctx context.Context, id int64, req BanRequest) (*models.User, error) {
	var user models.User
	if err := c.patch(ctx, fmt.Sprintf("/users/user/ban/%d", id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
