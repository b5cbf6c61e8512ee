package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"libris/internal/models"
)

type borrowListEnvelope struct {
	Items []models.Borrow `json:"items"`
	Total int             `json:"total"`
}

// ListBorrows fetches one page of borrow records. Status filter values are
// "active" and "returned"; empty means all. Never cached: borrow state is
// the thing the user just changed.
func (c *Client) ListBorrows(ctx context.Context, page int, filter ListFilter) (Page[models.Borrow], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.pageSize))
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}

	var env borrowListEnvelope
	if err := c.get(ctx, "/borrows/", query, &env); err != nil {
		return Page[models.Borrow]{}, err
	}
	return Page[models.Borrow]{Items: env.Items, Total: env.Total, Page: page, PageSize: c.pageSize}, nil
}

type borrowRequest struct {
	BookID int64 `json:"book_id"`
}

func (c *Client) BorrowBook(ctx context.Context, bookID int64) (*models.Borrow, error) {
	var borrow models.Borrow
	if err := c.post(ctx, "/borrows/borrow", borrowRequest{BookID: bookID}, &borrow); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "books:")
	return &borrow, nil
}

func (c *Client) ReturnBorrow(ctx context.Context, borrowID int64) (*models.Borrow, error) {
	var borrow models.Borrow
	if err := c.patch(ctx, fmt.Sprintf("/borrows/borrow/%d/return", borrowID), nil, &borrow); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "books:")
	return &borrow, nil
}
