package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"libris/internal/models"
)

type reservationListEnvelope struct {
	Items []models.Reservation `json:"items"`
	Total int                  `json:"total"`
}

func (c *Client) ListReservations(ctx context.Context, page int, filter ListFilter) (Page[models.Reservation], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.pageSize))
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}

	var env reservationListEnvelope
	if err := c.get(ctx, "/reservations/", query, &env); err != nil {
		return Page[models.Reservation]{}, err
	}
	return Page[models.Reservation]{Items: env.Items, Total: env.Total, Page: page, PageSize: c.pageSize}, nil
}

type createReservationRequest struct {
	BookID int64 `json:"book_id"`
}

// CreateReservation queues the caller for a book. When a cancelled
// reservation for the same book exists, the backend reopens it to pending
// instead of inserting a duplicate row.
func (c *Client) CreateReservation(ctx context.Context, bookID int64) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := c.post(ctx, "/reservations/", createReservationRequest{BookID: bookID}, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (c *Client) SetReservationStatus(ctx context.Context, id int64, status string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := c.patch(ctx, fmt.Sprintf("/reservations/%d/status", id), setStatusRequest{Status: status}, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// BookReservations lists reservations for a book, optionally narrowed to a
// single user (the "have I already reserved this?" check).
func (c *Client) BookReservations(ctx context.Context, bookID int64, userID *int64) ([]models.Reservation, error) {
	var query url.Values
	if userID != nil {
		query = url.Values{}
		query.Set("user_id", strconv.FormatInt(*userID, 10))
	}

	var reservations []models.Reservation
	if err := c.get(ctx, fmt.Sprintf("/reservations/book/%d", bookID), query, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// NextReservation returns the head of a book's queue, or nil when the queue
// is empty.
func (c *Client) NextReservation(ctx context.Context, bookID int64) (*models.Reservation, error) {
	var reservation models.Reservation
	err := c.get(ctx, fmt.Sprintf("/reservations/next/%d", bookID), nil, &reservation)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}
