package api

import (
	"context"
	"fmt"

	"libris/internal/models"
)

func (c *Client) BookReviews(ctx context.Context, bookID int64) ([]models.Review, error) {
	var reviews []models.Review
	if err := c.get(ctx, fmt.Sprintf("/reviews/review/%d", bookID), nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

type createReviewRequest struct {
	BookID  int64  `json:"book_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (c *Client) CreateReview(ctx context.Context, bookID int64, rating int, comment string) (*models.Review, error) {
	// Rating bounds are checked here so an out-of-range value never costs a
	// network round trip.
	if err := (&models.Review{Rating: rating}).Validate(); err != nil {
		return nil, err
	}

	var review models.Review
	req := createReviewRequest{BookID: bookID, Rating: rating, Comment: comment}
	if err := c.post(ctx, "/reviews/review", req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) DeleteReview(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/reviews/review/%d", id))
}
