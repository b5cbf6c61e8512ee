package api

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"libris/internal/models"
)

type bookListEnvelope struct {
	Items []models.Book `json:"items"`
	Total int           `json:"total"`
}

// ListBooks fetches one catalog page. Served through the staleness-window
// cache when one is configured; the catalog changes rarely.
func (c *Client) ListBooks(ctx context.Context, page int) (Page[models.Book], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.pageSize))

	var env bookListEnvelope
	key := fmt.Sprintf("books:page=%d", page)
	if err := c.getCached(ctx, key, "/books/", query, &env); err != nil {
		return Page[models.Book]{}, err
	}
	return Page[models.Book]{Items: env.Items, Total: env.Total, Page: page, PageSize: c.pageSize}, nil
}

// SearchBooks fetches one page of search results for a text query and an
// optional genre filter.
func (c *Client) SearchBooks(ctx context.Context, page int, filter ListFilter) (Page[models.Book], error) {
	query := url.Values{}
	query.Set("query", filter.Query)
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.pageSize))
	if filter.Genre != "" {
		query.Set("genre", filter.Genre)
	}

	var env bookListEnvelope
	key := fmt.Sprintf("books:search:page=%d:q=%s:genre=%s", page, filter.Query, filter.Genre)
	if err := c.getCached(ctx, key, "/books/search", query, &env); err != nil {
		return Page[models.Book]{}, err
	}
	return Page[models.Book]{Items: env.Items, Total: env.Total, Page: page, PageSize: c.pageSize}, nil
}

func (c *Client) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	if err := c.get(ctx, fmt.Sprintf("/books/%d", id), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

type CreateBookRequest struct {
	Title       string
	Author      string
	Year        int
	ISBN        string
	TotalCopies int
	Genres      []string
	Description string
}

// CreateBook uploads a new catalog entry as multipart form data, with an
// optional cover image part.
func (c *Client) CreateBook(ctx context.Context, req CreateBookRequest, cover io.Reader, coverName string) (*models.Book, error) {
	fields := map[string]string{
		"title":        req.Title,
		"author":       req.Author,
		"year":         strconv.Itoa(req.Year),
		"isbn":         req.ISBN,
		"total_copies": strconv.Itoa(req.TotalCopies),
		"description":  req.Description,
	}
	if len(req.Genres) > 0 {
		fields["genres"] = strings.Join(req.Genres, ",")
	}

	var book models.Book
	if err := c.postMultipart(ctx, "/books/", fields, "cover", coverName, cover, &book); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "books:")
	return &book, nil
}

// UpdateBook patches the given fields; nil values stay untouched server-side.
func (c *Client) UpdateBook(ctx context.Context, id int64, patch map[string]any) (*models.Book, error) {
	var book models.Book
	if err := c.patch(ctx, fmt.Sprintf("/books/%d", id), patch, &book); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "books:")
	return &book, nil
}

func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/books/%d", id)); err != nil {
		return err
	}
	c.invalidate(ctx, "books:")
	return nil
}
