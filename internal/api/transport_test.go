package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"libris/internal/cache"
	"libris/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct{ token string }

func (s staticTokens) Token() string { return s.token }

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(config.BackendConfig{
		BaseURL:        srv.URL,
		TimeoutSeconds: 5,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}, config.PaginationConfig{PageSize: 10}, nil)
	require.NoError(t, err)
	return client, srv
}

func TestClientHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{}`))
	}))
	client.UseTokenSource(staticTokens{token: "abc123"})

	_, err := client.GetBook(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestClientNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))

	_, err := client.GetBook(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientErrorDecoding(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "error field",
			status:      http.StatusConflict,
			body:        `{"error":"book is not available"}`,
			wantMessage: "book is not available",
		},
		{
			name:        "message field",
			status:      http.StatusBadRequest,
			body:        `{"message":"invalid rating"}`,
			wantMessage: "invalid rating",
		},
		{
			name:        "unusable body",
			status:      http.StatusInternalServerError,
			body:        `<html>oops</html>`,
			wantMessage: GenericMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := client.GetBook(context.Background(), 1)
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestClientSentinelErrors(t *testing.T) {
	t.Run("401 is unauthorized", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		_, err := client.ListBorrows(context.Background(), 1, ListFilter{})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("403 is unauthorized", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		err := client.DeleteBook(context.Background(), 1)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("404 is not found", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		_, err := client.GetBook(context.Background(), 99)
		assert.True(t, IsNotFound(err))
	})
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "no copies left", UserMessage(&Error{Status: 409, Message: "no copies left"}))
	assert.Equal(t, GenericMessage, UserMessage(&Error{Status: 500, Message: ""}))
	assert.Equal(t, GenericMessage, UserMessage(assert.AnError))
	assert.Equal(t, GenericMessage, UserMessage(nil))
}

func TestListBooksCached(t *testing.T) {
	hits := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"items":[{"id":1,"title":"Dune"}],"total":1}`))
	}))
	client.UseCache(cache.NewMemory(time.Minute))

	first, err := client.ListBooks(context.Background(), 1)
	require.NoError(t, err)
	second, err := client.ListBooks(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second read must come from cache")
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 1, second.Total)
}

func TestSearchBooksQueryParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/search", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("query"))
		assert.Equal(t, "sci-fi", r.URL.Query().Get("genre"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{"items":[],"total":0}`))
	}))

	_, err := client.SearchBooks(context.Background(), 2, ListFilter{Query: "dune", Genre: "sci-fi"})
	require.NoError(t, err)
}

func TestCreateBookInvalidatesCatalogCache(t *testing.T) {
	listHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /books/", func(w http.ResponseWriter, r *http.Request) {
		listHits++
		w.Write([]byte(`{"items":[],"total":0}`))
	})
	mux.HandleFunc("POST /books/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Dune", r.FormValue("title"))
		assert.Equal(t, "Frank Herbert", r.FormValue("author"))
		w.Write([]byte(`{"id":7,"title":"Dune"}`))
	})

	client, _ := newTestClient(t, mux)
	client.UseCache(cache.NewMemory(time.Minute))

	ctx := context.Background()
	_, err := client.ListBooks(ctx, 1)
	require.NoError(t, err)
	_, err = client.ListBooks(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, listHits)

	book, err := client.CreateBook(ctx, CreateBookRequest{Title: "Dune", Author: "Frank Herbert", Year: 1965}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), book.ID)

	_, err = client.ListBooks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, listHits, "catalog cache must be invalidated after a mutation")
}

func TestDownloadReport(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download/books", r.URL.Path)
		w.Write([]byte("id,title\n1,Dune\n"))
	}))

	var buf bytes.Buffer
	err := client.DownloadReport(context.Background(), ReportBooks, &buf)
	require.NoError(t, err)
	assert.Equal(t, "id,title\n1,Dune\n", buf.String())

	err = client.DownloadReport(context.Background(), "payroll", &buf)
	assert.Error(t, err)
}
