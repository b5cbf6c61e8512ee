package api

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		pageSize int
		want     int
	}{
		{"exact fit", 20, 10, 2},
		{"remainder rounds up", 21, 10, 3},
		{"single short page", 3, 10, 1},
		{"empty", 0, 10, 0},
		{"zero page size", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Page[int]{Total: tt.total, PageSize: tt.pageSize}
			assert.Equal(t, tt.want, p.TotalPages())
		})
	}
}

func TestPagerLoadsTaggedPage(t *testing.T) {
	fetch := func(ctx context.Context, page int, filter ListFilter) (Page[string], error) {
		return Page[string]{Items: []string{"item"}, Total: 1, Page: page, PageSize: 10}, nil
	}

	pager := NewPager(fetch)
	result, err := pager.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)

	current, loaded := pager.Current()
	assert.True(t, loaded)
	assert.Equal(t, result, current)
}

func TestPagerSetFilterResetsPage(t *testing.T) {
	var gotPage int
	var gotFilter ListFilter
	fetch := func(ctx context.Context, page int, filter ListFilter) (Page[string], error) {
		gotPage, gotFilter = page, filter
		return Page[string]{Page: page}, nil
	}

	pager := NewPager(fetch)
	_, err := pager.GoTo(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 4, gotPage)

	pager.SetFilter(ListFilter{Query: "dune"})
	assert.Equal(t, 1, pager.PageNumber())

	_, err = pager.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gotPage, "filter change must restart from the first page")
	assert.Equal(t, "dune", gotFilter.Query)
}

// A fetch that resolves after a newer one has been issued must be dropped,
// not stored. The slow fetch for page 1 is held on a channel until the page 2
// fetch has completed.
func TestPagerDiscardsStaleResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, page int, filter ListFilter) (Page[int], error) {
		if page == 1 {
			close(started)
			<-release
		}
		return Page[int]{Items: []int{page}, Page: page, Total: 20, PageSize: 10}, nil
	}

	pager := NewPager(fetch)

	var wg sync.WaitGroup
	wg.Add(1)
	var slowErr error
	go func() {
		defer wg.Done()
		_, slowErr = pager.GoTo(context.Background(), 1)
	}()

	// The page 2 request goes out only after the page 1 fetch is in flight.
	<-started
	fresh, err := pager.GoTo(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, []int{2}, fresh.Items)

	close(release)
	wg.Wait()

	assert.ErrorIs(t, slowErr, ErrStaleResponse)
	current, loaded := pager.Current()
	require.True(t, loaded)
	assert.Equal(t, []int{2}, current.Items, "stale page 1 must not overwrite page 2")
}

func TestPagerGoToClampsToFirstPage(t *testing.T) {
	fetch := func(ctx context.Context, page int, filter ListFilter) (Page[int], error) {
		return Page[int]{Page: page}, nil
	}

	pager := NewPager(fetch)
	result, err := pager.GoTo(context.Background(), -3)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
}
