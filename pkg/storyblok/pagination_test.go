package storyblok_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPageFailed = errors.New("page failed")

type TestResource struct {
	ID   int
	Name string
}

// MockPaginationClient serves total items, honouring page and per_page.
type MockPaginationClient struct {
	mu       sync.Mutex
	total    int
	failPage int
	requests []*storyblok.QueryParams
}

func (m *MockPaginationClient) ListWithPath(ctx context.Context, path string, params *storyblok.QueryParams) (*storyblok.ListResponse[TestResource], error) {
	m.mu.Lock()
	m.requests = append(m.requests, params.Clone())
	m.mu.Unlock()

	page := max(params.Page, 1)

	perPage := params.PerPage
	if perPage <= 0 {
		perPage = 25
	}

	if page == m.failPage {
		return nil, errPageFailed
	}

	start := min((page-1)*perPage, m.total)
	end := min(start+perPage, m.total)

	resources := make([]TestResource, 0, end-start)
	for i := start; i < end; i++ {
		resources = append(resources, TestResource{ID: i + 1})
	}

	return &storyblok.ListResponse[TestResource]{
		Pagination: storyblok.Pagination{Page: page, PerPage: perPage, Total: m.total},
		Resources:  resources,
	}, nil
}

func (m *MockPaginationClient) recorded() []*storyblok.QueryParams {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*storyblok.QueryParams(nil), m.requests...)
}

func ids(items []TestResource) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}

	return out
}

func sequence(n int) []int {
	out := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, i)
	}

	return out
}

func TestPaginationIterator(t *testing.T) {
	t.Parallel()

	client := &MockPaginationClient{total: 5}
	params := storyblok.NewQueryParams().WithPerPage(2).WithStartsWith("docs/")

	iterator := storyblok.NewPaginationIterator[TestResource](context.Background(), client, "/stories", params)

	assert.True(t, iterator.HasNext())

	var got []int

	for iterator.HasNext() {
		item, err := iterator.Next()
		require.NoError(t, err)

		got = append(got, item.ID)
	}

	assert.Equal(t, sequence(5), got)
	assert.Len(t, client.recorded(), 3)

	_, err := iterator.Next()
	require.ErrorIs(t, err, storyblok.ErrNoMoreItems)

	// the caller's params are not modified
	assert.Equal(t, 0, params.Page)
}

func TestPaginationIterator_Empty(t *testing.T) {
	t.Parallel()

	iterator := storyblok.NewPaginationIterator[TestResource](context.Background(), &MockPaginationClient{}, "/stories", nil)

	items, err := iterator.All()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPaginationIterator_ForEachStopsOnError(t *testing.T) {
	t.Parallel()

	client := &MockPaginationClient{total: 10}
	iterator := storyblok.NewPaginationIterator[TestResource](context.Background(), client, "/stories",
		storyblok.NewQueryParams().WithPerPage(3))

	stop := errors.New("stop")
	seen := 0

	err := iterator.ForEach(func(item TestResource) error {
		seen++
		if item.ID == 4 {
			return stop
		}

		return nil
	})

	require.ErrorIs(t, err, stop)
	assert.Equal(t, 4, seen)
	assert.Len(t, client.recorded(), 2)
}

func TestPaginationIterator_PageError(t *testing.T) {
	t.Parallel()

	client := &MockPaginationClient{total: 10, failPage: 2}
	iterator := storyblok.NewPaginationIterator[TestResource](context.Background(), client, "/stories",
		storyblok.NewQueryParams().WithPerPage(5))

	_, err := iterator.All()
	require.ErrorIs(t, err, errPageFailed)
}

func TestFetchAllPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		total        int
		path         string
		opts         *storyblok.PaginationOptions
		wantRequests int
		wantPerPage  int
		wantItems    int
	}{
		{
			name:         "single page",
			total:        42,
			path:         "/stories",
			wantRequests: 1,
			wantPerPage:  100,
			wantItems:    42,
		},
		{
			name:         "exact multiple",
			total:        300,
			path:         "/stories",
			wantRequests: 3,
			wantPerPage:  100,
			wantItems:    300,
		},
		{
			name:         "concurrent pages",
			total:        1001,
			path:         "/stories",
			opts:         &storyblok.PaginationOptions{Concurrency: 4},
			wantRequests: 11,
			wantPerPage:  100,
			wantItems:    1001,
		},
		{
			name:         "page size clamped",
			total:        250,
			path:         "/stories",
			opts:         &storyblok.PaginationOptions{PageSize: 500},
			wantRequests: 3,
			wantPerPage:  100,
			wantItems:    250,
		},
		{
			name:         "links allow larger pages",
			total:        2500,
			path:         "/links",
			wantRequests: 3,
			wantPerPage:  1000,
			wantItems:    2500,
		},
		{
			name:         "max pages",
			total:        1000,
			path:         "/stories",
			opts:         &storyblok.PaginationOptions{MaxPages: 2},
			wantRequests: 2,
			wantPerPage:  100,
			wantItems:    200,
		},
		{
			name:         "empty",
			total:        0,
			path:         "/stories",
			wantRequests: 1,
			wantPerPage:  100,
			wantItems:    0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &MockPaginationClient{total: tt.total}

			items, err := storyblok.FetchAllPages[TestResource](context.Background(), client, tt.path,
				storyblok.NewQueryParams().WithStartsWith("docs/"), tt.opts)
			require.NoError(t, err)
			require.NotNil(t, items)
			assert.Equal(t, sequence(tt.wantItems), ids(items))

			requests := client.recorded()
			assert.Len(t, requests, tt.wantRequests)

			for _, request := range requests {
				assert.Equal(t, tt.wantPerPage, request.PerPage)
				assert.Equal(t, "docs/", request.StartsWith)
			}
		})
	}
}

func TestFetchAllPages_Error(t *testing.T) {
	t.Parallel()

	t.Run("first page", func(t *testing.T) {
		t.Parallel()

		client := &MockPaginationClient{total: 500, failPage: 1}

		_, err := storyblok.FetchAllPages[TestResource](context.Background(), client, "/stories", nil, nil)
		require.ErrorIs(t, err, errPageFailed)
		assert.Contains(t, err.Error(), "page 1")
	})

	t.Run("later page", func(t *testing.T) {
		t.Parallel()

		client := &MockPaginationClient{total: 500, failPage: 3}

		items, err := storyblok.FetchAllPages[TestResource](context.Background(), client, "/stories", nil,
			&storyblok.PaginationOptions{Concurrency: 2})
		require.ErrorIs(t, err, errPageFailed)
		assert.Nil(t, items)
	})
}

func TestStreamPages(t *testing.T) {
	t.Parallel()

	client := &MockPaginationClient{total: 230}

	var (
		pages []int
		got   []TestResource
	)

	for result := range storyblok.StreamPages[TestResource](context.Background(), client, "/stories", nil, nil) {
		require.NoError(t, result.Err)

		pages = append(pages, result.Page)
		got = append(got, result.Items...)
	}

	assert.Equal(t, []int{1, 2, 3}, pages)
	assert.Equal(t, sequence(230), ids(got))
}

func TestStreamPages_Error(t *testing.T) {
	t.Parallel()

	client := &MockPaginationClient{total: 230, failPage: 2}

	var results []storyblok.PageResult[TestResource]
	for result := range storyblok.StreamPages[TestResource](context.Background(), client, "/stories", nil, nil) {
		results = append(results, result)
	}

	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, errPageFailed)
	assert.Equal(t, 2, results[1].Page)
}

func TestPagination(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, storyblok.Pagination{Page: 1, PerPage: 25, Total: 51}.TotalPages())
	assert.True(t, storyblok.Pagination{Page: 2, PerPage: 25, Total: 51}.HasNext())
	assert.False(t, storyblok.Pagination{Page: 3, PerPage: 25, Total: 51}.HasNext())
	assert.Equal(t, 0, storyblok.Pagination{Page: 1}.TotalPages())
}
