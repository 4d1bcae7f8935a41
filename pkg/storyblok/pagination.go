package storyblok

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// PaginationClient is implemented by every paginated resource client.
type PaginationClient[T any] interface {
	ListWithPath(ctx context.Context, path string, params *QueryParams) (*ListResponse[T], error)
}

// PaginationOptions configures fetch-all helpers.
type PaginationOptions struct {
	// PageSize is sent as per_page. It is clamped to the endpoint maximum.
	PageSize int
	// MaxPages caps the number of pages fetched. 0 uses the default cap
	// (500 pages); a negative value fetches every page.
	MaxPages int
	// Concurrency is the number of pages fetched in parallel after page 1.
	Concurrency int
}

// DefaultPaginationOptions returns default pagination options.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		PageSize:    constants.MaxPerPage,
		MaxPages:    constants.MaxPages,
		Concurrency: 1,
	}
}

// maxPageSize returns the largest per_page the endpoint accepts.
func maxPageSize(path string) int {
	if strings.HasSuffix(strings.TrimSuffix(path, "/"), constants.APIPathLinks) {
		return constants.MaxLinksPerPage
	}

	return constants.MaxPerPage
}

func normalizeOptions(opts *PaginationOptions, path string) PaginationOptions {
	normalized := *DefaultPaginationOptions()
	limit := maxPageSize(path)
	normalized.PageSize = limit

	if opts != nil {
		if opts.PageSize > 0 {
			normalized.PageSize = min(opts.PageSize, limit)
		}

		switch {
		case opts.MaxPages > 0:
			normalized.MaxPages = opts.MaxPages
		case opts.MaxPages < 0:
			normalized.MaxPages = 0
		}

		if opts.Concurrency > 0 {
			normalized.Concurrency = opts.Concurrency
		}
	}

	return normalized
}

// lastPage computes the last page to fetch from the first response.
func lastPage(pagination Pagination, pageSize, maxPages int) int {
	perPage := pagination.PerPage
	if perPage <= 0 {
		perPage = pageSize
	}

	last := 1
	if pagination.Total > 0 && perPage > 0 {
		last = (pagination.Total + perPage - 1) / perPage
	}

	if maxPages > 0 && last > maxPages {
		last = maxPages
	}

	return last
}

func pageParams(params *QueryParams, page, pageSize int) *QueryParams {
	clone := params.Clone()
	clone.Page = page
	clone.PerPage = pageSize

	return clone
}

// PaginationIterator walks items across pages.
type PaginationIterator[T any] struct {
	ctx        context.Context
	client     PaginationClient[T]
	path       string
	params     *QueryParams
	current    []T
	index      int
	page       int
	pagination Pagination
	fetched    bool
}

// NewPaginationIterator creates a new pagination iterator.
func NewPaginationIterator[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams) *PaginationIterator[T] {
	return &PaginationIterator[T]{
		ctx:    ctx,
		client: client,
		path:   path,
		params: params.Clone(),
	}
}

// HasNext returns true if there are more items.
func (p *PaginationIterator[T]) HasNext() bool {
	if p.index < len(p.current) {
		return true
	}

	if !p.fetched {
		return true
	}

	return p.pagination.HasNext()
}

// Next returns the next item.
func (p *PaginationIterator[T]) Next() (T, error) {
	var zero T

	if p.index >= len(p.current) {
		if p.fetched && !p.pagination.HasNext() {
			return zero, ErrNoMoreItems
		}

		err := p.fetchNextPage()
		if err != nil {
			return zero, err
		}

		if len(p.current) == 0 {
			return zero, ErrNoMoreItems
		}
	}

	item := p.current[p.index]
	p.index++

	return item, nil
}

func (p *PaginationIterator[T]) fetchNextPage() error {
	page := p.page + 1

	params := p.params.Clone()
	params.Page = page

	resp, err := p.client.ListWithPath(p.ctx, p.path, params)
	if err != nil {
		return fmt.Errorf("failed to fetch page %d: %w", page, err)
	}

	if resp.Pagination.Page == 0 {
		resp.Pagination.Page = page
	}

	p.page = page
	p.pagination = resp.Pagination
	p.current = resp.Resources
	p.index = 0
	p.fetched = true

	return nil
}

// All fetches all remaining items.
func (p *PaginationIterator[T]) All() ([]T, error) {
	items := make([]T, 0)

	err := p.ForEach(func(item T) error {
		items = append(items, item)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// ForEach calls fn for every remaining item until fn returns an error.
func (p *PaginationIterator[T]) ForEach(fn func(T) error) error {
	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return nil
			}

			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// FetchAllPages fetches every page of a list. Page 1 is fetched first to learn
// the total; the remaining pages are fetched with up to opts.Concurrency
// requests in flight. Items keep page order.
func FetchAllPages[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams, opts *PaginationOptions) ([]T, error) {
	options := normalizeOptions(opts, path)

	first, err := client.ListWithPath(ctx, path, pageParams(params, 1, options.PageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page 1: %w", err)
	}

	last := lastPage(first.Pagination, options.PageSize, options.MaxPages)

	pages := make([][]T, last)
	pages[0] = first.Resources

	if last > 1 {
		err = fetchRemainingPages(ctx, client, path, params, options, pages)
		if err != nil {
			return nil, err
		}
	}

	total := 0
	for _, page := range pages {
		total += len(page)
	}

	items := make([]T, 0, total)
	for _, page := range pages {
		items = append(items, page...)
	}

	return items, nil
}

func fetchRemainingPages[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams, options PaginationOptions, pages [][]T) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		waitGroup sync.WaitGroup
		errOnce   sync.Once
		firstErr  error
	)

	semaphore := make(chan struct{}, options.Concurrency)

	for page := 2; page <= len(pages); page++ {
		waitGroup.Add(1)

		go func(page int) {
			defer waitGroup.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				return
			}

			defer func() { <-semaphore }()

			resp, err := client.ListWithPath(ctx, path, pageParams(params, page, options.PageSize))
			if err != nil {
				errOnce.Do(func() {
					firstErr = fmt.Errorf("failed to fetch page %d: %w", page, err)

					cancel()
				})

				return
			}

			pages[page-1] = resp.Resources
		}(page)
	}

	waitGroup.Wait()

	if firstErr != nil {
		return firstErr
	}

	return ctx.Err()
}

// PageResult is one page delivered by StreamPages.
type PageResult[T any] struct {
	Items []T
	Page  int
	Err   error
}

// StreamPages fetches pages sequentially and delivers them on the returned
// channel. The channel is closed after the last page, the first error, or
// when ctx is done.
func StreamPages[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams, opts *PaginationOptions) <-chan PageResult[T] {
	options := normalizeOptions(opts, path)
	results := make(chan PageResult[T], constants.SmallBufferSize)

	go func() {
		defer close(results)

		last := 1

		for page := 1; page <= last; page++ {
			resp, err := client.ListWithPath(ctx, path, pageParams(params, page, options.PageSize))
			if err != nil {
				select {
				case results <- PageResult[T]{Page: page, Err: fmt.Errorf("failed to fetch page %d: %w", page, err)}:
				case <-ctx.Done():
				}

				return
			}

			if page == 1 {
				last = lastPage(resp.Pagination, options.PageSize, options.MaxPages)
			}

			select {
			case results <- PageResult[T]{Items: resp.Resources, Page: page}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}
