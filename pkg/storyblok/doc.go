// Package storyblok provides types, interfaces, and helpers for working with
// the Storyblok Content Delivery API (v2).
//
// # Overview
//
// The storyblok package defines the content types (Story, Blok, LinkEntry,
// Datasource, ...) and the interfaces of the resource clients (StoriesClient,
// LinksClient, ...). The concrete implementation is provided by the sbclient
// package, which wires configuration, transport, tokens and the interceptor
// chain. Most consumers import sbclient to construct a client and then use
// the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/storyblok-docs/pkg/sbclient"
//	  "github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := sbclient.New(ctx, &storyblok.Config{AccessToken: "public-token"})
//	  if err != nil { log.Fatal(err) }
//
//	  resp, err := cli.Stories().Get(ctx, "docs/getting-started", nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = resp.Story
//	}
//
// # Queries and pagination
//
// QueryParams expresses the CDA filters (starts_with, by_slugs, filter_query,
// resolve_links, ...). The CDA reports list totals in the Total and Per-Page
// headers; the helpers below use them to walk every page:
//
//	it := storyblok.NewPaginationIterator(ctx, cli.Stories(), "/stories",
//	  storyblok.NewQueryParams().WithStartsWith("docs/"))
//	for it.HasNext() {
//	  story, err := it.Next()
//	  if err != nil { break }
//	  _ = story
//	}
//
// or fetch all results at once, several pages in flight:
//
//	all, err := storyblok.FetchAllPages(ctx, cli.Links(), "/links", nil,
//	  &storyblok.PaginationOptions{Concurrency: 4})
//
// # Interceptors
//
// Requests pass through an InterceptorChain before they are sent. The client
// uses it for the version default, the cv cache version, the token, path
// resolution, rate limiting, circuit breaking, metrics and logging. Responses
// pass back through it, which is where LinkResolutionInterceptor attaches
// linked and related stories to story content.
//
// # Preview
//
// ParsePreviewParams and ValidatePreview check the token the visual editor
// appends to preview URLs. ParseBridgeEvent decodes bridge messages and
// ParseEditable turns a blok's _editable comment into the attributes the
// bridge uses to outline components.
//
// # Errors
//
// API errors are represented by APIError. IsNotFound, IsUnauthorized and
// IsRateLimited branch on common cases.
package storyblok
