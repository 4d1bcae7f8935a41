// Package sbclient provides the primary entry point for constructing a
// Storyblok Content Delivery API client that implements the storyblok.Client
// interface.
//
// It layers configuration, HTTP transport, token selection, cache version
// tracking and link resolution on top of the resource interfaces and types
// defined in the storyblok package. Most applications import sbclient to
// build a client, then use the returned storyblok.Client to access the
// resource clients: Stories(), Links(), Tags(), Datasources(), ...
//
// Quick start
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
//
//	  // Published content only.
//	  cli, err := sbclient.NewWithToken(ctx, "public-token")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or the full configuration:
//	  cli, err = sbclient.New(ctx, &storyblok.Config{
//	    AccessToken:      "public-token",
//	    PreviewToken:     "preview-token",
//	    Region:           storyblok.RegionUS,
//	    ResolveLinks:     "story",
//	    ResolveRelations: []string{"page.author"},
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  resp, err := cli.Stories().Get(ctx, "docs/getting-started",
//	    storyblok.NewQueryParams().WithVersion(storyblok.VersionDraft))
//	  if err != nil { log.Fatal(err) }
//	  _ = resp.Story
//	}
//
// Retries
//
// Requests failing with 429, 5xx or a connection error are retried with
// exponential backoff. New uses five retries when Config.RetryMax is 0; a
// negative value disables retries.
//
// Cache version
//
// The client remembers the cv of published responses and sends it on later
// requests, so list and detail pages read the same snapshot. Call
// CacheVersion().Flush() after a publish webhook to pick up new content.
//
// See also: package storyblok for resource interfaces, types and helpers.
package sbclient
