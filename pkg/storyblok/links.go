package storyblok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// UUIDFetcher fetches stories by uuid. params carries by_uuids and the
// version and language of the originating request.
type UUIDFetcher func(ctx context.Context, params *QueryParams) ([]Story, error)

// LinkResolver attaches linked and related stories to story content.
//
// Story links (multilink fields and richtext link marks) receive a "story"
// object. Fields named in resolve_relations have their uuids replaced by the
// related stories. Stories the response lists only by uuid are fetched in
// chunks through the fetcher.
type LinkResolver struct {
	fetch     UUIDFetcher
	chunkSize int
}

// NewLinkResolver creates a resolver. fetch may be nil, in which case only
// stories inlined in the response are used.
func NewLinkResolver(fetch UUIDFetcher) *LinkResolver {
	return &LinkResolver{
		fetch:     fetch,
		chunkSize: constants.ResolveChunkSize,
	}
}

// LinkResolutionInterceptor rewrites story responses of requests that ask for
// resolve_links or resolve_relations.
func LinkResolutionInterceptor(resolver *LinkResolver) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		if linkResolutionDisabled(ctx) || resp.Error != nil || resp.StatusCode >= 300 || len(resp.Body) == 0 {
			return nil
		}

		scope := newResolveScope(req.Query.Get("resolve_links"), splitList(req.Query.Get("resolve_relations")))
		if !scope.active() {
			return nil
		}

		var body map[string]interface{}

		decoder := json.NewDecoder(bytes.NewReader(resp.Body))
		decoder.UseNumber()

		if decoder.Decode(&body) != nil {
			return nil
		}

		stories := storiesIn(body)
		if len(stories) == 0 {
			return nil
		}

		scope.addStories(scope.links, body["links"])
		scope.addStories(scope.rels, body["rels"])

		base := NewQueryParams().WithVersion(req.Version()).
			WithLanguage(req.Query.Get("language")).
			WithFallbackLang(req.Query.Get("fallback_lang"))

		if scope.resolveLinks {
			err := resolver.fetchInto(ctx, base, scope.links, missing(scope.links, body["link_uuids"]))
			if err != nil {
				return fmt.Errorf("failed to resolve links: %w", err)
			}
		}

		if len(scope.relations) > 0 {
			err := resolver.fetchInto(ctx, base, scope.rels, missing(scope.rels, body["rel_uuids"]))
			if err != nil {
				return fmt.Errorf("failed to resolve relations: %w", err)
			}
		}

		for _, story := range stories {
			scope.walk(story["content"])
		}

		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode resolved response: %w", err)
		}

		resp.Body = data

		return nil
	}
}

// ResolveStory resolves links and relations of a story that did not come from
// the CDA with resolution applied, such as a story posted by the visual
// editor. Referenced stories are fetched by uuid.
func (r *LinkResolver) ResolveStory(ctx context.Context, story *Story, params *QueryParams) error {
	if story == nil || story.Content == nil || params == nil {
		return nil
	}

	scope := newResolveScope(params.ResolveLinks, params.ResolveRelations)
	if !scope.active() {
		return nil
	}

	content := map[string]interface{}(story.Content)

	linkIDs, relIDs := scope.collect(content)

	base := NewQueryParams().WithVersion(params.Version).
		WithLanguage(params.Language).
		WithFallbackLang(params.FallbackLang)

	if scope.resolveLinks {
		err := r.fetchInto(ctx, base, scope.links, linkIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve links: %w", err)
		}
	}

	err := r.fetchInto(ctx, base, scope.rels, relIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve relations: %w", err)
	}

	scope.walk(content)

	return nil
}

func (r *LinkResolver) fetchInto(ctx context.Context, base *QueryParams, target map[string]interface{}, uuids []string) error {
	if len(uuids) == 0 || r.fetch == nil {
		return nil
	}

	ctx = WithoutLinkResolution(ctx)

	for start := 0; start < len(uuids); start += r.chunkSize {
		end := min(start+r.chunkSize, len(uuids))

		params := base.Clone().WithByUUIDs(uuids[start:end]...).WithPerPage(end - start)

		stories, err := r.fetch(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to fetch stories by uuid: %w", err)
		}

		for _, story := range stories {
			object, ok := toObject(story)
			if ok && story.UUID != "" {
				target[story.UUID] = object
			}
		}
	}

	return nil
}

// resolveScope holds the stories available for one resolution pass.
type resolveScope struct {
	resolveLinks bool
	relations    map[string][]string // component -> fields
	links        map[string]interface{}
	rels         map[string]interface{}
}

func newResolveScope(resolveLinks string, relations []string) *resolveScope {
	scope := &resolveScope{
		resolveLinks: resolveLinks != "" && resolveLinks != "0",
		relations:    make(map[string][]string),
		links:        make(map[string]interface{}),
		rels:         make(map[string]interface{}),
	}

	for _, relation := range relations {
		component, field, ok := strings.Cut(relation, ".")
		if ok && component != "" && field != "" {
			scope.relations[component] = append(scope.relations[component], field)
		}
	}

	return scope
}

func (s *resolveScope) active() bool {
	return s.resolveLinks || len(s.relations) > 0
}

func (s *resolveScope) addStories(target map[string]interface{}, raw interface{}) {
	items, ok := raw.([]interface{})
	if !ok {
		return
	}

	for _, item := range items {
		story, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		if id, ok := story["uuid"].(string); ok && id != "" {
			target[id] = story
		}
	}
}

func (s *resolveScope) walk(node interface{}) {
	switch value := node.(type) {
	case []interface{}:
		for _, item := range value {
			s.walk(item)
		}
	case map[string]interface{}:
		s.walkObject(value)
	case Blok:
		s.walkObject(value)
	}
}

func (s *resolveScope) walkObject(node map[string]interface{}) {
	resolved := s.resolveRelations(node)

	for key, value := range node {
		if resolved[key] {
			continue
		}

		s.walk(value)
	}

	if s.resolveLinks {
		if id := storyLinkID(node); id != "" {
			if story, ok := s.links[id]; ok {
				node["story"] = story
			}
		}
	}
}

// resolveRelations replaces relation uuids in node and returns the replaced
// fields, which are not walked further.
func (s *resolveScope) resolveRelations(node map[string]interface{}) map[string]bool {
	component, _ := node["component"].(string)

	fields := s.relations[component]
	if len(fields) == 0 {
		return nil
	}

	resolved := make(map[string]bool, len(fields))

	for _, field := range fields {
		switch value := node[field].(type) {
		case string:
			if story, ok := s.rels[value]; ok {
				node[field] = story
				resolved[field] = true
			}
		case []interface{}:
			out := make([]interface{}, 0, len(value))

			for _, item := range value {
				if id, ok := item.(string); ok {
					if story, ok := s.rels[id]; ok {
						out = append(out, story)

						continue
					}
				}

				out = append(out, item)
			}

			node[field] = out
			resolved[field] = true
		}
	}

	return resolved
}

// collect returns the story uuids referenced by links and relations.
func (s *resolveScope) collect(node interface{}) ([]string, []string) {
	var links, rels []string

	seen := make(map[string]bool)

	add := func(list *[]string, id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			*list = append(*list, id)
		}
	}

	var visit func(node interface{})

	visit = func(node interface{}) {
		switch value := node.(type) {
		case []interface{}:
			for _, item := range value {
				visit(item)
			}
		case Blok:
			visit(map[string]interface{}(value))
		case map[string]interface{}:
			component, _ := value["component"].(string)
			for _, field := range s.relations[component] {
				switch ref := value[field].(type) {
				case string:
					add(&rels, ref)
				case []interface{}:
					for _, item := range ref {
						if id, ok := item.(string); ok {
							add(&rels, id)
						}
					}
				}
			}

			add(&links, storyLinkID(value))

			for _, child := range value {
				visit(child)
			}
		}
	}

	visit(node)

	return links, rels
}

// storyLinkID returns the linked story uuid of a multilink field or a
// richtext link mark's attrs.
func storyLinkID(node map[string]interface{}) string {
	if linkType, _ := node["linktype"].(string); linkType != LinkTypeStory {
		return ""
	}

	if fieldType, _ := node["fieldtype"].(string); fieldType == "multilink" {
		id, _ := node["id"].(string)

		return id
	}

	id, _ := node["uuid"].(string)

	return id
}

func storiesIn(body map[string]interface{}) []map[string]interface{} {
	var stories []map[string]interface{}

	if story, ok := body["story"].(map[string]interface{}); ok {
		stories = append(stories, story)
	}

	if list, ok := body["stories"].([]interface{}); ok {
		for _, item := range list {
			if story, ok := item.(map[string]interface{}); ok {
				stories = append(stories, story)
			}
		}
	}

	return stories
}

func missing(known map[string]interface{}, raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var out []string

	for _, item := range items {
		if id, ok := item.(string); ok && id != "" {
			if _, found := known[id]; !found {
				out = append(out, id)
			}
		}
	}

	return out
}

func toObject(story Story) (map[string]interface{}, bool) {
	data, err := json.Marshal(story)
	if err != nil {
		return nil, false
	}

	var object map[string]interface{}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	if decoder.Decode(&object) != nil {
		return nil, false
	}

	return object, true
}

func splitList(value string) []string {
	var out []string

	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
