// Package render turns story content into HTML: richtext documents, the
// component registry and the page layout.
package render

import (
	"html"
	"html/template"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// Component renders one blok into the state.
type Component func(s *State, blok storyblok.Blok)

// UnknownComponentRecorder counts bloks without a registered component.
type UnknownComponentRecorder interface {
	RecordUnknownComponent(component string)
}

// Options control a single render.
type Options struct {
	// Preview adds the attributes the visual editor uses to select bloks.
	Preview bool
	// Language is kept in generated story URLs.
	Language string
}

// Heading is an anchor target collected while rendering.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Result is the output of a render.
type Result struct {
	HTML     template.HTML
	Headings []Heading
}

// Renderer renders bloks through registered components.
type Renderer struct {
	mu         sync.RWMutex
	components map[string]Component
	resolver   *storyblok.PathResolver
	logger     *zap.Logger
	recorder   UnknownComponentRecorder
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for unknown components.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPathResolver sets the resolver used to build story URLs.
func WithPathResolver(resolver *storyblok.PathResolver) Option {
	return func(r *Renderer) {
		if resolver != nil {
			r.resolver = resolver
		}
	}
}

// WithRecorder sets the recorder for unknown components.
func WithRecorder(recorder UnknownComponentRecorder) Option {
	return func(r *Renderer) {
		r.recorder = recorder
	}
}

// WithComponent registers or replaces a component.
func WithComponent(name string, component Component) Option {
	return func(r *Renderer) {
		r.components[name] = component
	}
}

// New creates a renderer with the built-in components.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		components: builtinComponents(),
		resolver:   storyblok.NewPathResolver(""),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds or replaces a component.
func (r *Renderer) Register(name string, component Component) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.components[name] = component
}

// Components returns the registered component names, sorted.
func (r *Renderer) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Renderer) component(name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	component, ok := r.components[name]

	return component, ok
}

// Story renders the content of a story.
func (r *Renderer) Story(story *storyblok.Story, opts Options) Result {
	s := r.newState(opts)

	if story != nil && story.Content != nil {
		s.Blok(story.Content)
	}

	return s.result()
}

// Bloks renders a list of bloks.
func (r *Renderer) Bloks(bloks []storyblok.Blok, opts Options) Result {
	s := r.newState(opts)
	s.Bloks(bloks)

	return s.result()
}

// RichText renders a richtext field value.
func (r *Renderer) RichText(raw interface{}, opts Options) Result {
	s := r.newState(opts)
	s.richText(raw)

	return s.result()
}

func (r *Renderer) newState(opts Options) *State {
	return &State{
		renderer: r,
		opts:     opts,
		ids:      make(map[string]int),
	}
}

// State accumulates the output of one render.
type State struct {
	renderer *Renderer
	opts     Options
	buf      strings.Builder
	headings []Heading
	ids      map[string]int
}

func (s *State) result() Result {
	//nolint:gosec // every value written to the buffer is escaped
	return Result{HTML: template.HTML(s.buf.String()), Headings: s.headings}
}

// Options returns the options of the render.
func (s *State) Options() Options {
	return s.opts
}

// WriteString writes raw markup.
func (s *State) WriteString(markup string) {
	s.buf.WriteString(markup)
}

// Text writes escaped text.
func (s *State) Text(text string) {
	s.buf.WriteString(html.EscapeString(text))
}

// Blok renders a blok through its component, or a placeholder when none is
// registered.
func (s *State) Blok(blok storyblok.Blok) {
	name := blok.Component()

	component, ok := s.renderer.component(name)
	if !ok {
		s.unknown(blok)

		return
	}

	component(s, blok)
}

// Bloks renders bloks in order.
func (s *State) Bloks(bloks []storyblok.Blok) {
	for _, blok := range bloks {
		s.Blok(blok)
	}
}

// RichText renders a richtext field of blok.
func (s *State) RichText(blok storyblok.Blok, field string) {
	s.richText(blok[field])
}

// Open writes the opening tag of the element representing blok. In preview
// mode it carries the editable attributes. attrs are written in key order.
func (s *State) Open(tag string, blok storyblok.Blok, class string, attrs map[string]string) {
	s.WriteString("<" + tag)

	if class != "" {
		s.attr("class", class)
	}

	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		s.attr(key, attrs[key])
	}

	if s.opts.Preview && blok != nil {
		if info, ok := storyblok.ParseEditable(blok); ok {
			editable := info.Attributes()
			s.attr("data-blok-c", editable["data-blok-c"])
			s.attr("data-blok-uid", editable["data-blok-uid"])
		}
	}

	s.WriteString(">")
}

// Close writes a closing tag.
func (s *State) Close(tag string) {
	s.WriteString("</" + tag + ">")
}

// Heading writes a heading with an anchor id and records it.
func (s *State) Heading(level int, text string, blok storyblok.Blok) {
	if level < 1 || level > 6 {
		level = 2
	}

	tag := "h" + strconv.Itoa(level)
	id := s.headingID(text)

	s.headings = append(s.headings, Heading{Level: level, ID: id, Text: text})

	s.Open(tag, blok, "", map[string]string{"id": id})
	s.Text(text)
	s.Close(tag)
}

// LinkURL returns the href of a multilink field value.
func (s *State) LinkURL(link *storyblok.MultiLink) string {
	if link == nil {
		return ""
	}

	var href string

	switch link.LinkType {
	case storyblok.LinkTypeStory:
		switch {
		case link.Story != nil:
			href = s.renderer.resolver.URLForSlug(link.Story.FullSlug, s.opts.Language)
		case link.CachedURL != "":
			href = s.renderer.resolver.URLForSlug(link.CachedURL, s.opts.Language)
		}
	case storyblok.LinkTypeEmail:
		email := link.Email
		if email == "" {
			email = link.URL
		}

		if email != "" {
			href = "mailto:" + email
		}
	default:
		href = link.URL
		if href == "" {
			href = link.CachedURL
		}
	}

	if href != "" && link.Anchor != "" {
		href += "#" + link.Anchor
	}

	return safeURL(href)
}

func (s *State) unknown(blok storyblok.Blok) {
	name := blok.Component()
	if name == "" {
		name = "(none)"
	}

	s.renderer.logger.Warn("unknown component", zap.String("component", name), zap.String("uid", blok.UID()))

	if s.renderer.recorder != nil {
		s.renderer.recorder.RecordUnknownComponent(name)
	}

	s.Open("div", blok, "unknown-component", map[string]string{"data-component": name})
	s.WriteString("Component <code>")
	s.Text(name)
	s.WriteString("</code> is not defined.")
	s.Close("div")
}

func (s *State) attr(name, value string) {
	s.buf.WriteString(" " + name + `="` + html.EscapeString(value) + `"`)
}

// headingID returns a unique anchor id for a heading text.
func (s *State) headingID(text string) string {
	id := Slugify(text)
	if id == "" {
		id = "section"
	}

	s.ids[id]++
	if n := s.ids[id]; n > 1 {
		return id + "-" + strconv.Itoa(n)
	}

	return id
}

// Slugify lowercases text and joins its letters and digits with hyphens.
func Slugify(text string) string {
	var b strings.Builder

	pending := false

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}

			pending = false

			b.WriteRune(r)

			continue
		}

		pending = true
	}

	return b.String()
}

var allowedSchemes = map[string]bool{"http": true, "https": true, "mailto": true, "tel": true}

// safeURL drops URLs with schemes other than http, https, mailto and tel.
func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "#"
	}

	if parsed.Scheme != "" && !allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return "#"
	}

	return raw
}
