package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data of a rendered page.
type Page struct {
	Title       string
	Description string
	Language    string
	SiteName    string
	Content     template.HTML
	Headings    []Heading
	Nav         []NavItem
	CurrentPath string
	Preview     *PreviewData
}

// PreviewData is set on pages rendered in draft mode.
type PreviewData struct {
	StoryID          int64
	FullSlug         string
	BridgeScriptURL  string
	ResolveRelations []string
	RenderURL        string
	EventsURL        string
}

// NavItem is an entry of the navigation.
type NavItem struct {
	Title    string
	URL      string
	Active   bool
	Folder   bool
	Children []NavItem
}

// Layout renders pages with the embedded templates.
type Layout struct {
	tmpl *template.Template
}

// NewLayout parses the embedded templates.
func NewLayout() (*Layout, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Layout{tmpl: tmpl}, nil
}

// Render writes a full page.
func (l *Layout) Render(w io.Writer, page *Page) error {
	if page.Language == "" {
		page.Language = "en"
	}

	err := l.tmpl.ExecuteTemplate(w, "layout", page)
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	return nil
}

// RenderNotFound writes the not found page.
func (l *Layout) RenderNotFound(w io.Writer, page *Page) error {
	var content strings.Builder

	err := l.tmpl.ExecuteTemplate(&content, "notfound", page)
	if err != nil {
		return fmt.Errorf("failed to render not found page: %w", err)
	}

	page.Title = "Page not found"
	//nolint:gosec // produced by html/template
	page.Content = template.HTML(content.String())

	return l.Render(w, page)
}

// Navigation builds the navigation from a link tree. Only the part below the
// resolver's base folder is used. Unpublished entries are skipped unless
// drafts is set; folder startpages are represented by their folder.
func Navigation(roots []*storyblok.LinkNode, resolver *storyblok.PathResolver, language, currentPath string, drafts bool) []NavItem {
	if resolver == nil {
		resolver = storyblok.NewPathResolver("")
	}

	nodes := roots

	if base := strings.Trim(resolver.BaseFolder, "/"); base != "" {
		nodes = nil

		for _, root := range roots {
			if root.IsFolder && strings.Trim(root.Slug, "/") == base {
				nodes = root.Children

				break
			}
		}
	}

	return navItems(nodes, resolver, language, currentPath, drafts)
}

func navItems(nodes []*storyblok.LinkNode, resolver *storyblok.PathResolver, language, currentPath string, drafts bool) []NavItem {
	items := make([]NavItem, 0, len(nodes))

	for _, node := range nodes {
		if node.IsStartpage {
			continue
		}

		if !node.IsFolder && !node.Published && !drafts {
			continue
		}

		item := NavItem{
			Title:  node.Name,
			Folder: node.IsFolder,
		}

		if node.IsFolder {
			if startpage := folderStartpage(node); startpage != nil && (startpage.Published || drafts) {
				item.URL = resolver.URLForSlug(startpage.Slug, language)
			}

			item.Children = navItems(node.Children, resolver, language, currentPath, drafts)

			if item.URL == "" && len(item.Children) == 0 {
				continue
			}
		} else {
			item.URL = resolver.URLForSlug(node.Slug, language)
		}

		item.Active = item.URL != "" && item.URL == currentPath

		items = append(items, item)
	}

	return items
}

func folderStartpage(folder *storyblok.LinkNode) *storyblok.LinkNode {
	for _, child := range folder.Children {
		if child.IsStartpage {
			return child
		}
	}

	return nil
}
