package render

import (
	"strconv"
	"strings"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

func builtinComponents() map[string]Component {
	return map[string]Component{
		"page":     renderPage,
		"doc":      renderDoc,
		"section":  renderSection,
		"grid":     renderGrid,
		"heading":  renderHeading,
		"text":     renderText,
		"richtext": renderRichTextBlok,
		"code":     renderCode,
		"callout":  renderCallout,
		"image":    renderImage,
		"button":   renderButton,
		"teaser":   renderTeaser,
		"feature":  renderFeature,
	}
}

func renderPage(s *State, blok storyblok.Blok) {
	s.Open("div", blok, "page", nil)
	s.Bloks(blok.Bloks("body"))
	s.Close("div")
}

func renderDoc(s *State, blok storyblok.Blok) {
	s.Open("article", blok, "doc", nil)

	if title := blok.String("title"); title != "" {
		s.Heading(1, title, nil)
	}

	if _, ok := blok.Field("intro"); ok {
		s.WriteString(`<div class="doc-intro">`)
		s.RichText(blok, "intro")
		s.WriteString("</div>")
	}

	s.Bloks(blok.Bloks("body"))
	s.Close("article")
}

func renderSection(s *State, blok storyblok.Blok) {
	s.Open("section", blok, "section", nil)

	if headline := blok.String("headline"); headline != "" {
		s.Heading(2, headline, nil)
	}

	s.Bloks(blok.Bloks("body"))
	s.Close("section")
}

func renderGrid(s *State, blok storyblok.Blok) {
	columns := blok.Bloks("columns")

	s.Open("div", blok, "grid grid-cols-"+strconv.Itoa(max(len(columns), 1)), nil)

	for _, column := range columns {
		s.WriteString(`<div class="grid-column">`)
		s.Blok(column)
		s.WriteString("</div>")
	}

	s.Close("div")
}

func renderHeading(s *State, blok storyblok.Blok) {
	level, err := strconv.Atoi(strings.TrimPrefix(blok.String("level"), "h"))
	if err != nil {
		level = 2
	}

	s.Heading(level, blok.String("text"), blok)
}

func renderText(s *State, blok storyblok.Blok) {
	s.Open("p", blok, "text", nil)
	s.Text(blok.String("text"))
	s.Close("p")
}

func renderRichTextBlok(s *State, blok storyblok.Blok) {
	s.Open("div", blok, "richtext", nil)
	s.RichText(blok, "text")
	s.Close("div")
}

func renderCode(s *State, blok storyblok.Blok) {
	s.Open("div", blok, "code", nil)

	if title := blok.String("title"); title != "" {
		s.WriteString(`<div class="code-title">`)
		s.Text(title)
		s.WriteString("</div>")
	}

	s.WriteString("<pre><code")

	if language := blok.String("language"); language != "" {
		s.attr("class", "language-"+language)
	}

	s.WriteString(">")
	s.Text(blok.String("code"))
	s.WriteString("</code></pre>")
	s.Close("div")
}

var calloutTypes = map[string]bool{"info": true, "tip": true, "warning": true, "danger": true}

func renderCallout(s *State, blok storyblok.Blok) {
	kind := blok.String("type")
	if !calloutTypes[kind] {
		kind = "info"
	}

	s.Open("aside", blok, "callout callout-"+kind, map[string]string{"role": "note"})

	if title := blok.String("title"); title != "" {
		s.WriteString(`<p class="callout-title">`)
		s.Text(title)
		s.WriteString("</p>")
	}

	s.RichText(blok, "text")
	s.Close("aside")
}

func renderImage(s *State, blok storyblok.Blok) {
	asset := blok.Asset("image")
	if asset == nil {
		return
	}

	alt := asset.Alt
	if alt == "" {
		alt = blok.String("alt")
	}

	s.Open("figure", blok, "image", nil)
	s.WriteString("<img")
	s.attr("src", safeURL(asset.Filename))
	s.attr("alt", alt)

	if asset.Title != "" {
		s.attr("title", asset.Title)
	}

	s.WriteString(` loading="lazy">`)

	caption := blok.String("caption")
	if caption == "" {
		caption = asset.Copyright
	}

	if caption != "" {
		s.WriteString("<figcaption>")
		s.Text(caption)
		s.WriteString("</figcaption>")
	}

	s.Close("figure")
}

func renderButton(s *State, blok storyblok.Blok) {
	style := blok.String("style")
	if style == "" {
		style = "primary"
	}

	attrs := map[string]string{"href": s.LinkURL(blok.Link("link"))}
	if link := blok.Link("link"); link != nil && link.Target != "" {
		attrs["target"] = link.Target
	}

	s.Open("a", blok, "button button-"+style, attrs)
	s.Text(blok.String("label"))
	s.Close("a")
}

func renderTeaser(s *State, blok storyblok.Blok) {
	s.Open("div", blok, "teaser", nil)

	if headline := blok.String("headline"); headline != "" {
		s.WriteString("<h3>")
		s.Text(headline)
		s.WriteString("</h3>")
	}

	if text := blok.String("text"); text != "" {
		s.WriteString("<p>")
		s.Text(text)
		s.WriteString("</p>")
	}

	if href := s.LinkURL(blok.Link("link")); href != "" {
		label := blok.String("link_label")
		if label == "" {
			label = "Read more"
		}

		s.WriteString("<a")
		s.attr("href", href)
		s.WriteString(">")
		s.Text(label)
		s.WriteString("</a>")
	}

	s.Close("div")
}

func renderFeature(s *State, blok storyblok.Blok) {
	s.Open("div", blok, "feature", nil)

	if icon := blok.String("icon"); icon != "" {
		s.WriteString(`<span class="feature-icon"`)
		s.attr("data-icon", icon)
		s.WriteString("></span>")
	}

	s.WriteString(`<h3 class="feature-name">`)
	s.Text(blok.String("name"))
	s.WriteString("</h3>")

	if _, ok := blok.Field("description"); ok {
		s.WriteString(`<div class="feature-description">`)
		s.RichText(blok, "description")
		s.WriteString("</div>")
	}

	s.Close("div")
}
