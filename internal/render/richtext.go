package render

import (
	"strconv"
	"strings"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// Node is a richtext document node.
type Node struct {
	Type    string                 `json:"type"`
	Content []Node                 `json:"content,omitempty"`
	Text    string                 `json:"text,omitempty"`
	Marks   []Mark                 `json:"marks,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
}

// Mark is an inline formatting of a text node.
type Mark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

var simpleMarks = map[string]string{
	"bold":        "strong",
	"italic":      "em",
	"strike":      "s",
	"underline":   "u",
	"code":        "code",
	"superscript": "sup",
	"subscript":   "sub",
	"highlight":   "mark",
}

var simpleNodes = map[string]string{
	"paragraph":   "p",
	"bullet_list": "ul",
	"list_item":   "li",
	"blockquote":  "blockquote",
	"doc":         "",
}

// richText renders a richtext field value. Strings are rendered as escaped
// paragraphs, which is how plain textarea content shows up.
func (s *State) richText(raw interface{}) {
	switch value := raw.(type) {
	case nil:
		return
	case string:
		if value != "" {
			s.WriteString("<p>")
			s.Text(value)
			s.WriteString("</p>")
		}

		return
	}

	var doc Node
	if !(storyblok.Blok{"doc": raw}).Decode("doc", &doc) {
		return
	}

	s.node(doc)
}

func (s *State) node(n Node) {
	switch n.Type {
	case "text":
		s.text(n)
	case "heading":
		s.heading(n)
	case "code_block":
		s.WriteString("<pre><code")

		if class := attrString(n.Attrs, "class"); class != "" {
			s.attr("class", class)
		}

		s.WriteString(">")

		for _, child := range n.Content {
			s.Text(child.Text)
		}

		s.WriteString("</code></pre>")
	case "horizontal_rule":
		s.WriteString("<hr>")
	case "hard_break":
		s.WriteString("<br>")
	case "image":
		s.WriteString("<img")
		s.attr("src", safeURL(attrString(n.Attrs, "src")))
		s.attr("alt", attrString(n.Attrs, "alt"))

		if title := attrString(n.Attrs, "title"); title != "" {
			s.attr("title", title)
		}

		s.WriteString(` loading="lazy">`)
	case "blok":
		s.Bloks(storyblok.Blok{"body": n.Attrs["body"]}.Bloks("body"))
	case "ordered_list":
		s.WriteString("<ol")

		if start := attrInt(n.Attrs, "order"); start > 1 {
			s.attr("start", strconv.Itoa(start))
		}

		s.WriteString(">")
		s.children(n)
		s.WriteString("</ol>")
	default:
		tag, ok := simpleNodes[n.Type]
		if !ok {
			s.children(n)

			return
		}

		if tag == "" {
			s.children(n)

			return
		}

		s.WriteString("<" + tag + ">")
		s.children(n)
		s.WriteString("</" + tag + ">")
	}
}

func (s *State) children(n Node) {
	for _, child := range n.Content {
		s.node(child)
	}
}

func (s *State) heading(n Node) {
	level := attrInt(n.Attrs, "level")
	if level < 1 || level > 6 {
		level = 2
	}

	tag := "h" + strconv.Itoa(level)
	text := plainText(n)
	id := s.headingID(text)

	s.headings = append(s.headings, Heading{Level: level, ID: id, Text: text})

	s.WriteString("<" + tag)
	s.attr("id", id)
	s.WriteString(">")
	s.children(n)
	s.WriteString("</" + tag + ">")
}

// text writes a text node with its marks. Links wrap the other marks.
func (s *State) text(n Node) {
	closing := make([]string, 0, len(n.Marks))

	for _, mark := range n.Marks {
		switch mark.Type {
		case "link":
			s.WriteString("<a")
			s.linkAttrs(mark.Attrs)
			s.WriteString(">")

			closing = append(closing, "</a>")
		case "styled":
			s.WriteString("<span")
			s.attr("class", attrString(mark.Attrs, "class"))
			s.WriteString(">")

			closing = append(closing, "</span>")
		case "anchor":
			s.WriteString("<span")
			s.attr("id", attrString(mark.Attrs, "id"))
			s.WriteString(">")

			closing = append(closing, "</span>")
		default:
			tag, ok := simpleMarks[mark.Type]
			if !ok {
				continue
			}

			s.WriteString("<" + tag + ">")

			closing = append(closing, "</"+tag+">")
		}
	}

	s.Text(n.Text)

	for i := len(closing) - 1; i >= 0; i-- {
		s.WriteString(closing[i])
	}
}

func (s *State) linkAttrs(attrs map[string]interface{}) {
	href := attrString(attrs, "href")

	switch attrString(attrs, "linktype") {
	case storyblok.LinkTypeStory:
		if story, ok := attrs["story"].(map[string]interface{}); ok {
			if fullSlug, ok := story["full_slug"].(string); ok {
				href = s.renderer.resolver.URLForSlug(fullSlug, s.opts.Language)
			}
		} else if href != "" && !strings.Contains(href, "://") {
			href = s.renderer.resolver.URLForSlug(href, s.opts.Language)
		}
	case storyblok.LinkTypeEmail:
		if href != "" && !strings.HasPrefix(href, "mailto:") {
			href = "mailto:" + href
		}
	}

	if anchor := attrString(attrs, "anchor"); anchor != "" {
		href += "#" + anchor
	}

	s.attr("href", safeURL(href))

	if target := attrString(attrs, "target"); target != "" {
		s.attr("target", target)

		if target == "_blank" {
			s.attr("rel", "noopener noreferrer")
		}
	}
}

// plainText concatenates the text of n and its descendants.
func plainText(n Node) string {
	if n.Type == "text" {
		return n.Text
	}

	var b strings.Builder
	for _, child := range n.Content {
		b.WriteString(plainText(child))
	}

	return b.String()
}

func attrString(attrs map[string]interface{}, key string) string {
	switch value := attrs[key].(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}

func attrInt(attrs map[string]interface{}, key string) int {
	switch value := attrs[key].(type) {
	case float64:
		return int(value)
	case string:
		n, _ := strconv.Atoi(value)

		return n
	default:
		return 0
	}
}
