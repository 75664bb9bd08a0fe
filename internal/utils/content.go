package utils

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// Any of these opening tags means the content is already markup.
	blockTagPattern  = regexp.MustCompile(`(?i)<(p|h[1-6]|ul|ol|li|blockquote|img|a|div|section)(\s|>|/)`)
	blankLinePattern = regexp.MustCompile(`\n[ \t]*\n`)
	citationPattern  = regexp.MustCompile(`\[(\d+)\]`)
	refIDPattern     = regexp.MustCompile(`^ref-\d+$`)

	contentArtifacts = strings.NewReplacer("\uFFFC", "", "\uFFFD", "", "\x00", "")
)

// NormalizeContent turns a stored article body into markup that is safe to
// render: artifacts are removed, plain text becomes paragraphs, the result is
// sanitized, links open in a new tab without a referrer, and bracketed
// citation markers link to the references list when one exists.
func NormalizeContent(content string) string {
	content = contentArtifacts.Replace(content)
	if strings.TrimSpace(content) == "" {
		return ""
	}

	if IsPlainText(content) {
		content = PlainTextToHTML(content)
	}

	sanitized := policy.Sanitize(content)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return sanitized
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		ensureSafeLink(s)
	})

	body := doc.Find("body")
	if hasReferenceList(doc) && len(body.Nodes) > 0 {
		linkCitations(body.Nodes[0])
	}

	out, err := body.Html()
	if err != nil {
		return sanitized
	}
	return strings.TrimSpace(out)
}

// IsPlainText is a heuristic: content without any block-level or link tag
// is treated as plain text.
func IsPlainText(content string) bool {
	return !blockTagPattern.MatchString(content)
}

// PlainTextToHTML escapes text and wraps blank-line separated paragraphs in
// <p>, turning single newlines into <br>.
func PlainTextToHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	for _, para := range blankLinePattern.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(html.EscapeString(para), "\n")
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>\n")
	}
	return b.String()
}

func ensureSafeLink(s *goquery.Selection) {
	if _, ok := s.Attr("target"); !ok {
		s.SetAttr("target", "_blank")
	}
	rel, _ := s.Attr("rel")
	values := strings.Fields(rel)
	for _, want := range []string{"noopener", "noreferrer"} {
		if !containsFold(values, want) {
			values = append(values, want)
		}
	}
	s.SetAttr("rel", strings.Join(values, " "))
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func hasReferenceList(doc *goquery.Document) bool {
	found := false
	doc.Find(`ol li[id^="ref-"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		found = refIDPattern.MatchString(id)
		return !found
	})
	return found
}

// linkCitations rewrites [n] in text nodes below n, leaving text that is
// already inside a link or inside a reference entry untouched.
func linkCitations(n *xhtml.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == xhtml.TextNode:
			replaceCitations(c)
		case c.Type == xhtml.ElementNode && (c.DataAtom == atom.A || c.DataAtom == atom.Script || c.DataAtom == atom.Style):
		case isReferenceEntry(c):
		default:
			linkCitations(c)
		}
		c = next
	}
}

func isReferenceEntry(n *xhtml.Node) bool {
	if n.Type != xhtml.ElementNode || n.DataAtom != atom.Li {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "id" && refIDPattern.MatchString(attr.Val) {
			return true
		}
	}
	return false
}

func replaceCitations(text *xhtml.Node) {
	matches := citationPattern.FindAllStringSubmatchIndex(text.Data, -1)
	if len(matches) == 0 {
		return
	}

	parent := text.Parent
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			parent.InsertBefore(&xhtml.Node{Type: xhtml.TextNode, Data: text.Data[pos:m[0]]}, text)
		}
		num := text.Data[m[2]:m[3]]

		link := &xhtml.Node{
			Type:     xhtml.ElementNode,
			Data:     "a",
			DataAtom: atom.A,
			Attr:     []xhtml.Attribute{{Key: "href", Val: "#ref-" + num}},
		}
		link.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: "[" + num + "]"})

		sup := &xhtml.Node{
			Type:     xhtml.ElementNode,
			Data:     "sup",
			DataAtom: atom.Sup,
			Attr:     []xhtml.Attribute{{Key: "class", Val: "citation"}},
		}
		sup.AppendChild(link)
		parent.InsertBefore(sup, text)
		pos = m[1]
	}
	if pos < len(text.Data) {
		parent.InsertBefore(&xhtml.Node{Type: xhtml.TextNode, Data: text.Data[pos:]}, text)
	}
	parent.RemoveChild(text)
}
