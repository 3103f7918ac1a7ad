package lyrics

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Strategy is one structural guess at where a page keeps its lyrics. It must
// return "" when the markup it looks for is absent.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document) string
}

var (
	containerClassSelector = cascadia.MustCompile(`div.Lyrics__Container`)
	dataAttributeSelector  = cascadia.MustCompile(`div[data-lyrics-container="true"]`)
	rootPrefixSelector     = cascadia.MustCompile(`div[class^="Lyrics__Root"]`)
	excludedSelector       = cascadia.MustCompile(`[data-exclude-from-selection="true"]`)
)

// Strategies is the fallback chain in priority order. Genius has changed its
// markup several times; none of these is authoritative.
var Strategies = []Strategy{
	{Name: "container-class", Extract: ContainerClass},
	{Name: "data-attribute", Extract: DataAttribute},
	{Name: "root-prefix", Extract: RootPrefix},
}

// ContainerClass reads the first div carrying the Lyrics__Container class.
func ContainerClass(doc *goquery.Document) string {
	sel := doc.FindMatcher(containerClassSelector).First()
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(nodeText(sel.Get(0)))
}

// DataAttribute joins every data-lyrics-container div in document order; newer
// pages split a song across one container per section.
func DataAttribute(doc *goquery.Document) string {
	return joinSelection(doc.FindMatcher(dataAttributeSelector))
}

// RootPrefix joins every div whose class starts with Lyrics__Root.
func RootPrefix(doc *goquery.Document) string {
	return joinSelection(doc.FindMatcher(rootPrefixSelector))
}

// Apply runs the chain and returns the first non-empty text with the name of
// the strategy that produced it.
func Apply(doc *goquery.Document, strategies []Strategy) (string, string) {
	for _, s := range strategies {
		if text := strings.TrimSpace(s.Extract(doc)); text != "" {
			return text, s.Name
		}
	}
	return "", ""
}

func joinSelection(sel *goquery.Selection) string {
	parts := make([]string, 0, sel.Length())
	for _, n := range sel.Nodes {
		if text := strings.TrimSpace(nodeText(n)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// nodeText renders the text under n, turning <br> and block boundaries into
// line breaks. Annotation chrome marked data-exclude-from-selection is skipped.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if excludedSelector.Match(n) {
				return
			}
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			case atom.Br:
				sb.WriteByte('\n')
				return
			}
		}

		block := isBlock(n)
		if block {
			newline(&sb)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			newline(&sb)
		}
	}
	walk(n)
	return sb.String()
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.P, atom.Li, atom.Ul, atom.Ol, atom.H1, atom.H2, atom.H3, atom.H4, atom.Section, atom.Blockquote:
		return true
	}
	return false
}

// newline writes a break unless the text already ends on one.
func newline(sb *strings.Builder) {
	s := sb.String()
	if s == "" || strings.HasSuffix(s, "\n") {
		return
	}
	sb.WriteByte('\n')
}
