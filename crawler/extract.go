package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/poiesic/archivist/core"
	"golang.org/x/net/html"
)

// link is one article anchor found on an index page.
type link struct {
	url   string
	title string
}

// indexPage holds what the crawler needs from one archive index page.
type indexPage struct {
	links []link
	next  string
}

func fetchError(url string, err error) error {
	return fmt.Errorf("%w: %s: %v", core.ErrFetch, url, err)
}

func parseHTML(pageURL string, body []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", core.ErrExtraction, pageURL, err)
	}
	return doc, nil
}

// parseIndex collects article links in document order and the next-page URL.
// Anchors without an href are ignored. Relative links resolve against pageURL.
func parseIndex(sel *compiledSelectors, pageURL string, doc *html.Node) indexPage {
	var page indexPage

	for _, a := range sel.listing.MatchAll(doc) {
		href, ok := attr(a, "href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		page.links = append(page.links, link{
			url:   resolve(pageURL, href),
			title: collapseWhitespace(textContent(a)),
		})
	}

	if next := sel.next.MatchFirst(doc); next != nil {
		if href, ok := attr(next, "href"); ok && strings.TrimSpace(href) != "" {
			page.next = resolve(pageURL, href)
		}
	}

	return page
}

// extractDate returns the publication date or core.ErrExtraction when the
// date element or its attribute is missing.
func extractDate(sel *compiledSelectors, doc *html.Node) (string, error) {
	n := sel.date.MatchFirst(doc)
	if n == nil {
		return "", fmt.Errorf("%w: date element not found", core.ErrExtraction)
	}

	if sel.dateAttr == "" {
		return collapseWhitespace(textContent(n)), nil
	}

	value, ok := attr(n, sel.dateAttr)
	if !ok {
		return "", fmt.Errorf("%w: date element has no %s attribute", core.ErrExtraction, sel.dateAttr)
	}
	return strings.TrimSpace(value), nil
}

// extractContent returns the text of every content region match joined in
// document order, with whitespace runs collapsed to single spaces.
func extractContent(sel *compiledSelectors, doc *html.Node) (string, error) {
	nodes := sel.content.MatchAll(doc)
	if len(nodes) == 0 {
		return "", fmt.Errorf("%w: content region not found", core.ErrExtraction)
	}

	var buf strings.Builder
	for _, n := range nodes {
		writeText(&buf, n)
		buf.WriteByte(' ')
	}
	return collapseWhitespace(buf.String()), nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	writeText(&buf, n)
	return buf.String()
}

func writeText(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br", "p", "div", "li":
			defer buf.WriteByte(' ')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(buf, c)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func resolve(base, href string) string {
	href = strings.TrimSpace(href)
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	resolved := baseURL.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}
