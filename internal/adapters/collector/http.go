// Package collector captures structured page snapshots over HTTP.
package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hmarchand/wcagaudit/internal/core"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxBodySize = 8 << 20 // 8 MiB
	defaultUserAgent   = "wcagaudit/1.0"
)

// HTTPCollector fetches pages with a plain HTTP client and extracts the
// accessibility-relevant structure from the markup.
type HTTPCollector struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// Option configures the collector.
type Option func(*HTTPCollector)

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) Option {
	return func(c *HTTPCollector) { c.client = client }
}

// WithUserAgent overrides the request user agent.
func WithUserAgent(ua string) Option {
	return func(c *HTTPCollector) { c.userAgent = ua }
}

// WithMaxBodySize bounds how much of the response body is read.
func WithMaxBodySize(n int64) Option {
	return func(c *HTTPCollector) { c.maxBodySize = n }
}

// New creates an HTTP collector.
func New(opts ...Option) *HTTPCollector {
	c := &HTTPCollector{
		client:      &http.Client{Timeout: defaultTimeout},
		userAgent:   defaultUserAgent,
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect fetches one page and returns its snapshot. Network and HTTP-status
// failures come back as *core.PageFailure; context cancellation passes
// through untouched.
func (c *HTTPCollector) Collect(ctx context.Context, url string, opts core.CollectOptions) (*core.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.NewPageFailure(url, err, "")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")
	if opts.Lang != "" {
		req.Header.Set("Accept-Language", opts.Lang)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.NewPageFailure(url, err, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.NewPageFailure(url, err, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, core.NewPageFailure(url,
			fmt.Errorf("unexpected status %s", resp.Status), string(body))
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, core.NewPageFailure(url, fmt.Errorf("parsing document: %w", err), "")
	}

	snap := extract(url, doc)
	if opts.WithRawSource {
		snap.RawEvidence = body
	}
	return snap, nil
}

// extract walks the parsed tree and populates the snapshot.
func extract(url string, doc *html.Node) *core.Snapshot {
	snap := &core.Snapshot{URL: url}
	labels := map[string]string{} // label "for" attribute -> text

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			visitElement(snap, labels, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	resolveFieldLabels(snap, labels)
	return snap
}

func visitElement(snap *core.Snapshot, labels map[string]string, n *html.Node) {
	switch n.Data {
	case "html":
		snap.Lang = attr(n, "lang")
	case "title":
		if snap.Title == "" {
			snap.Title = strings.TrimSpace(textContent(n))
		}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		snap.Headings = append(snap.Headings, core.Heading{
			Level: int(n.Data[1] - '0'),
			Text:  strings.TrimSpace(textContent(n)),
		})
	case "a":
		if href := attr(n, "href"); href != "" {
			text := strings.TrimSpace(textContent(n))
			if text == "" {
				text = strings.TrimSpace(attr(n, "aria-label"))
			}
			snap.Links = append(snap.Links, core.Link{Href: href, Text: text})
		}
	case "img":
		alt, hasAlt := lookupAttr(n, "alt")
		snap.Images = append(snap.Images, core.Image{
			Src:    attr(n, "src"),
			Alt:    alt,
			HasAlt: hasAlt,
		})
	case "iframe", "frame":
		snap.Frames = append(snap.Frames, core.Frame{
			Src:   attr(n, "src"),
			Title: attr(n, "title"),
		})
	case "form":
		form := core.Form{
			Action: attr(n, "action"),
			Role:   attr(n, "role"),
		}
		collectFields(&form, n)
		snap.Forms = append(snap.Forms, form)
		if strings.EqualFold(form.Role, "search") ||
			strings.Contains(strings.ToLower(form.Action), "search") {
			snap.HasSearch = true
		}
	case "label":
		if target := attr(n, "for"); target != "" {
			labels[target] = strings.TrimSpace(textContent(n))
		}
	case "header":
		snap.Landmarks = append(snap.Landmarks, "banner")
	case "nav":
		snap.Landmarks = append(snap.Landmarks, "navigation")
	case "main":
		snap.Landmarks = append(snap.Landmarks, "main")
	case "aside":
		snap.Landmarks = append(snap.Landmarks, "complementary")
	case "footer":
		snap.Landmarks = append(snap.Landmarks, "contentinfo")
	}

	if role := attr(n, "role"); role != "" {
		switch strings.ToLower(role) {
		case "banner", "navigation", "main", "complementary", "contentinfo", "search":
			snap.Landmarks = append(snap.Landmarks, strings.ToLower(role))
		}
		if strings.EqualFold(role, "search") {
			snap.HasSearch = true
		}
	}
	if n.Data == "input" && strings.EqualFold(attr(n, "type"), "search") {
		snap.HasSearch = true
	}
}

func collectFields(form *core.Form, formNode *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input", "select", "textarea":
				typ := attr(n, "type")
				if n.Data != "input" {
					typ = n.Data
				}
				if !strings.EqualFold(typ, "hidden") && !strings.EqualFold(typ, "submit") {
					field := core.FormField{
						Type: typ,
						Name: attr(n, "name"),
					}
					if label := attr(n, "aria-label"); label != "" {
						field.Label = label
						field.HasLabel = true
					}
					// Remember the id so a matching label element can claim it.
					if id := attr(n, "id"); id != "" && field.Name == "" {
						field.Name = id
					}
					form.Fields = append(form.Fields, field)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(formNode)
}

// resolveFieldLabels matches label[for] elements to fields by name/id.
func resolveFieldLabels(snap *core.Snapshot, labels map[string]string) {
	for fi := range snap.Forms {
		for i := range snap.Forms[fi].Fields {
			field := &snap.Forms[fi].Fields[i]
			if field.HasLabel {
				continue
			}
			if text, ok := labels[field.Name]; ok && text != "" {
				field.Label = text
				field.HasLabel = true
			}
		}
	}
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

var _ core.Collector = (*HTTPCollector)(nil)
