// -----------------------------------------------------------------------
// Link Extractor - topic link discovery on forum index pages
// -----------------------------------------------------------------------

package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

const topicLinkSelector = `a[href*="/topic/"]`

// Anchors whose href contains any of these point at pagination or UI chrome
var excludedLinkMarkers = []string{"unread", "last", "teaser", "?page="}

// LinkExtractor handles topic link discovery from forum index pages
type LinkExtractor struct {
	logger arbor.ILogger
}

// NewLinkExtractor creates a new link extractor
func NewLinkExtractor(logger arbor.ILogger) *LinkExtractor {
	return &LinkExtractor{
		logger: logger,
	}
}

// ExtractTopicLinks returns the unique absolute topic URLs linked from an index page,
// in first-discovery order.
func (le *LinkExtractor) ExtractTopicLinks(html string, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML for link extraction: %w", err)
	}

	return le.ExtractTopicLinksFromDocument(doc, pageURL), nil
}

// ExtractTopicLinksFromDocument extracts topic links from a parsed document
func (le *LinkExtractor) ExtractTopicLinksFromDocument(doc *goquery.Document, pageURL string) []string {
	origin := originOf(pageURL)
	if origin == "" {
		le.logger.Warn().Str("page_url", pageURL).Msg("Cannot determine site origin, topic links stay relative")
	}

	links := []string{}
	linkSet := make(map[string]bool)

	anchors := doc.Find(topicLinkSelector)
	if anchors.Length() == 0 {
		le.logger.Warn().
			Str("page_url", pageURL).
			Msg("No topic links found - page is likely rendered by JavaScript")
		return links
	}

	excluded := 0
	anchors.Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")

		if isExcludedTopicHref(href) || inPaginationContainer(s) || strings.TrimSpace(s.Text()) == "" {
			excluded++
			return
		}

		link := resolveTopicLink(origin, href)
		if link == "" || linkSet[link] {
			return
		}
		linkSet[link] = true
		links = append(links, link)
	})

	le.logger.Debug().
		Str("page_url", pageURL).
		Int("anchors", anchors.Length()).
		Int("excluded", excluded).
		Int("links", len(links)).
		Msg("Extracted topic links")

	return links
}

func isExcludedTopicHref(href string) bool {
	for _, marker := range excludedLinkMarkers {
		if strings.Contains(href, marker) {
			return true
		}
	}
	return false
}

// inPaginationContainer reports whether an anchor sits inside a <small> or <span>
// whose class mentions pagination
func inPaginationContainer(s *goquery.Selection) bool {
	return s.Parents().FilterFunction(func(i int, p *goquery.Selection) bool {
		tag := goquery.NodeName(p)
		if tag != "small" && tag != "span" {
			return false
		}
		class, _ := p.Attr("class")
		return strings.Contains(strings.ToLower(class), "pag")
	}).Length() > 0
}

// normalizeTopicPath strips a leading "./" or ".", the query and the fragment,
// and ensures a leading slash for relative paths
func normalizeTopicPath(href string) string {
	// "./topic/1" and ".topic/1" both lose the dot
	href = strings.TrimPrefix(strings.TrimSpace(href), ".")

	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}

	if href == "" || isAbsoluteURL(href) {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return href
}

// resolveTopicLink resolves a normalized href against the site origin
func resolveTopicLink(origin, href string) string {
	path := normalizeTopicPath(href)
	if path == "" {
		return ""
	}
	if isAbsoluteURL(path) {
		return path
	}
	return origin + path
}

func isAbsoluteURL(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// originOf returns scheme://host for a URL, or "" if it has no host
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}
