// -----------------------------------------------------------------------
// Content Extractor - first-post body text from forum topic pages
// -----------------------------------------------------------------------

package crawler

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/net/html"
)

const (
	postSelector           = `[component="post"]`
	taggedContentSelector  = `div.content[component="post/content"]`
	genericContentSelector = `div.content`

	// Quoted replies: inline quotes, quote containers, username-attributed blockquotes
	quoteSelector = `blockquote.inline-quote, div.quote-container, blockquote[data-username]`

	placeholderMaxLength = 50
)

var (
	blankLinesRegex     = regexp.MustCompile(`\n\s*\n`)
	loadingPlaceholders = []string{"loading", "טוען"}
)

// ExtractionStrategy locates the post body element. Select returns nil when
// the strategy does not apply to the document.
type ExtractionStrategy struct {
	Name   string
	Select func(doc *goquery.Document) *goquery.Selection
}

// DefaultStrategies are tried in order; the first match wins
var DefaultStrategies = []ExtractionStrategy{
	{Name: "first_post_tagged_content", Select: firstPostTaggedContent},
	{Name: "first_post_generic_content", Select: firstPostGenericContent},
	{Name: "page_tagged_content", Select: pageTaggedContent},
	{Name: "page_generic_content", Select: pageGenericContent},
}

func firstPostTaggedContent(doc *goquery.Document) *goquery.Selection {
	return firstMatch(doc.Find(postSelector).First().Find(taggedContentSelector))
}

func firstPostGenericContent(doc *goquery.Document) *goquery.Selection {
	return firstMatch(doc.Find(postSelector).First().Find(genericContentSelector))
}

// Page-wide strategies only apply when the page has no post units; otherwise
// the first content block could belong to a reply.
func pageTaggedContent(doc *goquery.Document) *goquery.Selection {
	if hasPosts(doc) {
		return nil
	}
	return firstMatch(doc.Find(taggedContentSelector))
}

func pageGenericContent(doc *goquery.Document) *goquery.Selection {
	if hasPosts(doc) {
		return nil
	}
	return firstMatch(doc.Find(genericContentSelector))
}

func hasPosts(doc *goquery.Document) bool {
	return doc.Find(postSelector).Length() > 0
}

func firstMatch(s *goquery.Selection) *goquery.Selection {
	if s.Length() == 0 {
		return nil
	}
	return s.First()
}

// ContentExtractor isolates the topic-starting post and returns its plain text
type ContentExtractor struct {
	strategies []ExtractionStrategy
	logger     arbor.ILogger
}

// NewContentExtractor creates an extractor using DefaultStrategies
func NewContentExtractor(logger arbor.ILogger) *ContentExtractor {
	return NewContentExtractorWithStrategies(DefaultStrategies, logger)
}

// NewContentExtractorWithStrategies creates an extractor with a custom strategy chain
func NewContentExtractorWithStrategies(strategies []ExtractionStrategy, logger arbor.ILogger) *ContentExtractor {
	return &ContentExtractor{
		strategies: strategies,
		logger:     logger,
	}
}

// Extract returns the normalized first-post text of a topic page.
// Fails with ErrNoContent (or ErrPlaceholderContent) when nothing usable is found.
func (ce *ContentExtractor) Extract(pageHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse HTML: %v", ErrNoContent, err)
	}

	text, _, err := ce.ExtractFromDocument(doc)
	return text, err
}

// ExtractFromDocument runs the strategy chain and returns the text and the
// name of the strategy that matched. The document is modified (quotes removed).
func (ce *ContentExtractor) ExtractFromDocument(doc *goquery.Document) (string, string, error) {
	for _, strategy := range ce.strategies {
		selection := strategy.Select(doc)
		if selection == nil {
			continue
		}

		text := ExtractPostText(selection)
		if text == "" {
			return "", strategy.Name, fmt.Errorf("%w: post body empty after removing quotes", ErrNoContent)
		}
		if IsLoadingPlaceholder(text) {
			return "", strategy.Name, ErrPlaceholderContent
		}

		ce.logger.Debug().
			Str("strategy", strategy.Name).
			Int("chars", utf8.RuneCountInString(text)).
			Msg("Extracted post content")
		return text, strategy.Name, nil
	}

	return "", "", ErrNoContent
}

// ExtractPostText removes quoted replies from the selection and returns its
// stripped text fragments joined by newlines, with blank-line runs collapsed
func ExtractPostText(selection *goquery.Selection) string {
	selection.Find(quoteSelector).Remove()

	text := strings.Join(strippedStrings(selection), "\n")
	text = blankLinesRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// IsLoadingPlaceholder reports whether text looks like a JavaScript loading stub
func IsLoadingPlaceholder(text string) bool {
	if utf8.RuneCountInString(text) >= placeholderMaxLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range loadingPlaceholders {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// strippedStrings returns every non-blank text node in document order, trimmed.
// Script, style and comment content is skipped.
func strippedStrings(selection *goquery.Selection) []string {
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "template" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range selection.Nodes {
		walk(n)
	}
	return parts
}
