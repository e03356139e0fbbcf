// -----------------------------------------------------------------------
// Scraper - paginated forum walk yielding (url, text) pairs
// -----------------------------------------------------------------------

package crawler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/models"
)

// ScraperOptions controls pagination and politeness
type ScraperOptions struct {
	IndexURL    string
	PagePattern string // {index} and {page} are substituted
	MaxPages    int
	PageDelay   time.Duration // between index page fetches
	TopicDelay  time.Duration // between topic fetches
	TopicJitter time.Duration // random extra delay between topic fetches
}

// NewScraperOptions builds options from configuration
func NewScraperOptions(config *common.Config) ScraperOptions {
	return ScraperOptions{
		IndexURL:    config.Forum.IndexURL,
		PagePattern: config.Forum.PagePattern,
		MaxPages:    config.Forum.MaxPages,
		PageDelay:   common.ParseDuration(config.Forum.PageDelay, 500*time.Millisecond),
		TopicDelay:  common.ParseDuration(config.Crawler.RequestDelay, time.Second),
		TopicJitter: common.ParseDuration(config.Crawler.RandomDelay, 500*time.Millisecond),
	}
}

// Scraper walks forum index pages and extracts the first post of every topic.
// Pagination is sequential: page N's topics are visited before page N+1 is fetched.
type Scraper struct {
	fetcher      PageFetcher
	links        *LinkExtractor
	content      *ContentExtractor
	pagePacer    *Pacer
	topicPacer   *Pacer
	options      ScraperOptions
	logger       arbor.ILogger
}

// NewScraper creates a scraper
func NewScraper(fetcher PageFetcher, options ScraperOptions, logger arbor.ILogger) *Scraper {
	if options.MaxPages <= 0 {
		options.MaxPages = 1
	}
	if options.PagePattern == "" {
		options.PagePattern = "{index}/page/{page}"
	}

	return &Scraper{
		fetcher:      fetcher,
		links:        NewLinkExtractor(logger),
		content:      NewContentExtractor(logger),
		pagePacer:    NewPacer(options.PageDelay, 0),
		topicPacer:   NewPacer(options.TopicDelay, options.TopicJitter),
		options:      options,
		logger:       logger,
	}
}

// PageURL returns the index URL for a 1-based page number
func (s *Scraper) PageURL(page int) string {
	index := strings.TrimRight(s.options.IndexURL, "/")
	if page <= 1 {
		return s.options.IndexURL
	}
	return strings.NewReplacer(
		"{index}", index,
		"{page}", strconv.Itoa(page),
	).Replace(s.options.PagePattern)
}

// Walk visits every discovered topic in order. Topics that fail to fetch or
// extract are still visited with Err set; they never stop the walk. Pagination
// stops at MaxPages or at the first page without new topic links.
func (s *Scraper) Walk(ctx context.Context, visit func(item models.ScrapedItem) error) error {
	seen := make(map[string]bool)

	for page := 1; page <= s.options.MaxPages; page++ {
		pageURL := s.PageURL(page)

		if err := s.pagePacer.Wait(ctx, pageURL); err != nil {
			return err
		}

		links, err := s.indexLinks(ctx, pageURL)
		s.pagePacer.Done(pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn().Err(err).Int("page", page).Str("url", pageURL).Msg("Index page failed, stopping pagination")
			return nil
		}

		var fresh []string
		for _, link := range links {
			if !seen[link] {
				seen[link] = true
				fresh = append(fresh, link)
			}
		}

		if len(fresh) == 0 {
			s.logger.Info().Int("page", page).Str("url", pageURL).Msg("No new topic links, stopping pagination")
			return nil
		}

		s.logger.Info().
			Int("page", page).
			Int("topics", len(fresh)).
			Str("url", pageURL).
			Msg("Scraping index page")

		for _, link := range fresh {
			if err := s.topicPacer.Wait(ctx, link); err != nil {
				return err
			}

			item := s.scrapeTopic(ctx, link, page)
			s.topicPacer.Done(link)
			if err := visit(item); err != nil {
				return err
			}
		}
	}

	return nil
}

// Scrape runs a full walk and returns the successfully extracted topics
func (s *Scraper) Scrape(ctx context.Context) ([]models.ScrapedItem, error) {
	var items []models.ScrapedItem
	err := s.Walk(ctx, func(item models.ScrapedItem) error {
		if item.OK() {
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

func (s *Scraper) indexLinks(ctx context.Context, pageURL string) ([]string, error) {
	result, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return s.links.ExtractTopicLinks(result.HTML, result.URL)
}

func (s *Scraper) scrapeTopic(ctx context.Context, topicURL string, page int) models.ScrapedItem {
	item := models.ScrapedItem{URL: topicURL, Page: page}

	result, err := s.fetcher.Fetch(ctx, topicURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", topicURL).Msg("Topic fetch failed, skipping")
		item.Err = err
		return item
	}

	text, err := s.content.Extract(result.HTML)
	if err != nil {
		if errors.Is(err, ErrPlaceholderContent) {
			s.logger.Warn().Str("url", topicURL).Msg("Topic shows a loading placeholder - likely JavaScript-rendered, skipping")
		} else {
			s.logger.Warn().Err(err).Str("url", topicURL).Msg("No post content found, skipping")
		}
		item.Err = fmt.Errorf("extract %s: %w", topicURL, err)
		return item
	}

	item.Text = text
	return item
}
