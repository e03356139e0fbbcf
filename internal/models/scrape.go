package models

// ScrapedItem is one topic obtained by the scraper.
// Err is set when the topic was discovered but could not be fetched or extracted.
type ScrapedItem struct {
	URL  string
	Text string
	Page int
	Err  error
}

// OK reports whether the item carries extracted text
func (i ScrapedItem) OK() bool {
	return i.Err == nil && i.Text != ""
}
