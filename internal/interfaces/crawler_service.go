package interfaces

import (
	"context"

	"github.com/ternarybob/peulot/internal/models"
)

// TopicSource yields scraped topics in discovery order.
// visit is called for every discovered topic, including ones that failed
// (ScrapedItem.Err set). Returning an error from visit stops the walk.
type TopicSource interface {
	Walk(ctx context.Context, visit func(item models.ScrapedItem) error) error
}

// MetadataEnricher extracts structured metadata from raw activity text
type MetadataEnricher interface {
	Enrich(ctx context.Context, rawText, sourceHint string) (*models.Metadata, error)
}
