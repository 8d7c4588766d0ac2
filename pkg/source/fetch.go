package source

import (
	"context"
	"fmt"

	"igsource/pkg/errors"
	"igsource/pkg/instagram"
	"igsource/pkg/logger"
)

// IntegrationName prefixes every integration error message
const IntegrationName = "Instagram"

// MediaClient lists the authenticated user's media
type MediaClient interface {
	FetchMedia(ctx context.Context, token string, limit int) (*instagram.MediaResponse, error)
}

// Fetcher performs the single media listing request of a cycle
type Fetcher struct {
	client MediaClient
	logger logger.Logger
}

// NewFetcher creates a fetcher
func NewFetcher(client MediaClient, log logger.Logger) *Fetcher {
	return &Fetcher{client: client, logger: log}
}

// Fetch returns at most limit media records. Every failure is an
// *errors.IntegrationError from the fetch stage.
func (f *Fetcher) Fetch(ctx context.Context, token string, limit int) ([]instagram.MediaRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("fetch: limit must be at least 1, got %d", limit)
	}

	resp, err := f.client.FetchMedia(ctx, token, limit)
	if err != nil {
		return nil, errors.NewIntegrationError(IntegrationName, errors.StageFetch, err)
	}
	if resp == nil {
		return nil, nil
	}

	records := resp.Data
	if len(records) > limit {
		f.logger.WarnWithFields("API returned more records than requested", map[string]interface{}{
			"limit":    limit,
			"returned": len(records),
		})
		records = records[:limit]
	}

	f.logger.InfoWithFields("Fetched media", map[string]interface{}{
		"count": len(records),
		"limit": limit,
	})

	return records, nil
}
