package client

import (
	"context"
	"fmt"

	"github.com/boddenberg/storefront-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// RecommendationsForUser fetches the personalized ranked list. The ranking
// is opaque: entries are returned in the order received.
func (c *Client) RecommendationsForUser(ctx context.Context, userID int64, count int) ([]domain.RecommendationEntry, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.RecommendationsForUser")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.Int("count", count))

	var entries []domain.RecommendationEntry
	path := fmt.Sprintf("/recommendations/user/%d?count=%d", userID, count)
	if err := c.getJSON(ctx, "recommendations", path, &entries, nil); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.RecommendationEntry{}
	}
	return entries, nil
}

// RecommendationsForGuest fetches the anonymous ranked list.
func (c *Client) RecommendationsForGuest(ctx context.Context, count int) ([]domain.RecommendationEntry, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.RecommendationsForGuest")
	defer span.End()
	span.SetAttributes(attribute.Int("count", count))

	var entries []domain.RecommendationEntry
	path := fmt.Sprintf("/recommendations/guest?count=%d", count)
	if err := c.getJSON(ctx, "recommendations", path, &entries, nil); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.RecommendationEntry{}
	}
	return entries, nil
}
