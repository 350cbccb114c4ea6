package service

import (
	"context"
	"strings"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HomePage is the aggregate for the storefront landing view: the first
// catalog page plus the recommendation rail, fetched concurrently.
type HomePage struct {
	Products        []domain.Product             `json:"products"`
	Recommendations []domain.RecommendationEntry `json:"recommendations"`
}

// CatalogService serves catalog reads and the recommendation rail. It
// holds no catalog state: every call goes to the commerce API.
type CatalogService struct {
	catalog  port.CatalogFetcher
	recs     port.RecommendationFetcher
	session  *SessionService
	recCount int
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service. recCount is the number
// of recommendation entries requested per fetch.
func NewCatalogService(catalog port.CatalogFetcher, recs port.RecommendationFetcher, session *SessionService, recCount int, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		recs:     recs,
		session:  session,
		recCount: recCount,
		logger:   logger,
	}
}

// List returns one catalog page.
func (s *CatalogService) List(ctx context.Context, page, size int) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.List")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page), attribute.Int("size", size))

	return s.catalog.ListProducts(ctx, page, size)
}

// Get returns one product by id.
func (s *CatalogService) Get(ctx context.Context, productID int64) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID))

	return s.catalog.GetProduct(ctx, productID)
}

// Search returns products matching the query. A blank query returns an
// empty result without a request.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Product{}, nil
	}
	return s.catalog.SearchProducts(ctx, query)
}

// Recommendations returns the ranked rail for the current shopper: the
// personalized list when signed in, the anonymous list otherwise. The two
// paths are exclusive per call.
func (s *CatalogService) Recommendations(ctx context.Context) ([]domain.RecommendationEntry, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.Recommendations")
	defer span.End()

	if p := s.session.Current(ctx); p != nil {
		span.SetAttributes(attribute.String("path", "user"))
		return s.recs.RecommendationsForUser(ctx, p.ID, s.recCount)
	}
	span.SetAttributes(attribute.String("path", "guest"))
	return s.recs.RecommendationsForGuest(ctx, s.recCount)
}

// Home fetches the landing page. The catalog page is required; a failed
// recommendation fetch degrades to an empty rail.
func (s *CatalogService) Home(ctx context.Context, pageSize int) (*HomePage, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.Home")
	defer span.End()

	home := &HomePage{
		Products:        []domain.Product{},
		Recommendations: []domain.RecommendationEntry{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.catalog.ListProducts(gctx, 0, pageSize)
		if err != nil {
			return err
		}
		home.Products = products
		return nil
	})
	g.Go(func() error {
		entries, err := s.Recommendations(gctx)
		if err != nil {
			s.logger.Warn("recommendation fetch failed, serving empty rail", zap.Error(err))
			return nil
		}
		home.Recommendations = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return home, nil
}
