package product

import (
	"context"
	"time"

	"zapas-be/internal/logger"
	"zapas-be/internal/utils"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

type service struct {
	repo  Repository
	cache *expirable.LRU[string, *Product]
}

// NewService caches single-product lookups. A non-positive size or TTL
// disables the cache. Listings always hit the repository.
func NewService(repo Repository, cfg CacheConfig) Service {
	s := &service{repo: repo}
	if cfg.Size > 0 && cfg.TTL > 0 {
		s.cache = expirable.NewLRU[string, *Product](cfg.Size, nil, cfg.TTL)
	}
	return s
}

func (s *service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "List"),
	)

	if opts.Page <= 0 {
		opts.Page = DefaultPage
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}

	start := time.Now()

	products, total, err := s.repo.FindMany(ctx, opts)
	if err != nil {
		log.Error("failed to fetch product list",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, err
	}

	log.Info("get product list success",
		zap.Int("count", len(products)),
		zap.Int("total", total),
		zap.Int("page", opts.Page),
		zap.Int("limit", opts.Limit),
		zap.Duration("duration", time.Since(start)),
	)

	return &ListResult{
		Items:      products,
		Total:      total,
		Page:       opts.Page,
		Limit:      opts.Limit,
		TotalPages: utils.TotalPages(total, opts.Limit),
	}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Product, error) {
	return s.lookup(ctx, "id:"+id, func() (*Product, error) {
		return s.repo.FindByID(ctx, id)
	})
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return s.lookup(ctx, "slug:"+slug, func() (*Product, error) {
		return s.repo.FindBySlug(ctx, slug)
	})
}

func (s *service) lookup(ctx context.Context, key string, load func() (*Product, error)) (*Product, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(key); ok {
			return p, nil
		}
	}

	p, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add("id:"+p.ID, p)
		s.cache.Add("slug:"+p.Slug, p)
	}

	logger.FromCtx(ctx).Debug("product loaded",
		zap.String("layer", "service"),
		zap.String("product_id", p.ID),
	)
	return p, nil
}
