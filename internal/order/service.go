package order

import (
	"context"
	"errors"
	"time"

	"zapas-be/internal/logger"
	"zapas-be/internal/metrics"
	"zapas-be/internal/product"
	"zapas-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	// CreateOrder reports replayed=true when an earlier order made with the
	// same idempotency key is returned instead of a new one.
	CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (o *Order, replayed bool, err error)
	GetOrderByID(ctx context.Context, userID, orderID string) (*Order, error)
	GetUserOrders(ctx context.Context, userID string, opts ListOptions) (*ListResult, error)
}

type Options struct {
	IdempotencyWindow time.Duration
	Metrics           *metrics.Registry
	Now               func() time.Time
}

type service struct {
	repo    Repository
	window  time.Duration
	metrics *metrics.Registry
	now     func() time.Time
}

func NewService(repo Repository, opts Options) Service {
	s := &service{
		repo:    repo,
		window:  opts.IdempotencyWindow,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if s.window <= 0 {
		s.window = 24 * time.Hour
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*Order, bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Int("lines", len(in.Items)),
	)

	timer := metrics.StartTimer()

	if err := CheckQuantities(in.Items); err != nil {
		s.metrics.OrdersRejected.Inc()
		log.Info("order rejected, quantity out of range")
		return nil, false, err
	}

	if in.IdempotencyKey != "" {
		if o, replayed, err := s.replay(ctx, userID, in.IdempotencyKey); err != nil || replayed {
			return o, replayed, err
		}
	}

	build := func(found []product.Summary) (*Order, error) {
		total, lines, err := Price(in.Items, found)
		if err != nil {
			return nil, err
		}
		return &Order{
			UserID:          userID,
			Status:          StatusPending,
			Total:           total,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			IdempotencyKey:  utils.NilIfEmpty(in.IdempotencyKey),
			Items:           lines,
		}, nil
	}

	o, err := s.repo.CreateOrder(ctx, DistinctProductIDs(in.Items), build)
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		log.Info("lost idempotency race, replaying winner")
		o, replayed, rerr := s.replay(ctx, userID, in.IdempotencyKey)
		if rerr != nil {
			return nil, false, rerr
		}
		if !replayed {
			return nil, false, err
		}
		return o, true, nil
	}

	var missing *MissingProductsError
	var inactive *InactiveProductsError
	switch {
	case errors.As(err, &missing):
		s.metrics.OrdersRejected.Inc()
		log.Info("order rejected, missing products", zap.Strings("product_ids", missing.IDs))
		return nil, false, err
	case errors.As(err, &inactive):
		s.metrics.OrdersRejected.Inc()
		log.Info("order rejected, inactive products", zap.Strings("names", inactive.Names))
		return nil, false, err
	case errors.Is(err, ErrTotalOutOfRange):
		s.metrics.OrdersRejected.Inc()
		log.Info("order rejected, total out of range")
		return nil, false, err
	case err != nil:
		log.Error("failed to create order", zap.Error(err), zap.Duration("duration", timer.Duration()))
		return nil, false, err
	}

	s.metrics.OrdersCreated.Inc()
	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Duration("duration", timer.Duration()),
	)

	return o, false, nil
}

// replay returns the order already created with key, if any. A key older
// than the window is rejected rather than replayed.
func (s *service) replay(ctx context.Context, userID, key string) (*Order, bool, error) {
	existing, err := s.repo.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if s.now().Sub(existing.CreatedAt) > s.window {
		return nil, false, ErrIdempotencyKeyReused
	}

	s.metrics.IdempotentReplays.Inc()
	logger.FromCtx(ctx).Info("idempotent replay",
		zap.String("layer", "service"),
		zap.String("order_id", existing.ID),
	)
	return existing, true, nil
}

func (s *service) GetOrderByID(ctx context.Context, userID, orderID string) (*Order, error) {
	return s.repo.FindByIDForUser(ctx, orderID, userID)
}

func (s *service) GetUserOrders(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	if opts.Page <= 0 {
		opts.Page = DefaultPage
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}

	orders, total, err := s.repo.ListForUser(ctx, userID, opts)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders",
			zap.String("layer", "service"),
			zap.String("method", "GetUserOrders"),
			zap.Error(err),
		)
		return nil, err
	}

	return &ListResult{
		Orders:     orders,
		Total:      total,
		Page:       opts.Page,
		Limit:      opts.Limit,
		TotalPages: utils.TotalPages(total, opts.Limit),
	}, nil
}
