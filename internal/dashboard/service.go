package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bagaspradana/tokoadmin-backend/internal/orders"
	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/redis"
)

// Short id-ID weekday labels used as revenue bucket keys.
var weekdayLabels = map[time.Weekday]string{
	time.Sunday:    "Min",
	time.Monday:    "Sen",
	time.Tuesday:   "Sel",
	time.Wednesday: "Rab",
	time.Thursday:  "Kam",
	time.Friday:    "Jum",
	time.Saturday:  "Sab",
}

// CountsDTO carries the headline totals.
type CountsDTO struct {
	Products   int64 `json:"products"`
	Brands     int64 `json:"brands"`
	Categories int64 `json:"categories"`
	Orders     int64 `json:"orders"`
}

// RevenueBucket is one day of the trailing revenue series.
type RevenueBucket struct {
	Day   string          `json:"day"`
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// RevenueDTO is the zero-seeded trailing series plus its sum.
type RevenueDTO struct {
	Days  []RevenueBucket `json:"days"`
	Total decimal.Decimal `json:"total"`
}

// SummaryDTO is the full dashboard payload.
type SummaryDTO struct {
	Counts       CountsDTO         `json:"counts"`
	Revenue      RevenueDTO        `json:"revenue"`
	RecentOrders []orders.OrderDTO `json:"recent_orders"`
}

// Options tunes the summary computation.
type Options struct {
	CountCacheTTL time.Duration
	RecentOrders  int
	RevenueDays   int
}

type counter interface {
	Count(ctx context.Context) (int64, error)
}

type orderReader interface {
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]models.Order, error)
}

type countCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Service computes the dashboard aggregates.
type Service struct {
	products   counter
	brands     counter
	categories counter
	orders     orderReader
	cache      countCache
	notifier   livequery.Notifier
	logg       *logger.Logger
	opts       Options
	now        func() time.Time
}

// NewService constructs a dashboard service instance. Cache may be nil
// to disable count caching.
func NewService(
	products counter,
	brands counter,
	categories counter,
	orderRepo orderReader,
	cache countCache,
	notifier livequery.Notifier,
	logg *logger.Logger,
	opts Options,
) (*Service, error) {
	if products == nil || brands == nil || categories == nil || orderRepo == nil {
		return nil, fmt.Errorf("all repositories required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.RecentOrders <= 0 {
		opts.RecentOrders = 5
	}
	if opts.RevenueDays <= 0 {
		opts.RevenueDays = 7
	}
	if opts.CountCacheTTL <= 0 {
		opts.CountCacheTTL = 30 * time.Second
	}
	return &Service{
		products:   products,
		brands:     brands,
		categories: categories,
		orders:     orderRepo,
		cache:      cache,
		notifier:   notifier,
		logg:       logg,
		opts:       opts,
		now:        time.Now,
	}, nil
}

// Summary assembles counts, the trailing revenue series, and the most
// recent orders.
func (s *Service) Summary(ctx context.Context) (*SummaryDTO, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.Revenue(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.RecentOrders(ctx)
	if err != nil {
		return nil, err
	}
	return &SummaryDTO{Counts: *counts, Revenue: *revenue, RecentOrders: recent}, nil
}

// Counts returns the entity totals, served from the Redis cache while
// the TTL holds.
func (s *Service) Counts(ctx context.Context) (*CountsDTO, error) {
	if s.cache != nil {
		key := s.cache.CacheKey("dashboard", "counts")
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached CountsDTO
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		} else if !redis.IsNil(err) {
			s.logg.Warn(ctx, "reading dashboard count cache failed")
		}
	}

	counts := CountsDTO{}
	var err error
	if counts.Products, err = s.products.Count(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count products")
	}
	if counts.Brands, err = s.brands.Count(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count brands")
	}
	if counts.Categories, err = s.categories.Count(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count categories")
	}
	if counts.Orders, err = s.orders.Count(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count orders")
	}

	if s.cache != nil {
		payload, err := json.Marshal(counts)
		if err == nil {
			if err := s.cache.Set(ctx, s.cache.CacheKey("dashboard", "counts"), payload, s.opts.CountCacheTTL); err != nil {
				s.logg.Warn(ctx, "writing dashboard count cache failed")
			}
		}
	}
	return &counts, nil
}

// Revenue buckets paid and completed orders from the trailing window
// by local weekday. Buckets are pre-seeded so the series always spans
// the full window, oldest day first.
func (s *Service) Revenue(ctx context.Context) (*RevenueDTO, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	windowStart := today.AddDate(0, 0, -(s.opts.RevenueDays - 1))

	buckets := make([]RevenueBucket, 0, s.opts.RevenueDays)
	index := make(map[string]int, s.opts.RevenueDays)
	for i := 0; i < s.opts.RevenueDays; i++ {
		day := windowStart.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		buckets = append(buckets, RevenueBucket{
			Day:   weekdayLabels[day.Weekday()],
			Date:  date,
			Total: decimal.Zero,
		})
		index[date] = i
	}

	rows, err := s.orders.ListCreatedSince(ctx, windowStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list revenue window")
	}

	total := decimal.Zero
	for _, row := range rows {
		if !row.Status.CountsAsRevenue() {
			continue
		}
		date := row.CreatedAt.In(now.Location()).Format("2006-01-02")
		i, ok := index[date]
		if !ok {
			continue
		}
		buckets[i].Total = buckets[i].Total.Add(row.Total)
		total = total.Add(row.Total)
	}

	return &RevenueDTO{Days: buckets, Total: total}, nil
}

// RecentOrders returns the newest orders with their items.
func (s *Service) RecentOrders(ctx context.Context) ([]orders.OrderDTO, error) {
	rows, err := s.orders.Recent(ctx, s.opts.RecentOrders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: recent orders")
	}
	return orders.NewOrderDTOs(rows), nil
}

// WatchSummary emits a fresh summary whenever the orders collection
// changes. The channel holds only the latest value; the cancel func
// tears the subscription down.
func (s *Service) WatchSummary(ctx context.Context) (<-chan SummaryDTO, func(), error) {
	if s.notifier == nil {
		return nil, nil, fmt.Errorf("notifier required for watch")
	}

	ticks, cancel, err := s.notifier.Subscribe(ctx, orders.CollectionName)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribing to order changes")
	}

	out := make(chan SummaryDTO, 1)
	go func() {
		defer close(out)
		s.emitSummary(ctx, out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				s.emitSummary(ctx, out)
			}
		}
	}()
	return out, cancel, nil
}

func (s *Service) emitSummary(ctx context.Context, out chan SummaryDTO) {
	summary, err := s.Summary(ctx)
	if err != nil {
		s.logg.Error(ctx, "computing dashboard summary failed", err)
		return
	}
	select {
	case out <- *summary:
	default:
		select {
		case <-out:
		default:
		}
		out <- *summary
	}
}
