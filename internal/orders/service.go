package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	"github.com/bagaspradana/tokoadmin-backend/pkg/enums"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/metrics"
)

// Service exposes order management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*OrderDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Watch(ctx context.Context, term string, pageSize int) (*livequery.Controller[models.Order], error)
}

// ItemInput is one requested order line. The extended price is always
// recomputed server-side.
type ItemInput struct {
	ProductID *uuid.UUID
	Name      string
	Variant   string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateInput holds the validated payload to create an order. Status
// defaults to pending when empty; client-supplied totals are ignored.
type CreateInput struct {
	CustomerName  string
	CustomerPhone string
	Address       string
	Branch        enums.OrderBranch
	Status        enums.OrderStatus
	Discount      decimal.Decimal
	Items         []ItemInput
}

// UpdateInput holds optional mutation values. A non-nil Items replaces
// every line; totals are recomputed either way.
type UpdateInput struct {
	CustomerName  *string
	CustomerPhone *string
	Address       *string
	Branch        *enums.OrderBranch
	Status        *enums.OrderStatus
	Discount      *decimal.Decimal
	Items         *[]ItemInput
}

type changeNotifier interface {
	PublishChange(ctx context.Context, collection string) error
}

type service struct {
	repo     *Repository
	changes  changeNotifier
	notifier livequery.Notifier
	metrics  *metrics.LiveQueryMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs an order service instance.
func NewService(
	repo *Repository,
	changes changeNotifier,
	notifier livequery.Notifier,
	lqMetrics *metrics.LiveQueryMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		changes:  changes,
		notifier: notifier,
		metrics:  lqMetrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*OrderDTO, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_name is required")
	}
	if !input.Branch.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order branch %q", input.Branch))
	}
	status := input.Status
	if status == "" {
		status = enums.OrderStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	if input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:   s.newOrderNumber(),
		CustomerName:  name,
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		Address:       strings.TrimSpace(input.Address),
		Branch:        input.Branch,
		Status:        status,
		Discount:      input.Discount,
		Items:         items,
	}
	order.ComputeTotals()

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
	}

	s.notifyChanged(ctx)
	return NewOrderDTO(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}

	if input.CustomerName != nil {
		name := strings.TrimSpace(*input.CustomerName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_name cannot be empty")
		}
		order.CustomerName = name
	}
	if input.CustomerPhone != nil {
		order.CustomerPhone = strings.TrimSpace(*input.CustomerPhone)
	}
	if input.Address != nil {
		order.Address = strings.TrimSpace(*input.Address)
	}
	if input.Branch != nil {
		if !input.Branch.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order branch %q", *input.Branch))
		}
		order.Branch = *input.Branch
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
		}
		order.Status = *input.Status
	}
	if input.Discount != nil {
		if input.Discount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
		}
		order.Discount = *input.Discount
	}
	if input.Items != nil {
		items, err := buildItems(*input.Items)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	order.ComputeTotals()

	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order")
	}

	s.notifyChanged(ctx)
	return NewOrderDTO(updated), nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}

	s.notifyChanged(ctx)
	return NewOrderDTO(order), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete order")
	}
	s.notifyChanged(ctx)
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return NewOrderDTO(order), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Limit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit must be positive")
	}

	source, err := s.repo.Source()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building page source")
	}
	page, err := source.FetchPage(ctx, livequery.Query{
		Term:       strings.TrimSpace(input.Term),
		Limit:      input.Limit,
		StartAfter: input.StartAfter,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	return &ListResult{
		Items:      NewOrderDTOs(page.Items),
		HasMore:    page.HasMore,
		NextCursor: page.Last,
	}, nil
}

// Watch starts a live controller over the orders collection. The
// caller owns the controller and must Stop it.
func (s *service) Watch(ctx context.Context, term string, pageSize int) (*livequery.Controller[models.Order], error) {
	source, err := s.repo.Source()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building page source")
	}
	ctrl, err := livequery.NewController(source, s.notifier, livequery.Options{
		Collection: CollectionName,
		PageSize:   pageSize,
		Term:       strings.TrimSpace(term),
		Logger:     s.logg,
		Metrics:    s.metrics,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building controller")
	}
	if err := ctrl.Start(ctx); err != nil {
		ctrl.Stop()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "starting watcher")
	}
	return ctrl, nil
}

func buildItems(inputs []ItemInput) ([]models.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	items := make([]models.OrderItem, 0, len(inputs))
	for i, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: name is required", i))
		}
		if input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if input.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit_price cannot be negative", i))
		}
		items = append(items, models.OrderItem{
			ProductID: input.ProductID,
			Name:      name,
			Variant:   strings.TrimSpace(input.Variant),
			Quantity:  input.Quantity,
			UnitPrice: input.UnitPrice,
		})
	}
	return items, nil
}

func (s *service) newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", s.now().Format("20060102"), suffix)
}

func (s *service) notifyChanged(ctx context.Context) {
	if s.changes == nil {
		return
	}
	if err := s.changes.PublishChange(ctx, CollectionName); err != nil {
		s.logg.Warn(s.logg.WithCollection(ctx, CollectionName), "publishing change notification failed")
	}
}
