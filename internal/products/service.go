package product

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bagaspradana/tokoadmin-backend/internal/media"
	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	dbtypes "github.com/bagaspradana/tokoadmin-backend/pkg/db/types"
	"github.com/bagaspradana/tokoadmin-backend/pkg/enums"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/metrics"
)

// Service exposes product management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Watch(ctx context.Context, term string, pageSize int) (*livequery.Controller[models.Product], error)
}

// ImageUpload carries one incoming gallery image. Input order is
// display order.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// CreateInput holds the validated payload to create a product. Status
// defaults to active when empty.
type CreateInput struct {
	Name           string
	Description    string
	BrandID        *uuid.UUID
	CategoryID     *uuid.UUID
	Status         enums.ProductStatus
	RetailPrice    decimal.Decimal
	ResellerPrice  decimal.Decimal
	WholesalePrice decimal.Decimal
	DiscountPrice  *decimal.Decimal
	Stock          int
	VideoURL       string
	Variants       dbtypes.VariantGroups
	Images         []ImageUpload
}

// UpdateInput holds optional mutation values. RetainedImageURLs names
// the already stored URLs the caller keeps, in the caller's order; the
// final gallery is that list followed by the newly uploaded images.
// Stored URLs absent from the retained set are queued for cleanup once
// the row update commits. A nil RetainedImageURLs keeps the gallery
// as is.
type UpdateInput struct {
	Name              *string
	Description       *string
	BrandID           *uuid.UUID
	CategoryID        *uuid.UUID
	Status            *enums.ProductStatus
	RetailPrice       *decimal.Decimal
	ResellerPrice     *decimal.Decimal
	WholesalePrice    *decimal.Decimal
	DiscountPrice     *decimal.Decimal
	Stock             *int
	VideoURL          *string
	Variants          *dbtypes.VariantGroups
	RetainedImageURLs *[]string
	NewImages         []ImageUpload
}

type imageUploader interface {
	UploadObject(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error)
}

type changeNotifier interface {
	PublishChange(ctx context.Context, collection string) error
}

type service struct {
	repo      *Repository
	uploader  imageUploader
	deletions media.DeletionPublisher
	changes   changeNotifier
	notifier  livequery.Notifier
	metrics   *metrics.LiveQueryMetrics
	logg      *logger.Logger
}

// NewService constructs a product service instance.
func NewService(
	repo *Repository,
	uploader imageUploader,
	deletions media.DeletionPublisher,
	changes changeNotifier,
	notifier livequery.Notifier,
	lqMetrics *metrics.LiveQueryMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("image uploader required")
	}
	if deletions == nil {
		return nil, fmt.Errorf("deletion publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		uploader:  uploader,
		deletions: deletions,
		changes:   changes,
		notifier:  notifier,
		metrics:   lqMetrics,
		logg:      logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusActive
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product status %q", status))
	}
	if err := validatePrices(input.RetailPrice, input.ResellerPrice, input.WholesalePrice, input.DiscountPrice); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if err := validateVariants(input.Variants); err != nil {
		return nil, err
	}
	if err := s.validateRefs(ctx, input.BrandID, input.CategoryID); err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(ctx, input.Images)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if input.DiscountPrice != nil {
		discount = *input.DiscountPrice
	}
	row := &models.Product{
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		BrandID:        input.BrandID,
		CategoryID:     input.CategoryID,
		Status:         status,
		RetailPrice:    input.RetailPrice,
		ResellerPrice:  input.ResellerPrice,
		WholesalePrice: input.WholesalePrice,
		DiscountPrice:  discount,
		Stock:          input.Stock,
		Images:         urls,
		VideoURL:       strings.TrimSpace(input.VideoURL),
		Variants:       input.Variants,
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		// the row never existed, the uploaded objects are already orphaned
		if len(urls) > 0 {
			s.deletions.PublishDeletions(ctx, urls...)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	s.notifyChanged(ctx)
	return NewProductDTO(created, nil), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		row.Name = name
	}
	if input.Description != nil {
		row.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product status %q", *input.Status))
		}
		row.Status = *input.Status
	}
	if input.RetailPrice != nil {
		row.RetailPrice = *input.RetailPrice
	}
	if input.ResellerPrice != nil {
		row.ResellerPrice = *input.ResellerPrice
	}
	if input.WholesalePrice != nil {
		row.WholesalePrice = *input.WholesalePrice
	}
	if input.DiscountPrice != nil {
		row.DiscountPrice = *input.DiscountPrice
	}
	if err := validatePrices(row.RetailPrice, row.ResellerPrice, row.WholesalePrice, &row.DiscountPrice); err != nil {
		return nil, err
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		row.Stock = *input.Stock
	}
	if input.VideoURL != nil {
		row.VideoURL = strings.TrimSpace(*input.VideoURL)
	}
	if input.Variants != nil {
		if err := validateVariants(*input.Variants); err != nil {
			return nil, err
		}
		row.Variants = *input.Variants
	}
	if input.BrandID != nil || input.CategoryID != nil {
		brandID := row.BrandID
		if input.BrandID != nil {
			brandID = input.BrandID
		}
		categoryID := row.CategoryID
		if input.CategoryID != nil {
			categoryID = input.CategoryID
		}
		if err := s.validateRefs(ctx, brandID, categoryID); err != nil {
			return nil, err
		}
		row.BrandID = brandID
		row.CategoryID = categoryID
	}

	oldImages := append([]string{}, row.Images...)
	var orphans []string
	if input.RetainedImageURLs != nil {
		retained := *input.RetainedImageURLs
		owned := make(map[string]bool, len(oldImages))
		for _, url := range oldImages {
			owned[url] = true
		}
		for _, url := range retained {
			if !owned[url] {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("retained image %q does not belong to this product", url))
			}
		}
		kept := make(map[string]bool, len(retained))
		for _, url := range retained {
			kept[url] = true
		}
		for _, url := range oldImages {
			if !kept[url] {
				orphans = append(orphans, url)
			}
		}
		row.Images = append([]string{}, retained...)
	}

	uploaded, err := s.uploadImages(ctx, input.NewImages)
	if err != nil {
		return nil, err
	}
	row.Images = append(row.Images, uploaded...)

	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		if len(uploaded) > 0 {
			s.deletions.PublishDeletions(ctx, uploaded...)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}

	if len(orphans) > 0 {
		s.deletions.PublishDeletions(ctx, orphans...)
	}
	s.notifyChanged(ctx)
	return NewProductDTO(updated, nil), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}

	if len(row.Images) > 0 {
		s.deletions.PublishDeletions(ctx, row.Images...)
	}
	s.notifyChanged(ctx)
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, refs, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product detail")
	}
	return NewProductDTO(row, refs), nil
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	return &ListResult{
		Items:      NewProductDTOs(page.Items),
		HasMore:    page.HasMore,
		NextCursor: page.Last,
	}, nil
}

// Watch starts a live controller over the products collection. The
// caller owns the controller and must Stop it.
func (s *service) Watch(ctx context.Context, term string, pageSize int) (*livequery.Controller[models.Product], error) {
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

// uploadImages pushes every image to storage concurrently and returns
// the public URLs in input order. On any failure the objects that did
// make it are queued for cleanup.
func (s *service) uploadImages(ctx context.Context, images []ImageUpload) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}

	urls := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	for i := range images {
		i := i
		img := images[i]
		g.Go(func() error {
			url, err := s.uploader.UploadObject(gctx, CollectionName, img.Filename, img.ContentType, img.Data)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", img.Filename, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var uploaded []string
		for _, url := range urls {
			if url != "" {
				uploaded = append(uploaded, url)
			}
		}
		if len(uploaded) > 0 {
			s.deletions.PublishDeletions(ctx, uploaded...)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploading product images")
	}
	return urls, nil
}

func (s *service) validateRefs(ctx context.Context, brandID, categoryID *uuid.UUID) error {
	if brandID != nil {
		ok, err := s.repo.ActiveRefExists(ctx, "brands", *brandID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check brand")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "brand does not exist or is inactive")
		}
	}
	if categoryID != nil {
		ok, err := s.repo.ActiveRefExists(ctx, "categories", *categoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check category")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist or is inactive")
		}
	}
	return nil
}

func validatePrices(retail, reseller, wholesale decimal.Decimal, discount *decimal.Decimal) error {
	for label, price := range map[string]decimal.Decimal{
		"retail_price":    retail,
		"reseller_price":  reseller,
		"wholesale_price": wholesale,
	} {
		if price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s cannot be negative", label))
		}
	}
	if discount != nil && discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_price cannot be negative")
	}
	return nil
}

func validateVariants(groups dbtypes.VariantGroups) error {
	for _, group := range groups {
		if strings.TrimSpace(group.Type) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant group type is required")
		}
		for _, value := range group.Values {
			if strings.TrimSpace(value.Value) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant group %q has an empty value", group.Type))
			}
			if value.Stock < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant %q stock cannot be negative", value.Value))
			}
		}
	}
	return nil
}

func (s *service) notifyChanged(ctx context.Context) {
	if s.changes == nil {
		return
	}
	if err := s.changes.PublishChange(ctx, CollectionName); err != nil {
		s.logg.Warn(s.logg.WithCollection(ctx, CollectionName), "publishing change notification failed")
	}
}
