package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/bagaspradana/tokoadmin-backend/internal/media"
	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/livequery"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/metrics"
)

// Service exposes catalog entry management for one collection.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*EntryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*EntryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*EntryDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Options(ctx context.Context) ([]EntryDTO, error)
	Watch(ctx context.Context, term string, pageSize int) (*livequery.Controller[models.CatalogEntry], error)
}

// ImageUpload carries one incoming image file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// CreateInput holds the validated payload to create an entry. IsActive
// defaults to true when nil.
type CreateInput struct {
	Name        string
	Description string
	LinkURL     string
	IsActive    *bool
	Image       *ImageUpload
}

// UpdateInput holds optional mutation values. A new image replaces the
// stored one; the old object is queued for cleanup.
type UpdateInput struct {
	Name        *string
	Description *string
	LinkURL     *string
	IsActive    *bool
	Image       *ImageUpload
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

// NewService constructs a catalog service instance.
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
		return nil, fmt.Errorf("catalog repository required")
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

func (s *service) Create(ctx context.Context, input CreateInput) (*EntryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	col := s.repo.Collection()
	if col.RequiresImage && input.Image == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	if !col.HasImage && input.Image != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s do not carry images", col.Name))
	}

	url := ""
	if input.Image != nil {
		uploaded, err := s.uploader.UploadObject(ctx, col.Name, input.Image.Filename, input.Image.ContentType, input.Image.Data)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploading image")
		}
		url = uploaded
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	entry, err := s.repo.Create(ctx, &models.CatalogEntry{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		LinkURL:     strings.TrimSpace(input.LinkURL),
		ImageURL:    url,
		IsActive:    active,
	})
	if err != nil {
		// the row never existed, the uploaded object is already orphaned
		if url != "" {
			s.deletions.PublishDeletions(ctx, url)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert catalog entry")
	}

	s.notifyChanged(ctx)
	return NewEntryDTO(entry), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*EntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load catalog entry")
	}

	oldURL := ""
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		entry.Name = name
	}
	if input.Description != nil {
		entry.Description = strings.TrimSpace(*input.Description)
	}
	if input.LinkURL != nil {
		entry.LinkURL = strings.TrimSpace(*input.LinkURL)
	}
	if input.IsActive != nil {
		entry.IsActive = *input.IsActive
	}
	if input.Image != nil {
		if !s.repo.Collection().HasImage {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s do not carry images", s.repo.Collection().Name))
		}
		url, err := s.uploader.UploadObject(ctx, s.repo.Collection().Name, input.Image.Filename, input.Image.ContentType, input.Image.Data)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploading image")
		}
		oldURL = entry.ImageURL
		entry.ImageURL = url
	}

	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		if entry.ImageURL != "" && oldURL != "" {
			s.deletions.PublishDeletions(ctx, entry.ImageURL)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update catalog entry")
	}

	if oldURL != "" {
		s.deletions.PublishDeletions(ctx, oldURL)
	}
	s.notifyChanged(ctx)
	return NewEntryDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load catalog entry")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete catalog entry")
	}

	if entry.ImageURL != "" {
		s.deletions.PublishDeletions(ctx, entry.ImageURL)
	}
	s.notifyChanged(ctx)
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*EntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load catalog entry")
	}
	return NewEntryDTO(entry), nil
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list catalog entries")
	}

	return &ListResult{
		Items:      NewEntryDTOs(page.Items),
		HasMore:    page.HasMore,
		NextCursor: page.Last,
	}, nil
}

// Options returns the active entries as selectable options for the
// product form, ordered by name.
func (s *service) Options(ctx context.Context) ([]EntryDTO, error) {
	entries, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list active entries")
	}
	return NewEntryDTOs(entries), nil
}

// Watch starts a live controller over the collection. The caller owns
// the controller and must Stop it.
func (s *service) Watch(ctx context.Context, term string, pageSize int) (*livequery.Controller[models.CatalogEntry], error) {
	source, err := s.repo.Source()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building page source")
	}
	ctrl, err := livequery.NewController(source, s.notifier, livequery.Options{
		Collection: s.repo.Collection().Name,
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

func (s *service) notifyChanged(ctx context.Context) {
	if s.changes == nil {
		return
	}
	if err := s.changes.PublishChange(ctx, s.repo.Collection().Name); err != nil {
		s.logg.Warn(s.logg.WithCollection(ctx, s.repo.Collection().Name), "publishing change notification failed")
	}
}
