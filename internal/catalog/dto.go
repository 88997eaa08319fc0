package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/bagaspradana/tokoadmin-backend/pkg/db/models"
)

// EntryDTO is the catalog entry payload returned to clients.
type EntryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LinkURL     string    `json:"link_url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEntryDTO maps the persisted row to its response shape.
func NewEntryDTO(entry *models.CatalogEntry) *EntryDTO {
	return &EntryDTO{
		ID:          entry.ID,
		Name:        entry.Name,
		Description: entry.Description,
		LinkURL:     entry.LinkURL,
		ImageURL:    entry.ImageURL,
		IsActive:    entry.IsActive,
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
	}
}

// NewEntryDTOs maps a page of rows.
func NewEntryDTOs(entries []models.CatalogEntry) []EntryDTO {
	dtos := make([]EntryDTO, 0, len(entries))
	for i := range entries {
		dtos = append(dtos, *NewEntryDTO(&entries[i]))
	}
	return dtos
}
