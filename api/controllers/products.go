package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bagaspradana/tokoadmin-backend/api/responses"
	"github.com/bagaspradana/tokoadmin-backend/api/validators"
	product "github.com/bagaspradana/tokoadmin-backend/internal/products"
	dbtypes "github.com/bagaspradana/tokoadmin-backend/pkg/db/types"
	"github.com/bagaspradana/tokoadmin-backend/pkg/enums"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
)

// ProductCreate handles the multipart product form. Gallery images
// arrive under repeated "images" fields; their order is display order.
func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		if err := parseMultipart(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := decodeProductCreateForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uploads, closeFiles, err := formFiles(r, "images")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeFiles()
		input.Images = toProductUploads(uploads)

		created, err := svc.Create(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ProductUpdate applies a partial multipart update. The
// retained_images field, when present, is the JSON list of stored
// URLs to keep; omitting it keeps the gallery untouched.
func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := parseMultipart(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := decodeProductUpdateForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uploads, closeFiles, err := formFiles(r, "images")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeFiles()
		input.NewImages = toProductUploads(uploads)

		updated, err := svc.Update(r.Context(), id, *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, found)
	}
}

func ProductList(svc product.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultPageSize, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := validators.ParseCursor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), product.ListInput{
			Term:       r.URL.Query().Get("term"),
			Limit:      limit,
			StartAfter: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func decodeProductCreateForm(r *http.Request) (*product.CreateInput, error) {
	input := &product.CreateInput{
		Name:        formValue(r, "name"),
		Description: formValue(r, "description"),
		VideoURL:    formValue(r, "video_url"),
	}

	if raw := formValue(r, "status"); raw != "" {
		status, err := enums.ParseProductStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = status
	}

	var err error
	if input.BrandID, err = formUUIDPtr(r, "brand_id"); err != nil {
		return nil, err
	}
	if input.CategoryID, err = formUUIDPtr(r, "category_id"); err != nil {
		return nil, err
	}

	if input.RetailPrice, err = formDecimal(r, "retail_price"); err != nil {
		return nil, err
	}
	if input.ResellerPrice, err = formDecimal(r, "reseller_price"); err != nil {
		return nil, err
	}
	if input.WholesalePrice, err = formDecimal(r, "wholesale_price"); err != nil {
		return nil, err
	}
	if input.DiscountPrice, err = formDecimalPtr(r, "discount_price"); err != nil {
		return nil, err
	}

	stock, err := formIntPtr(r, "stock")
	if err != nil {
		return nil, err
	}
	if stock != nil {
		input.Stock = *stock
	}

	variants, err := formVariants(r)
	if err != nil {
		return nil, err
	}
	if variants != nil {
		input.Variants = *variants
	}

	return input, nil
}

func decodeProductUpdateForm(r *http.Request) (*product.UpdateInput, error) {
	input := &product.UpdateInput{
		Name:        formValuePtr(r, "name"),
		Description: formValuePtr(r, "description"),
		VideoURL:    formValuePtr(r, "video_url"),
	}

	if raw := formValuePtr(r, "status"); raw != nil {
		status, err := enums.ParseProductStatus(*raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}

	var err error
	if input.BrandID, err = formUUIDPtr(r, "brand_id"); err != nil {
		return nil, err
	}
	if input.CategoryID, err = formUUIDPtr(r, "category_id"); err != nil {
		return nil, err
	}

	if input.RetailPrice, err = formDecimalPtr(r, "retail_price"); err != nil {
		return nil, err
	}
	if input.ResellerPrice, err = formDecimalPtr(r, "reseller_price"); err != nil {
		return nil, err
	}
	if input.WholesalePrice, err = formDecimalPtr(r, "wholesale_price"); err != nil {
		return nil, err
	}
	if input.DiscountPrice, err = formDecimalPtr(r, "discount_price"); err != nil {
		return nil, err
	}

	if input.Stock, err = formIntPtr(r, "stock"); err != nil {
		return nil, err
	}

	if input.Variants, err = formVariants(r); err != nil {
		return nil, err
	}

	if raw := formValuePtr(r, "retained_images"); raw != nil {
		var retained []string
		if err := json.Unmarshal([]byte(*raw), &retained); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid retained_images")
		}
		input.RetainedImageURLs = &retained
	}

	return input, nil
}

func formUUIDPtr(r *http.Request, key string) (*uuid.UUID, error) {
	raw := formValuePtr(r, key)
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return &id, nil
}

func formDecimal(r *http.Request, key string) (decimal.Decimal, error) {
	raw := formValue(r, key)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "field must be a decimal").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

func formDecimalPtr(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := formValuePtr(r, key)
	if raw == nil || *raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field must be a decimal").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

func formVariants(r *http.Request) (*dbtypes.VariantGroups, error) {
	raw := formValuePtr(r, "variants")
	if raw == nil {
		return nil, nil
	}
	var groups dbtypes.VariantGroups
	if *raw != "" {
		if err := json.Unmarshal([]byte(*raw), &groups); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variants")
		}
	}
	return &groups, nil
}

func toProductUploads(uploads []uploadedFile) []product.ImageUpload {
	if len(uploads) == 0 {
		return nil
	}
	images := make([]product.ImageUpload, 0, len(uploads))
	for _, u := range uploads {
		images = append(images, product.ImageUpload{
			Filename:    u.filename,
			ContentType: u.contentType,
			Data:        u.file,
		})
	}
	return images
}
