package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bagaspradana/tokoadmin-backend/api/responses"
	"github.com/bagaspradana/tokoadmin-backend/api/validators"
	"github.com/bagaspradana/tokoadmin-backend/internal/orders"
	"github.com/bagaspradana/tokoadmin-backend/pkg/enums"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
)

type orderItemRequest struct {
	ProductID *string `json:"product_id,omitempty"`
	Name      string  `json:"name" validate:"required"`
	Variant   string  `json:"variant,omitempty"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	UnitPrice string  `json:"unit_price" validate:"required"`
}

type createOrderRequest struct {
	CustomerName  string             `json:"customer_name" validate:"required"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	Address       string             `json:"address,omitempty"`
	Branch        string             `json:"branch" validate:"required"`
	Status        string             `json:"status,omitempty"`
	Discount      string             `json:"discount,omitempty"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateOrderRequest struct {
	CustomerName  *string             `json:"customer_name,omitempty"`
	CustomerPhone *string             `json:"customer_phone,omitempty"`
	Address       *string             `json:"address,omitempty"`
	Branch        *string             `json:"branch,omitempty"`
	Status        *string             `json:"status,omitempty"`
	Discount      *string             `json:"discount,omitempty"`
	Items         *[]orderItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (req createOrderRequest) toInput() (orders.CreateInput, error) {
	input := orders.CreateInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
	}

	branch, err := enums.ParseOrderBranch(strings.TrimSpace(req.Branch))
	if err != nil {
		return orders.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid branch")
	}
	input.Branch = branch

	if req.Status != "" {
		status, err := enums.ParseOrderStatus(strings.TrimSpace(req.Status))
		if err != nil {
			return orders.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = status
	}

	if input.Discount, err = parseMoney(req.Discount, "discount", true); err != nil {
		return orders.CreateInput{}, err
	}

	items, err := toItemInputs(req.Items)
	if err != nil {
		return orders.CreateInput{}, err
	}
	input.Items = items
	return input, nil
}

func (req updateOrderRequest) toInput() (orders.UpdateInput, error) {
	input := orders.UpdateInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
	}

	if req.Branch != nil {
		branch, err := enums.ParseOrderBranch(strings.TrimSpace(*req.Branch))
		if err != nil {
			return orders.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid branch")
		}
		input.Branch = &branch
	}

	if req.Status != nil {
		status, err := enums.ParseOrderStatus(strings.TrimSpace(*req.Status))
		if err != nil {
			return orders.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}

	if req.Discount != nil {
		discount, err := parseMoney(*req.Discount, "discount", true)
		if err != nil {
			return orders.UpdateInput{}, err
		}
		input.Discount = &discount
	}

	if req.Items != nil {
		items, err := toItemInputs(*req.Items)
		if err != nil {
			return orders.UpdateInput{}, err
		}
		input.Items = &items
	}
	return input, nil
}

func toItemInputs(rows []orderItemRequest) ([]orders.ItemInput, error) {
	items := make([]orders.ItemInput, 0, len(rows))
	for _, row := range rows {
		item := orders.ItemInput{
			Name:     row.Name,
			Variant:  row.Variant,
			Quantity: row.Quantity,
		}
		if row.ProductID != nil && *row.ProductID != "" {
			id, err := uuid.Parse(*row.ProductID)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product_id must be a uuid")
			}
			item.ProductID = &id
		}
		price, err := parseMoney(row.UnitPrice, "unit_price", false)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = price
		items = append(items, item)
	}
	return items, nil
}

func parseMoney(raw, field string, emptyOK bool) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if emptyOK {
			return decimal.Zero, nil
		}
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "field is required").WithDetails(map[string]any{"field": field})
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "field must be a decimal").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func OrderUpdate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// OrderUpdateStatus changes only the status, the common path from the
// order board.
func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

func OrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parseIDParam(r, "orderId")
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

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parseIDParam(r, "orderId")
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

// OrderList pages orders by customer name prefix.
func OrderList(svc orders.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
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

		result, err := svc.List(r.Context(), orders.ListInput{
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
