package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tavolo-pos/tavolo-pos/internal/platform/httpx"
	"github.com/tavolo-pos/tavolo-pos/internal/rbac"
	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// Handler exposes stock endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers item and ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(rbac.ModuleStock, rbac.ActionView))
			r.Get("/", h.listItems)
			r.Get("/{id}", h.getItem)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(rbac.ModuleStock, rbac.ActionCreate))
			r.Post("/", h.createItem)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(rbac.ModuleStock, rbac.ActionEdit))
			r.Put("/{id}", h.updateItem)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(rbac.ModuleStock, rbac.ActionDelete))
			r.Delete("/{id}", h.deleteItem)
		})
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(rbac.ModuleStock, rbac.ActionView))
			r.Get("/", h.listTransactions)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(rbac.ModuleStock, rbac.ActionCreate))
			r.Post("/", h.createTransaction)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(rbac.ModuleStock, rbac.ActionDelete))
			r.Delete("/{id}", h.deleteTransaction)
		})
	})
}

type itemRequest struct {
	IngredientName       string  `json:"ingredientName" validate:"required"`
	Category             string  `json:"category" validate:"required"`
	Unit                 string  `json:"unit" validate:"required"`
	Quantity             float64 `json:"quantity"`
	MinimumStockLevel    float64 `json:"minimumStockLevel" validate:"gte=0"`
	ReorderLevel         float64 `json:"reorderLevel" validate:"gte=0"`
	PurchasePricePerUnit float64 `json:"purchasePricePerUnit" validate:"gte=0"`
	SupplierName         string  `json:"supplierName"`
	SupplierContact      string  `json:"supplierContact"`
}

type itemResponse struct {
	ID                   int64   `json:"id"`
	IngredientName       string  `json:"ingredientName"`
	Category             string  `json:"category"`
	Unit                 string  `json:"unit"`
	CurrentQuantity      float64 `json:"currentQuantity"`
	MinimumStockLevel    float64 `json:"minimumStockLevel"`
	ReorderLevel         float64 `json:"reorderLevel"`
	PurchasePricePerUnit float64 `json:"purchasePricePerUnit"`
	SupplierName         string  `json:"supplierName,omitempty"`
	SupplierContact      string  `json:"supplierContact,omitempty"`
	Status               string  `json:"status"`
	CreatedAt            string  `json:"createdAt"`
	LastUpdated          string  `json:"lastUpdated"`
}

type transactionRequest struct {
	StockItemID  int64   `json:"stockItemId" validate:"required,gt=0"`
	ActivityType string  `json:"activityType" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	Note         string  `json:"note"`
}

type transactionResponse struct {
	ID             int64   `json:"id"`
	StockItemID    int64   `json:"stockItemId"`
	IngredientName string  `json:"ingredientName"`
	ActivityType   string  `json:"activityType"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
	Note           string  `json:"note,omitempty"`
	OccurredAt     string  `json:"occurredAt"`
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	filter := ItemFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		LowStock: r.URL.Query().Get("lowStock") == "true",
	}
	items, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stock items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	item, err := h.service.CreateItem(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	item, err := h.service.UpdateItem(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	transactions, pagination, err := h.service.ListTransactions(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list stock transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": out, "pagination": pagination})
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.RecordTransaction(r.Context(), TransactionInput{
		StockItemID:  req.StockItemID,
		ActivityType: ActivityType(req.ActivityType),
		Quantity:     req.Quantity,
		Price:        req.Price,
		Note:         req.Note,
	})
	if err != nil {
		if errors.Is(err, ErrUnknownActivity) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown activity type")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decodeItem(w http.ResponseWriter, r *http.Request) (ItemInput, bool) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return ItemInput{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return ItemInput{}, false
	}
	return ItemInput{
		IngredientName:       req.IngredientName,
		Category:             req.Category,
		Unit:                 req.Unit,
		Quantity:             req.Quantity,
		MinimumStockLevel:    req.MinimumStockLevel,
		ReorderLevel:         req.ReorderLevel,
		PurchasePricePerUnit: req.PurchasePricePerUnit,
		SupplierName:         req.SupplierName,
		SupplierContact:      req.SupplierContact,
	}, true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, shared.ErrValidation
	}
	return id, nil
}

func toItemResponse(i Item) itemResponse {
	return itemResponse{
		ID:                   i.ID,
		IngredientName:       i.IngredientName,
		Category:             i.Category,
		Unit:                 i.Unit,
		CurrentQuantity:      i.CurrentQuantity,
		MinimumStockLevel:    i.MinimumStockLevel,
		ReorderLevel:         i.ReorderLevel,
		PurchasePricePerUnit: i.PurchasePricePerUnit,
		SupplierName:         i.SupplierName,
		SupplierContact:      i.SupplierContact,
		Status:               i.Status(),
		CreatedAt:            i.CreatedAt.UTC().Format(time.RFC3339),
		LastUpdated:          i.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:             t.ID,
		StockItemID:    t.StockItemID,
		IngredientName: t.IngredientName,
		ActivityType:   string(t.ActivityType),
		Quantity:       t.Quantity,
		Price:          t.Price,
		Note:           t.Note,
		OccurredAt:     t.OccurredAt.UTC().Format(time.RFC3339),
	}
}
