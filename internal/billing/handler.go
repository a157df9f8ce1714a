package billing

import (
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

// Handler exposes billing endpoints.
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

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleBilling, rbac.ActionViewBills))
		r.Get("/", h.listBills)
		r.Get("/{id}", h.getBill)
		r.Get("/stats/daily", h.dailyStats)
		r.Get("/stats/weekly", h.weeklySales)
		r.Get("/stats/monthly", h.monthlySales)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleBilling, rbac.ActionCreate))
		r.Post("/", h.createBill)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleBilling, rbac.ActionRefund))
		r.Post("/{id}/refund", h.refundBill)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleBilling, rbac.ActionDelete))
		r.Delete("/{id}", h.deleteBill)
	})
}

type cartLineRequest struct {
	ID       int64   `json:"id" validate:"required,gt=0"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gt=0"`
}

type billRequest struct {
	SubTotal     float64           `json:"subTotal" validate:"gte=0"`
	Discount     float64           `json:"discount" validate:"gte=0"`
	TotalBill    float64           `json:"totalBill" validate:"gte=0"`
	CashAmount   float64           `json:"cashAmount" validate:"gte=0"`
	ChangeAmount float64           `json:"changeAmount" validate:"gte=0"`
	Cart         []cartLineRequest `json:"cart" validate:"required,min=1,dive"`
}

type billResponse struct {
	ID           int64      `json:"id"`
	BillNo       string     `json:"billNo"`
	SubTotal     float64    `json:"subTotal"`
	Discount     float64    `json:"discount"`
	TotalBill    float64    `json:"totalBill"`
	CashAmount   float64    `json:"cashAmount"`
	ChangeAmount float64    `json:"changeAmount"`
	BillDate     string     `json:"billDate"`
	BillTime     string     `json:"billTime"`
	Cart         []CartLine `json:"cart"`
	CreatedAt    string     `json:"createdAt"`
	Refunded     bool       `json:"refunded"`
	RefundedAt   *string    `json:"refundedAt,omitempty"`
}

type dailyStatsResponse struct {
	BillCount    int     `json:"billCount"`
	DailyRevenue float64 `json:"dailyRevenue"`
	TotalUsers   int     `json:"totalUsers"`
	TotalItems   int     `json:"totalItems"`
	Categories   int     `json:"categories"`
}

type salesPointResponse struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	bills, pagination, err := h.service.ListBills(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list bills", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillResponse(b))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bills": out, "pagination": pagination})
}

func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.GetBill(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBillResponse(b))
}

func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cart := make([]CartLine, 0, len(req.Cart))
	for _, line := range req.Cart {
		cart = append(cart, CartLine{ID: line.ID, Name: line.Name, Price: line.Price, Quantity: line.Quantity})
	}
	b, err := h.service.CreateBill(r.Context(), BillInput{
		SubTotal:       req.SubTotal,
		Discount:       req.Discount,
		TotalBill:      req.TotalBill,
		CashAmount:     req.CashAmount,
		ChangeAmount:   req.ChangeAmount,
		Cart:           cart,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toBillResponse(b))
}

func (h *Handler) refundBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.RefundBill(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBillResponse(b))
}

func (h *Handler) deleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteBill(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) dailyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DailyStats(r.Context())
	if err != nil {
		h.logger.Error("daily stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dailyStatsResponse(stats))
}

func (h *Handler) weeklySales(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.WeeklySales(r.Context())
	if err != nil {
		h.logger.Error("weekly sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": toSalesResponse(points)})
}

func (h *Handler) monthlySales(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.MonthlySales(r.Context())
	if err != nil {
		h.logger.Error("monthly sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": toSalesResponse(points)})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, shared.ErrValidation
	}
	return id, nil
}

func toBillResponse(b Bill) billResponse {
	resp := billResponse{
		ID:           b.ID,
		BillNo:       b.BillNo,
		SubTotal:     b.SubTotal,
		Discount:     b.Discount,
		TotalBill:    b.TotalBill,
		CashAmount:   b.CashAmount,
		ChangeAmount: b.ChangeAmount,
		BillDate:     b.BillDate,
		BillTime:     b.BillTime,
		Cart:         b.Cart,
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
		Refunded:     b.Refunded,
	}
	if b.Cart == nil {
		resp.Cart = []CartLine{}
	}
	if b.RefundedAt != nil {
		refunded := b.RefundedAt.UTC().Format(time.RFC3339)
		resp.RefundedAt = &refunded
	}
	return resp
}

func toSalesResponse(points []SalesPoint) []salesPointResponse {
	out := make([]salesPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, salesPointResponse(p))
	}
	return out
}
