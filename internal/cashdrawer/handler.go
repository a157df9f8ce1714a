package cashdrawer

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tavolo-pos/tavolo-pos/internal/platform/httpx"
	"github.com/tavolo-pos/tavolo-pos/internal/rbac"
)

// Handler exposes cash drawer endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers drawer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleCash, rbac.ActionView))
		r.Get("/days", h.listDays)
		r.Get("/days/{dayKey}", h.getDay)
		r.Get("/today", h.getToday)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleCash, rbac.ActionCreate))
		r.Post("/start", h.startDay)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleCash, rbac.ActionEdit))
		r.Post("/end", h.endDay)
	})
}

type startDayRequest struct {
	DayKey       string          `json:"dayKey"`
	StartingCash decimal.Decimal `json:"startingCash"`
}

type endDayRequest struct {
	DayKey       string          `json:"dayKey"`
	DeclaredCash decimal.Decimal `json:"declaredCash"`
	DailyRevenue decimal.Decimal `json:"dailyRevenue"`
}

type dayResponse struct {
	ID           int64   `json:"id"`
	DayKey       string  `json:"dayKey"`
	StartingCash string  `json:"startingCash"`
	DeclaredCash string  `json:"declaredCash"`
	DailyRevenue string  `json:"dailyRevenue"`
	ExpectedCash string  `json:"expectedCash"`
	Variance     string  `json:"variance"`
	DayStarted   bool    `json:"dayStarted"`
	DrawerOpen   bool    `json:"drawerOpen"`
	DayEnded     bool    `json:"dayEnded"`
	StartedAt    string  `json:"startedAt"`
	EndedAt      *string `json:"endedAt,omitempty"`
}

func (h *Handler) startDay(w http.ResponseWriter, r *http.Request) {
	var req startDayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	day, err := h.service.StartDay(r.Context(), req.DayKey, req.StartingCash)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDayResponse(day))
}

func (h *Handler) endDay(w http.ResponseWriter, r *http.Request) {
	var req endDayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	day, err := h.service.EndDay(r.Context(), req.DayKey, req.DeclaredCash, req.DailyRevenue)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDayResponse(day))
}

func (h *Handler) getDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.service.GetDay(r.Context(), chi.URLParam(r, "dayKey"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDayResponse(day))
}

func (h *Handler) getToday(w http.ResponseWriter, r *http.Request) {
	day, err := h.service.GetDay(r.Context(), "")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDayResponse(day))
}

func (h *Handler) listDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.ListDays(r.Context())
	if err != nil {
		h.logger.Error("list cash days", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]dayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, toDayResponse(d))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": out})
}

func toDayResponse(d Day) dayResponse {
	resp := dayResponse{
		ID:           d.ID,
		DayKey:       d.DayKey,
		StartingCash: d.StartingCash.StringFixed(2),
		DeclaredCash: d.DeclaredCash.StringFixed(2),
		DailyRevenue: d.DailyRevenue.StringFixed(2),
		ExpectedCash: d.ExpectedCash.StringFixed(2),
		Variance:     d.Variance.StringFixed(2),
		DayStarted:   d.DayStarted,
		DrawerOpen:   d.DrawerOpen,
		DayEnded:     d.DayEnded,
		StartedAt:    d.StartedAt.UTC().Format(time.RFC3339),
	}
	if d.EndedAt != nil {
		ended := d.EndedAt.UTC().Format(time.RFC3339)
		resp.EndedAt = &ended
	}
	return resp
}
