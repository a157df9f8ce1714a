package rbac

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tavolo-pos/tavolo-pos/internal/platform/httpx"
)

// Handler exposes the permission endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers permission routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ModulePermissions, ActionView))
		r.Get("/matrix", h.getMatrix)
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{role}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ModulePermissions, ActionEdit))
		r.Put("/roles/{role}", h.setRole)
	})
}

func (h *Handler) getMatrix(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": h.service.Matrix()})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListRolePermissions(r.Context())
	if err != nil {
		h.logger.Error("list role permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": toRoleResponses(records)})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.GetRolePermissions(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(record))
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Permissions RolePermissions `json:"permissions"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	record, err := h.service.SetRolePermissions(r.Context(), chi.URLParam(r, "role"), body.Permissions)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(record))
}

type roleResponse struct {
	Role        string          `json:"role"`
	Permissions RolePermissions `json:"permissions"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
}

func toRoleResponse(record RoleRecord) roleResponse {
	resp := roleResponse{Role: record.Role, Permissions: record.Permissions}
	if !record.UpdatedAt.IsZero() {
		resp.UpdatedAt = record.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toRoleResponses(records []RoleRecord) []roleResponse {
	out := make([]roleResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRoleResponse(record))
	}
	return out
}
