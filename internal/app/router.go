package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tavolo-pos/tavolo-pos/internal/auth"
	"github.com/tavolo-pos/tavolo-pos/internal/billing"
	"github.com/tavolo-pos/tavolo-pos/internal/cashdrawer"
	"github.com/tavolo-pos/tavolo-pos/internal/catalog"
	"github.com/tavolo-pos/tavolo-pos/internal/dashboard"
	"github.com/tavolo-pos/tavolo-pos/internal/observability"
	"github.com/tavolo-pos/tavolo-pos/internal/rbac"
	"github.com/tavolo-pos/tavolo-pos/internal/shared"
	"github.com/tavolo-pos/tavolo-pos/internal/stock"
	"github.com/tavolo-pos/tavolo-pos/internal/users"
	"github.com/tavolo-pos/tavolo-pos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	StockHandler     *stock.Handler
	CashHandler      *cashdrawer.Handler
	BillingHandler   *billing.Handler
	UsersHandler     *users.Handler
	RBACHandler      *rbac.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Tavolo defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/categories", params.CatalogHandler.MountCategoryRoutes)
	r.Route("/products", params.CatalogHandler.MountProductRoutes)
	r.Route("/stock", params.StockHandler.MountRoutes)
	r.Route("/cash", params.CashHandler.MountRoutes)
	r.Route("/bills", params.BillingHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.RBACHandler != nil {
		r.Route("/permissions", params.RBACHandler.MountRoutes)
	}
	if params.DashboardHandler != nil {
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
