package rbac

import (
	"log/slog"
	"net/http"

	"github.com/tavolo-pos/tavolo-pos/internal/platform/httpx"
	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// Middleware wires permission checks into HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require ensures the signed-in user's role is granted the module action.
func (m Middleware) Require(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			decision, err := m.Service.Check(r.Context(), sess.Role(), module, action)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac check", slog.String("module", module), slog.String("action", action), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !decision.Granted {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.String("role", sess.Role()),
						slog.String("module", module),
						slog.String("action", action),
						slog.String("reason", decision.Reason))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
