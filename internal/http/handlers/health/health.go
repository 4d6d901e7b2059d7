// Package health отдаёт состояние воркера и его зависимостей.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/isp-manager/internal/http/response"
	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
)

// Check проверяет одну зависимость. nil означает, что она доступна.
type Check func(ctx context.Context) error

// Handler отвечает 200, если все проверки прошли, и 503 иначе.
type Handler struct {
	log    *slog.Logger
	checks map[string]Check
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, checks map[string]Check) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	components := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			h.log.Warn("dependency unavailable", sl.Op(op), slog.String("component", name), sl.Err(err))
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{
			Status: response.StatusError,
			Error:  "dependency unavailable",
			Data:   components,
		})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(components))
}
