package webhooks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"StaffBot/entity"
	"StaffBot/internal/errs"
	"StaffBot/internal/lib/api/response"
	"StaffBot/internal/lib/sl"
)

// Lifecycle is the webhook manager surface exposed over the admin API.
type Lifecycle interface {
	Status(ctx context.Context, botID, platform string) (*entity.WebhookRegistration, error)
	ForceRefresh(ctx context.Context, botID, platform string) error
}

type statusResponse struct {
	Status        entity.WebhookStatus `json:"status"`
	WebhookURL    string               `json:"webhook_url"`
	LastCheckedAt time.Time            `json:"last_checked_at"`
}

// Status handles GET /api/v1/webhooks/{platform}/{bot_id}.
func Status(log *slog.Logger, lifecycle Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := chi.URLParam(r, "platform")
		botID := chi.URLParam(r, "bot_id")

		reg, err := lifecycle.Status(r.Context(), botID, platform)
		if err != nil {
			if errs.IsNotFound(err) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("No webhook registration"))
				return
			}
			log.Error("webhook status lookup failed", sl.Module("http.webhooks"), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Lookup failed"))
			return
		}

		render.JSON(w, r, statusResponse{
			Status:        reg.Status,
			WebhookURL:    reg.WebhookURL,
			LastCheckedAt: reg.LastCheckedAt,
		})
	}
}

// Refresh handles POST /api/v1/webhooks/{platform}/{bot_id}/refresh.
func Refresh(log *slog.Logger, lifecycle Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := chi.URLParam(r, "platform")
		botID := chi.URLParam(r, "bot_id")

		err := lifecycle.ForceRefresh(r.Context(), botID, platform)
		if err != nil {
			switch {
			case errs.IsNotFound(err):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("No webhook registration"))
			default:
				log.Error("webhook refresh failed",
					sl.Module("http.webhooks"),
					slog.String("bot_id", botID),
					sl.Err(err),
				)
				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, response.Error("Refresh failed"))
			}
			return
		}

		render.JSON(w, r, response.OK())
	}
}
