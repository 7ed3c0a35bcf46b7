package webhooks

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"StaffBot/internal/lib/api/response"
	"StaffBot/internal/lib/sl"
)

// maxPayloadBytes bounds inbound webhook bodies; platform updates are
// small.
const maxPayloadBytes = 1 << 20

// dispatchTimeout bounds the detached processing of one update,
// including outbound sends and their retries.
const dispatchTimeout = 60 * time.Second

// Core is the engine surface the inbound handler needs.
type Core interface {
	VerifyInbound(platform string, header http.Header) error
	HasBot(ctx context.Context, botID string) (bool, error)
	HandleInbound(ctx context.Context, botID, platform string, raw []byte) error
}

// Inbound handles POST /webhooks/{platform}/{bot_id}. The platform is
// acknowledged immediately; processing continues detached so a slow
// downstream send can never trip the platform's webhook timeout.
func Inbound(log *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := chi.URLParam(r, "platform")
		botID := chi.URLParam(r, "bot_id")

		logger := log.With(
			sl.Module("http.webhooks"),
			slog.String("platform", platform),
			slog.String("bot_id", botID),
		)

		if err := core.VerifyInbound(platform, r.Header); err != nil {
			logger.Warn("webhook verification failed", sl.Err(err))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Verification failed"))
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Unreadable payload"))
			return
		}

		known, err := core.HasBot(r.Context(), botID)
		if err != nil {
			logger.Error("bot lookup failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Lookup failed"))
			return
		}
		if !known {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Unknown bot"))
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
			defer cancel()

			if err := core.HandleInbound(ctx, botID, platform, raw); err != nil {
				logger.Error("inbound processing failed", sl.Err(err))
			}
		}()

		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, response.OK())
	}
}
