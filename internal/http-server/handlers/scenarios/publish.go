package scenarios

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"StaffBot/bot/scenario"
	"StaffBot/internal/errs"
	"StaffBot/internal/lib/api/response"
	"StaffBot/internal/lib/sl"
)

// Core is the bot service surface for scenario publishing.
type Core interface {
	PublishScenario(ctx context.Context, botID string, sc *scenario.Scenario, platforms []string) (string, error)
}

type publishRequest struct {
	BotID     string            `json:"bot_id"`
	Platforms []string          `json:"platforms"`
	Scenario  scenario.Scenario `json:"scenario"`
}

type publishResponse struct {
	Version string `json:"version"`
}

// Publish handles POST /api/v1/scenarios/publish. Configuration errors
// are reported to the caller; the previously active version stays live.
func Publish(log *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req publishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.BotID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("bot_id is required"))
			return
		}

		version, err := core.PublishScenario(r.Context(), req.BotID, &req.Scenario, req.Platforms)
		if err != nil {
			if errs.IsConfiguration(err) {
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, response.Error(err.Error()))
				return
			}
			log.Error("scenario publish failed",
				sl.Module("http.scenarios"),
				slog.String("bot_id", req.BotID),
				sl.Err(err),
			)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Publish failed"))
			return
		}

		render.JSON(w, r, publishResponse{Version: version})
	}
}
