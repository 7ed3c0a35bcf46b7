package bots

import (
	"context"
	"log/slog"

	"StaffBot/bot/scenario"
	"StaffBot/entity"
	"StaffBot/internal/errs"
	"StaffBot/internal/lib/sl"
)

// Repository defines the database operations the bot service needs.
type Repository interface {
	LoadBot(ctx context.Context, botID string) (*entity.Bot, error)
	LoadCredentials(ctx context.Context, botID, platform string) (*entity.Credentials, error)
	PublishScenario(ctx context.Context, botID string, sc *scenario.Scenario) (string, error)
	LoadWebhookRegistration(ctx context.Context, botID, platform string) (*entity.WebhookRegistration, error)
	SaveWebhookRegistration(ctx context.Context, reg *entity.WebhookRegistration) error
}

// Service is the bot/scenario collaborator: credentials lookup, bot
// existence checks and scenario publishing.
type Service struct {
	repo      Repository
	scenarios *scenario.Store
	log       *slog.Logger
}

func NewService(repo Repository, scenarios *scenario.Store, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		scenarios: scenarios,
		log:       log.With(sl.Module("service.bots")),
	}
}

// HasBot reports whether a bot exists and is enabled.
func (s *Service) HasBot(ctx context.Context, botID string) (bool, error) {
	bot, err := s.repo.LoadBot(ctx, botID)
	if err != nil {
		return false, err
	}
	return bot != nil && bot.Enabled, nil
}

// GetCredentials returns the platform credentials attached to a bot.
// Missing or revoked credentials are a not-found condition.
func (s *Service) GetCredentials(ctx context.Context, botID, platform string) (entity.Credentials, error) {
	creds, err := s.repo.LoadCredentials(ctx, botID, platform)
	if err != nil {
		return entity.Credentials{}, err
	}
	if creds == nil || creds.Revoked {
		return entity.Credentials{}, errs.NotFound("no %s credentials for bot %s", platform, botID)
	}
	return *creds, nil
}

// PublishScenario validates a candidate scenario and stores it as the
// bot's new active version. Validation failures keep the previous
// version live. Publishing also makes sure a webhook registration row
// exists for every platform that has credentials, so the lifecycle
// manager picks the bot up on its next cycle.
func (s *Service) PublishScenario(ctx context.Context, botID string, sc *scenario.Scenario, platforms []string) (string, error) {
	if err := s.scenarios.ValidateForPublish(sc); err != nil {
		return "", err
	}

	version, err := s.repo.PublishScenario(ctx, botID, sc)
	if err != nil {
		return "", err
	}

	s.scenarios.Invalidate(botID)

	for _, platform := range platforms {
		if err := s.ensureRegistration(ctx, botID, platform); err != nil {
			s.log.Warn("ensuring webhook registration",
				slog.String("bot_id", botID),
				slog.String("platform", platform),
				sl.Err(err),
			)
		}
	}

	s.log.Info("scenario published",
		slog.String("bot_id", botID),
		slog.String("scenario_id", sc.ID),
		slog.String("version", version),
	)

	return version, nil
}

func (s *Service) ensureRegistration(ctx context.Context, botID, platform string) error {
	creds, err := s.repo.LoadCredentials(ctx, botID, platform)
	if err != nil {
		return err
	}
	if creds == nil || creds.Revoked {
		return nil
	}

	existing, err := s.repo.LoadWebhookRegistration(ctx, botID, platform)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	return s.repo.SaveWebhookRegistration(ctx, &entity.WebhookRegistration{
		BotID:       botID,
		Platform:    platform,
		Status:      entity.WebhookUnregistered,
		AutoRefresh: true,
	})
}
