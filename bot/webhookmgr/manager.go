package webhookmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"StaffBot/bot/dialog"
	"StaffBot/bot/platform"
	"StaffBot/entity"
	"StaffBot/internal/errs"
	"StaffBot/internal/lib/sl"
)

// alertAfterFailures is how many consecutive failed checks it takes
// before a degraded webhook is escalated to an alert-level log.
const alertAfterFailures = 3

// Repository defines the database operations for webhook registrations.
type Repository interface {
	ListWebhookRegistrations(ctx context.Context) ([]entity.WebhookRegistration, error)
	LoadWebhookRegistration(ctx context.Context, botID, platformName string) (*entity.WebhookRegistration, error)
	SaveWebhookRegistration(ctx context.Context, reg *entity.WebhookRegistration) error
}

// Manager is the background webhook lifecycle loop: on a fixed interval
// it health-checks every active bot-platform registration, re-registers
// drifted or erroring webhooks and records the outcome. One pair's
// failure never blocks the others.
type Manager struct {
	repo        Repository
	platforms   *platform.Registry
	creds       dialog.CredentialsProvider
	publicURL   string
	interval    time.Duration
	maxParallel int
	log         *slog.Logger

	// Serializes writes per bot-platform pair between the periodic
	// cycle and forced refreshes. Deliberately a separate table from
	// the dialog engine's per-chat locks.
	locks *dialog.KeyedLocks
}

// NewManager creates a webhook lifecycle manager. publicURL is the base
// under which inbound webhook routes are exposed.
func NewManager(
	repo Repository,
	platforms *platform.Registry,
	creds dialog.CredentialsProvider,
	publicURL string,
	interval time.Duration,
	maxParallel int,
	log *slog.Logger,
) *Manager {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxParallel <= 0 {
		maxParallel = 8
	}
	return &Manager{
		repo:        repo,
		platforms:   platforms,
		creds:       creds,
		publicURL:   publicURL,
		interval:    interval,
		maxParallel: maxParallel,
		log:         log.With(sl.Module("webhookmgr")),
		locks:       dialog.NewKeyedLocks(),
	}
}

// Run blocks until ctx is cancelled, checking all registrations every
// interval. Cancellation mid-cycle finishes in-flight pair checks and
// skips the rest.
func (m *Manager) Run(ctx context.Context) {
	m.log.Info("webhook lifecycle manager started",
		slog.Duration("interval", m.interval),
		slog.String("public_url", m.publicURL),
	)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("webhook lifecycle manager stopped")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Manager) runCycle(ctx context.Context) {
	regs, err := m.repo.ListWebhookRegistrations(ctx)
	if err != nil {
		m.log.Error("listing webhook registrations", sl.Err(err))
		return
	}

	sem := make(chan struct{}, m.maxParallel)
	var wg sync.WaitGroup

	for i := range regs {
		select {
		case <-ctx.Done():
			// Graceful shutdown: in-flight checks finish, the rest of
			// the cycle is skipped.
			wg.Wait()
			return
		default:
		}

		reg := regs[i]
		if !reg.AutoRefresh {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			m.checkPair(ctx, &reg)
		}()
	}

	wg.Wait()
}

// checkPair runs one health check for a bot-platform pair and persists
// the resulting registration state. It never propagates errors: all
// failure modes end up in the registration's status and the log.
func (m *Manager) checkPair(ctx context.Context, reg *entity.WebhookRegistration) {
	unlock := m.locks.Lock(reg.BotID + "|" + reg.Platform)
	defer unlock()

	log := m.log.With(
		slog.String("bot_id", reg.BotID),
		slog.String("platform", reg.Platform),
	)

	adapter, err := m.platforms.Get(reg.Platform)
	if err != nil {
		log.Error("no adapter for platform", sl.Err(err))
		return
	}

	creds, err := m.creds.GetCredentials(ctx, reg.BotID, reg.Platform)
	if err != nil || creds.Revoked {
		reg.Status = entity.WebhookUnregistered
		reg.LastCheckedAt = time.Now()
		m.save(ctx, reg, log)
		if err != nil {
			log.Warn("credentials unavailable, webhook deactivated", sl.Err(err))
		}
		return
	}

	desired := m.desiredURL(reg.BotID, reg.Platform)

	current, err := adapter.WebhookURL(ctx, creds)
	if err == nil && current == desired {
		reg.Status = entity.WebhookActive
		reg.WebhookURL = desired
		reg.FailureCount = 0
		reg.LastCheckedAt = time.Now()
		m.save(ctx, reg, log)
		return
	}

	if err != nil {
		log.Warn("webhook status check failed", sl.Err(err))
	} else {
		log.Warn("webhook url drifted",
			slog.String("current", current),
			slog.String("desired", desired),
		)
	}

	if reg.Status == entity.WebhookUnregistered {
		reg.Status = entity.WebhookRegistering
	} else {
		reg.Status = entity.WebhookDegraded
	}

	// Re-registration is idempotent on the platform side.
	if err := adapter.RegisterWebhook(ctx, creds, desired); err != nil {
		reg.Status = entity.WebhookDegraded
		reg.FailureCount++
		reg.LastCheckedAt = time.Now()
		m.save(ctx, reg, log)

		if reg.FailureCount >= alertAfterFailures {
			log.Error("webhook still degraded after repeated re-registration failures",
				slog.Int("failure_count", reg.FailureCount),
				sl.Err(err),
			)
		} else {
			log.Warn("webhook re-registration failed", sl.Err(err))
		}
		return
	}

	reg.Status = entity.WebhookActive
	reg.WebhookURL = desired
	reg.FailureCount = 0
	reg.LastCheckedAt = time.Now()
	m.save(ctx, reg, log)

	log.Info("webhook re-registered", slog.String("url", desired))
}

// ForceRefresh runs one immediate check for a pair, outside the periodic
// cycle.
func (m *Manager) ForceRefresh(ctx context.Context, botID, platformName string) error {
	reg, err := m.repo.LoadWebhookRegistration(ctx, botID, platformName)
	if err != nil {
		return err
	}
	if reg == nil {
		return errs.NotFound("no webhook registration for bot %s on %s", botID, platformName)
	}

	m.checkPair(ctx, reg)

	if reg.Status != entity.WebhookActive {
		return errs.Delivery(fmt.Errorf("webhook for bot %s on %s is %s", botID, platformName, reg.Status))
	}
	return nil
}

// Status returns the stored registration for a pair.
func (m *Manager) Status(ctx context.Context, botID, platformName string) (*entity.WebhookRegistration, error) {
	reg, err := m.repo.LoadWebhookRegistration(ctx, botID, platformName)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, errs.NotFound("no webhook registration for bot %s on %s", botID, platformName)
	}
	return reg, nil
}

func (m *Manager) desiredURL(botID, platformName string) string {
	return fmt.Sprintf("%s/webhooks/%s/%s", m.publicURL, platformName, botID)
}

func (m *Manager) save(ctx context.Context, reg *entity.WebhookRegistration, log *slog.Logger) {
	if err := m.repo.SaveWebhookRegistration(ctx, reg); err != nil {
		log.Error("saving webhook registration", sl.Err(err))
	}
}
