// Package scheduler runs the periodic jobs: the course-wide at-risk sweep and
// refresh token cleanup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/services"
)

// RiskSweeper runs the bulk at-risk check over every course
type RiskSweeper interface {
	SweepAllCourses(ctx context.Context) (services.BulkCheckResult, error)
}

// TokenCleaner deletes expired and long-revoked refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context, retention time.Duration) (int64, error)
}

// Config holds the cron specs, with seconds, of each job. An empty spec
// disables that job.
type Config struct {
	AtRiskSweep    string
	TokenCleanup   string
	JobTimeout     time.Duration
	TokenRetention time.Duration
}

// Manager owns the cron runner and the jobs registered on it
type Manager struct {
	cron    *cron.Cron
	cfg     Config
	sweeper RiskSweeper
	tokens  TokenCleaner
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a Manager. tokens may be nil.
func NewManager(cfg Config, sweeper RiskSweeper, tokens TokenCleaner, logger zerolog.Logger) *Manager {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Minute
	}
	if cfg.TokenRetention <= 0 {
		cfg.TokenRetention = 7 * 24 * time.Hour
	}

	cronLogger := cron.PrintfLogger(&logger)
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		cfg:     cfg,
		sweeper: sweeper,
		tokens:  tokens,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the jobs and starts the runner
func (m *Manager) Start() error {
	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info().Int("jobs", len(m.cron.Entries())).Msg("Scheduler started")
	return nil
}

// Stop cancels running jobs and waits for them to return or ctx to expire
func (m *Manager) Stop(ctx context.Context) {
	m.cancel()
	done := m.cron.Stop()
	select {
	case <-done.Done():
		m.logger.Info().Msg("Scheduler stopped")
	case <-ctx.Done():
		m.logger.Warn().Msg("Scheduler stop timed out with jobs still running")
	}
}

func (m *Manager) registerJobs() error {
	if m.cfg.AtRiskSweep != "" && m.sweeper != nil {
		if _, err := m.cron.AddFunc(m.cfg.AtRiskSweep, m.runAtRiskSweep); err != nil {
			return fmt.Errorf("invalid at-risk sweep schedule %q: %w", m.cfg.AtRiskSweep, err)
		}
	}
	if m.cfg.TokenCleanup != "" && m.tokens != nil {
		if _, err := m.cron.AddFunc(m.cfg.TokenCleanup, m.runTokenCleanup); err != nil {
			return fmt.Errorf("invalid token cleanup schedule %q: %w", m.cfg.TokenCleanup, err)
		}
	}
	return nil
}

func (m *Manager) runAtRiskSweep() {
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	log := m.logger.With().Str("job", "at_risk_sweep").Logger()
	log.Info().Msg("Job started")

	result, err := m.sweeper.SweepAllCourses(ctx)
	if err != nil {
		log.Error().Err(err).Int("checked", result.Checked).Int("notified", result.Notified).Msg("Job failed")
		return
	}
	log.Info().
		Int("checked", result.Checked).
		Int("notified", result.Notified).
		Dur("took", time.Since(start)).
		Msg("Job completed")
}

func (m *Manager) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.JobTimeout)
	defer cancel()

	log := m.logger.With().Str("job", "token_cleanup").Logger()
	removed, err := m.tokens.CleanupExpiredTokens(ctx, m.cfg.TokenRetention)
	if err != nil {
		log.Error().Err(err).Msg("Job failed")
		return
	}
	log.Info().Int64("removed", removed).Msg("Job completed")
}
