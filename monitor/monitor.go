// Package monitor periodically checks the remove.bg account balance.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chaos-io/cutout/rembg"
)

const checkTimeout = 15 * time.Second

// AccountFetcher is implemented by rembg.RemoveBG.
type AccountFetcher interface {
	Account(ctx context.Context) (*rembg.Account, error)
}

type AccountMonitor struct {
	fetcher   AccountFetcher
	threshold float64
	logger    *slog.Logger
	cron      *cron.Cron
}

func NewAccountMonitor(fetcher AccountFetcher, threshold float64, logger *slog.Logger) *AccountMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountMonitor{
		fetcher:   fetcher,
		threshold: threshold,
		logger:    logger.With("component", "account-monitor"),
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules Check with a cron spec such as "@every 1h" or "0 * * * *".
func (m *AccountMonitor) Start(spec string) error {
	if _, err := m.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		_, _ = m.Check(ctx)
	}); err != nil {
		return fmt.Errorf("schedule account check %q: %w", spec, err)
	}
	m.cron.Start()
	m.logger.Info("account monitor started", "schedule", spec)
	return nil
}

// Stop waits for a running check to finish.
func (m *AccountMonitor) Stop() {
	<-m.cron.Stop().Done()
}

// Check fetches the account once and logs the balance. It reports whether
// the credits are below the threshold.
func (m *AccountMonitor) Check(ctx context.Context) (low bool, err error) {
	acc, err := m.fetcher.Account(ctx)
	if err != nil {
		m.logger.Error("account check failed", "error", err)
		return false, err
	}

	attrs := []any{
		"credits", acc.TotalCredits,
		"subscription", acc.SubscriptionCredits,
		"payg", acc.PayAsYouGoCredits,
		"free_calls", acc.FreeCalls,
	}
	if acc.TotalCredits < m.threshold && acc.FreeCalls == 0 {
		m.logger.Warn("remove.bg credits running low", append(attrs, "threshold", m.threshold)...)
		return true, nil
	}
	m.logger.Info("remove.bg account", attrs...)
	return false, nil
}
