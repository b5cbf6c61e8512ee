package worker

import (
	"context"
	"time"

	"libris/internal/config"
	"libris/internal/domain"
	"libris/internal/events"
	"libris/internal/metrics"
	"libris/internal/models"

	"github.com/rs/zerolog"
)

// Outcome is how a confirmation poll ended.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeFailed    Outcome = "failed"
	// OutcomeUnknown means the attempt budget ran out while the gateway
	// still reported pending. The caller shows "check back later", not an
	// error, since the transaction may yet settle.
	OutcomeUnknown Outcome = "unknown"
)

// PaymentPoller watches a gateway transaction at a fixed interval with a
// bounded attempt count.
type PaymentPoller struct {
	payments    domain.PaymentAPI
	bus         *events.EventBus
	interval    time.Duration
	maxAttempts int
	retry       RetryPolicy
	logger      zerolog.Logger
}

func NewPaymentPoller(payments domain.PaymentAPI, bus *events.EventBus, cfg config.PollingConfig, logger *zerolog.Logger) *PaymentPoller {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "payment-poller").Logger()
	}

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Duration(models.DefaultPollInterval) * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = models.DefaultPollMaxAttempts
	}

	return &PaymentPoller{
		payments:    payments,
		bus:         bus,
		interval:    interval,
		maxAttempts: maxAttempts,
		retry:       RetryPolicy{MaxRetries: 2, InitialDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, BackoffFactor: 2},
		logger:      base,
	}
}

// Wait polls the transaction until it settles, the attempt budget runs out,
// or the context is cancelled.
func (p *PaymentPoller) Wait(ctx context.Context, tranID string) (Outcome, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		status, err := p.check(ctx, tranID)
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeUnknown, ctx.Err()
			}
			// Transport trouble does not consume the budget's meaning;
			// log and keep polling on schedule.
			p.logger.Warn().Err(err).Str("tran_id", tranID).Int("attempt", attempt).Msg("status check failed")
		} else {
			switch status {
			case models.PaymentPaid:
				p.logger.Info().Str("tran_id", tranID).Int("attempt", attempt).Msg("payment confirmed")
				metrics.IncPoll(string(OutcomeConfirmed))
				_ = p.bus.PublishJSON(events.EventPaymentConfirmed, map[string]string{"tran_id": tranID})
				return OutcomeConfirmed, nil
			case models.PaymentFailed:
				metrics.IncPoll(string(OutcomeFailed))
				return OutcomeFailed, nil
			}
		}

		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return OutcomeUnknown, ctx.Err()
		case <-time.After(p.interval):
		}
	}

	p.logger.Info().Str("tran_id", tranID).Int("attempts", p.maxAttempts).Msg("payment still pending, giving up for now")
	metrics.IncPoll(string(OutcomeUnknown))
	return OutcomeUnknown, nil
}

// check asks for the transaction status, retrying transient failures with
// backoff inside a single poll cycle.
func (p *PaymentPoller) check(ctx context.Context, tranID string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.retry.MaxRetries+1; attempt++ {
		status, err := p.payments.PaymentStatus(ctx, tranID)
		if err == nil {
			return status, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", err
		}
		if attempt <= p.retry.MaxRetries {
			select {
			case <-ctx.Done():
				return "", lastErr
			case <-time.After(p.retry.NextDelay(attempt)):
			}
		}
	}
	return "", lastErr
}
