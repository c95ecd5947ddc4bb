package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/medcart/medcart/internal/domain/model"
)

// Notifier delivers one fulfillment request to one pharmacy.
type Notifier interface {
	Notify(ctx context.Context, orderID string, match model.PharmacyMatch) error
}

// Dispatcher fans an order out to matched pharmacies. Each pharmacy is
// notified independently; one failure never blocks the others, and the order
// state is never rolled back on partial failure.
type Dispatcher struct {
	notifier       Notifier
	maxAttempts    int
	backoff        time.Duration
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// NewDispatcher constructs a dispatcher with bounded retries per pharmacy.
func NewDispatcher(notifier Notifier, maxAttempts int, backoff time.Duration, logger *slog.Logger) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Dispatcher{
		notifier:       notifier,
		maxAttempts:    maxAttempts,
		backoff:        backoff,
		attemptTimeout: 10 * time.Second,
		logger:         logger,
	}
}

// Dispatch notifies every pharmacy concurrently and blocks until each one has
// reached a terminal outcome: acknowledged, or attempts exhausted.
func (d *Dispatcher) Dispatch(ctx context.Context, orderID string, matches []model.PharmacyMatch) model.DispatchReport {
	report := model.DispatchReport{OrderID: orderID, Outcomes: make([]model.DispatchOutcome, len(matches))}

	var wg sync.WaitGroup
	for i, match := range matches {
		wg.Add(1)
		go func(i int, match model.PharmacyMatch) {
			defer wg.Done()
			report.Outcomes[i] = d.notifyWithRetry(ctx, orderID, match)
		}(i, match)
	}
	wg.Wait()

	for _, o := range report.Failed() {
		d.logger.Warn("pharmacy notification failed",
			slog.String("order", orderID),
			slog.String("pharmacy", o.PharmacyID),
			slog.Int("attempts", o.Attempts),
			slog.String("reason", o.Reason),
		)
	}
	return report
}

func (d *Dispatcher) notifyWithRetry(ctx context.Context, orderID string, match model.PharmacyMatch) model.DispatchOutcome {
	outcome := model.DispatchOutcome{PharmacyID: match.PharmacyID, PharmacyName: match.Name}

	backoff := d.backoff
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		outcome.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
		err := d.notifier.Notify(attemptCtx, orderID, match)
		cancel()

		if err == nil {
			outcome.Succeeded = true
			outcome.Reason = ""
			return outcome
		}
		outcome.Reason = err.Error()

		if attempt == d.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			outcome.Reason = ctx.Err().Error()
			return outcome
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return outcome
}
