package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
)

// PharmacyFacade exposes the subset of application functionality required by the worker.
type PharmacyFacade interface {
	OrdersForVerification(ctx context.Context, limit int) ([]model.Order, error)
	ActivePrescription(ctx context.Context, orderID string) (*model.PrescriptionAsset, error)
	OpenDocument(path string) (io.ReadCloser, error)
	VerifyDocument(ctx context.Context, filename, contentType string, document io.Reader) (*model.VerificationResult, error)
	CompleteVerification(ctx context.Context, orderID string, assetID int64, valid bool, reason string) error
	MatchPharmacies(ctx context.Context, order model.Order) ([]model.PharmacyMatch, error)
	NotifyPharmacies(ctx context.Context, orderID string, matches []model.PharmacyMatch) (model.DispatchReport, error)
}

// VerificationProcessor polls for uploaded prescriptions and drives them
// through verification concurrently. Matching and pharmacy notification run
// here too, off the request path.
type VerificationProcessor struct {
	facade       PharmacyFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewVerificationProcessor constructs the verification worker pool.
func NewVerificationProcessor(facade PharmacyFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *VerificationProcessor {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &VerificationProcessor{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background processing.
func (p *VerificationProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *VerificationProcessor) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *VerificationProcessor) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *VerificationProcessor) fetchAndDispatch(ctx context.Context) {
	orders, err := p.facade.OrdersForVerification(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("claim orders for verification failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *VerificationProcessor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleOrder(ctx, order)
		}
	}
}

// handleOrder verifies one claimed order. Any failure before the verdict is
// recorded leaves the order in verifying, so the next poll re-claims it once
// the retry window passes.
func (p *VerificationProcessor) handleOrder(ctx context.Context, order model.Order) {
	asset, err := p.facade.ActivePrescription(ctx, order.ID)
	if err != nil {
		p.logger.Error("load prescription asset failed", slog.String("order", order.ID), slog.String("error", err.Error()))
		return
	}

	document, err := p.facade.OpenDocument(asset.FilePath)
	if err != nil {
		p.logger.Error("open prescription document failed", slog.String("order", order.ID), slog.String("error", err.Error()))
		return
	}

	result, err := p.facade.VerifyDocument(ctx, filepath.Base(asset.FilePath), asset.ContentType, document)
	document.Close()
	if err != nil {
		if errors.Is(err, domainErrors.ErrVerificationUnavailable) {
			p.logger.Warn("verifier unavailable, order stays in verifying", slog.String("order", order.ID))
			return
		}
		p.logger.Error("verification failed", slog.String("order", order.ID), slog.String("error", err.Error()))
		return
	}

	if err := p.facade.CompleteVerification(ctx, order.ID, asset.ID, result.Valid, result.Reason); err != nil {
		if errors.Is(err, domainErrors.ErrStateConflict) {
			// Expected when a cancellation or duplicate completion won the race.
			p.logger.Info("verification result superseded", slog.String("order", order.ID))
			return
		}
		p.logger.Error("record verification verdict failed", slog.String("order", order.ID), slog.String("error", err.Error()))
		return
	}

	if !result.Valid {
		return
	}

	matches, err := p.facade.MatchPharmacies(ctx, order)
	if err != nil {
		p.logger.Error("pharmacy match failed", slog.String("order", order.ID), slog.String("error", err.Error()))
		return
	}
	if len(matches) == 0 {
		p.logger.Info("no pharmacy can serve order", slog.String("order", order.ID))
		return
	}

	report, err := p.facade.NotifyPharmacies(ctx, order.ID, matches)
	if err != nil {
		p.logger.Error("record dispatch report failed", slog.String("order", order.ID), slog.String("error", err.Error()))
		return
	}
	p.logger.Info("pharmacies notified",
		slog.String("order", order.ID),
		slog.Int("succeeded", len(report.Succeeded())),
		slog.Int("failed", len(report.Failed())),
	)
}
