package repository

import (
	"context"

	"github.com/medcart/medcart/internal/domain/model"
)

// PrescriptionRepository persists uploaded prescription documents and their
// verification verdicts.
type PrescriptionRepository interface {
	// Attach stores a new active asset and moves the order to
	// prescription_uploaded via compare-and-swap from the expected status.
	// A previously active asset is kept but deactivated.
	Attach(ctx context.Context, orderID string, expected model.OrderStatus, asset *model.PrescriptionAsset) error
	Active(ctx context.Context, orderID string) (*model.PrescriptionAsset, error)
	// CompleteVerification records the verdict on the asset and moves the
	// order from verifying to verified or rejected in one transaction.
	CompleteVerification(ctx context.Context, orderID string, assetID int64, valid bool, reason string) error
}
