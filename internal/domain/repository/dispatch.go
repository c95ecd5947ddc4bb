package repository

import (
	"context"

	"github.com/medcart/medcart/internal/domain/model"
)

// DispatchRepository persists pharmacy notification outcomes so the result of
// the asynchronous fan-out is observable through status queries.
type DispatchRepository interface {
	Record(ctx context.Context, report model.DispatchReport) error
	ListByOrder(ctx context.Context, orderID string) ([]model.DispatchOutcome, error)
}
