package usecase

import (
	"go.uber.org/fx"

	"github.com/medcart/medcart/internal/config"
	"github.com/medcart/medcart/internal/domain/repository"
	"github.com/medcart/medcart/internal/storage/files"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(NewAuthUseCase),
	fx.Provide(newOrderUseCase),
)

type orderParams struct {
	fx.In

	Orders        repository.OrderRepository
	Prescriptions repository.PrescriptionRepository
	Dispatches    repository.DispatchRepository
	Files         *files.Store
	Config        *config.Config
}

func newOrderUseCase(p orderParams) *OrderUseCase {
	return NewOrderUseCase(p.Orders, p.Prescriptions, p.Dispatches, p.Files, OrderOptions{
		DeliveryFee:      p.Config.DeliveryFee,
		VerifyRetryAfter: p.Config.VerifyRetryAfter,
	})
}
