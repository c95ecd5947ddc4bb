package dispatch

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/medcart/medcart/internal/adapter/pharmacy"
	"github.com/medcart/medcart/internal/config"
)

// Module wires the notification dispatcher.
var Module = fx.Provide(newDispatcher)

type dispatcherParams struct {
	fx.In

	Client pharmacy.Client
	Config *config.Config
	Logger *slog.Logger
}

func newDispatcher(p dispatcherParams) *Dispatcher {
	return NewDispatcher(p.Client, p.Config.DispatchMaxAttempts, p.Config.DispatchBackoff, p.Logger)
}
