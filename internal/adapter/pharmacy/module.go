package pharmacy

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/medcart/medcart/internal/config"
)

// Module wires the pharmacy directory client.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.PharmacyAddress, p.Logger)
}
