package verifier

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/medcart/medcart/internal/config"
)

// Module wires the verification service client.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.VerifierAddress, p.Logger)
}
