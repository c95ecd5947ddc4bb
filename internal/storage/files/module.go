package files

import (
	"go.uber.org/fx"

	"github.com/medcart/medcart/internal/config"
)

// Module wires the local prescription file store.
var Module = fx.Provide(newStore)

type storeParams struct {
	fx.In

	Config *config.Config
}

func newStore(p storeParams) (*Store, error) {
	return New(p.Config.PrescriptionDir)
}
