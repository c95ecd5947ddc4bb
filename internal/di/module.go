package di

import (
	"go.uber.org/fx"

	"github.com/medcart/medcart/internal/adapter/pharmacy"
	"github.com/medcart/medcart/internal/adapter/verifier"
	"github.com/medcart/medcart/internal/app"
	"github.com/medcart/medcart/internal/config"
	"github.com/medcart/medcart/internal/dispatch"
	"github.com/medcart/medcart/internal/logger"
	"github.com/medcart/medcart/internal/pkg/auth"
	"github.com/medcart/medcart/internal/server/http/handlers"
	"github.com/medcart/medcart/internal/server/http/router"
	"github.com/medcart/medcart/internal/storage/files"
	"github.com/medcart/medcart/internal/storage/postgres"
	"github.com/medcart/medcart/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		files.Module,
		verifier.Module,
		pharmacy.Module,
		dispatch.Module,
		usecase.Module,
		fx.Provide(func(client verifier.Client) app.VerifierProvider { return client }),
		fx.Provide(func(client pharmacy.Client) app.MatcherProvider { return client }),
		fx.Provide(func(facade *app.PharmacyFacade) handlers.PharmacyFacade { return facade }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
