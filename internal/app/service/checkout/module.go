package checkout

import (
	"go.uber.org/fx"

	"github.com/citypages/billing/internal/app/service/entitlement"
)

var Module = fx.Options(
	fx.Provide(
		func(s *entitlement.Service) Store { return s },
		NewService,
	),
)
