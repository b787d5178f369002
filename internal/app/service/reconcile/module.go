package reconcile

import (
	"go.uber.org/fx"

	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/app/service/eventlog"
)

// Module wires the dispatcher against the concrete store and journal.
var Module = fx.Options(
	fx.Provide(
		func(s *entitlement.Service) Store { return s },
		func(s *eventlog.Service) Journal { return s },
		NewDispatcher,
	),
)
