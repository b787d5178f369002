package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/citypages/billing/internal/app/api/server"
	"github.com/citypages/billing/internal/app/service/checkout"
	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/app/service/eventlog"
	"github.com/citypages/billing/internal/app/service/reconcile"
	"github.com/citypages/billing/internal/app/service/statistics"
	"github.com/citypages/billing/internal/platform/db"
	"github.com/citypages/billing/internal/platform/payments"
	"github.com/citypages/billing/pkg/config"
	"github.com/citypages/billing/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	payments.Module,
	entitlement.Module,
	eventlog.Module,
	reconcile.Module,
	checkout.Module,
	statistics.Module,
)
