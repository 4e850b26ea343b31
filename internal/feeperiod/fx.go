package feeperiod

import (
	"github.com/smallbiznis/maktab/internal/feeperiod/repository"
	"github.com/smallbiznis/maktab/internal/feeperiod/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feeperiod.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
