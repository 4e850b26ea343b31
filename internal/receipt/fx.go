package receipt

import (
	"github.com/smallbiznis/maktab/internal/receipt/repository"
	"github.com/smallbiznis/maktab/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
