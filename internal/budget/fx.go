package budget

import (
	"github.com/smallbiznis/amber/internal/budget/repository"
	"github.com/smallbiznis/amber/internal/budget/service"
	"go.uber.org/fx"
)

var Module = fx.Module("budget.service",
	fx.Provide(
		repository.New,
		service.NewService,
	),
)
