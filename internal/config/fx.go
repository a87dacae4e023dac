package config

import (
	"github.com/smallbiznis/amber/pkg/db"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewRulesHolder,
		func(cfg Config) db.Config { return cfg.Database },
	),
)
