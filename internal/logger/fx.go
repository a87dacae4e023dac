package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func registerHooks(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}

// Module wires the CLI logger. The Level must be supplied by the caller.
var Module = fx.Module("logger",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
