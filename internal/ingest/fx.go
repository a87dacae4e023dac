package ingest

import (
	"github.com/smallbiznis/amber/internal/ingest/events"
	"github.com/smallbiznis/amber/internal/ingest/repository"
	"github.com/smallbiznis/amber/internal/ingest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ingest.service",
	fx.Provide(
		repository.New,
		service.NewUploadLock,
		events.NewPublisher,
		service.NewService,
	),
)
