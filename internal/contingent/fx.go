package contingent

import (
	"github.com/wordbridge/linguameter/internal/contingent/repository"
	"github.com/wordbridge/linguameter/internal/contingent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contingent",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
