package identity

import (
	"github.com/wordbridge/linguameter/internal/identity/repository"
	"github.com/wordbridge/linguameter/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
