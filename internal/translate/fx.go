package translate

import (
	"github.com/wordbridge/linguameter/internal/translate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("translate",
	fx.Provide(service.NewService),
)
