package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/wordbridge/linguameter/internal/clock"
	"github.com/wordbridge/linguameter/internal/config"
	"github.com/wordbridge/linguameter/internal/contingent"
	"github.com/wordbridge/linguameter/internal/docstore"
	"github.com/wordbridge/linguameter/internal/identity"
	"github.com/wordbridge/linguameter/internal/observability"
	"github.com/wordbridge/linguameter/internal/period"
	"github.com/wordbridge/linguameter/internal/scheduler"
	"github.com/wordbridge/linguameter/internal/server"
	"github.com/wordbridge/linguameter/internal/translate"
	"github.com/wordbridge/linguameter/internal/translator"
	"github.com/wordbridge/linguameter/internal/usage"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		period.Module,
		docstore.Module,

		contingent.Module,
		usage.Module,
		identity.Module,
		translator.Module,
		translate.Module,
		scheduler.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
			s.RegisterAdminRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
