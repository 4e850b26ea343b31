package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maktab/internal/clock"
	"github.com/smallbiznis/maktab/internal/config"
	"github.com/smallbiznis/maktab/internal/migration"
	"github.com/smallbiznis/maktab/internal/server"
	"github.com/smallbiznis/maktab/pkg/db"
	"github.com/smallbiznis/maktab/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface; the feature modules ride along with it.
		server.Module,
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
