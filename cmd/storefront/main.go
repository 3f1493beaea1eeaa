package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/cache"
	"github.com/smallbiznis/confeitaria/internal/clock"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/migration"
	"github.com/smallbiznis/confeitaria/internal/observability"
	"github.com/smallbiznis/confeitaria/internal/seed"
	"github.com/smallbiznis/confeitaria/internal/server"
	"github.com/smallbiznis/confeitaria/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		migration.Module,

		// HTTP surface and every domain behind it
		server.Module,

		// Runs on start, after the schema is in place.
		seed.Module,
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
