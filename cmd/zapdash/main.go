package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/zapdash/zapdash/internal/account"
	"github.com/zapdash/zapdash/internal/config"
	"github.com/zapdash/zapdash/internal/identity"
	"github.com/zapdash/zapdash/internal/identity/session"
	"github.com/zapdash/zapdash/internal/instance"
	"github.com/zapdash/zapdash/internal/migration"
	"github.com/zapdash/zapdash/internal/observability"
	"github.com/zapdash/zapdash/internal/organization"
	"github.com/zapdash/zapdash/internal/providers/sessionapi"
	"github.com/zapdash/zapdash/internal/registration"
	"github.com/zapdash/zapdash/internal/server"
	"github.com/zapdash/zapdash/internal/team"
	"github.com/zapdash/zapdash/internal/teardown"
	"github.com/zapdash/zapdash/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Domains
		identity.Module,
		session.Module,
		organization.Module,
		registration.Module,
		team.Module,
		account.Module,
		sessionapi.Module,
		instance.Module,
		teardown.Module,

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
