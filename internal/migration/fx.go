package migration

import (
	"github.com/zapdash/zapdash/internal/config"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	instancedomain "github.com/zapdash/zapdash/internal/instance/domain"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// Versioned SQL migrations target postgres; other dialects (mysql,
		// sqlite in development) get the schema from the models directly.
		return conn.AutoMigrate(
			&identitydomain.User{},
			&identitydomain.Session{},
			&orgdomain.Organization{},
			&orgdomain.Profile{},
			&instancedomain.Instance{},
		)
	}),
)
