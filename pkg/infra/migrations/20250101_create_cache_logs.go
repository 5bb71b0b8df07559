package migrations

import (
	"github.com/smartcache/smartcache/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250101_create_cache_logs",
		Name: "Create cache_logs table for access events",

		Up: func(db *gorm.DB) error {
			// composite key, timescale requires the partition column in every unique index
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS cache_logs (
					resource_id TEXT NOT NULL,
					action      TEXT NOT NULL,
					hit         BOOLEAN NOT NULL,
					timestamp   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					id          BIGSERIAL,
					PRIMARY KEY (resource_id, timestamp)
				);
			`).Error; err != nil {
				return err
			}

			var hasTimescale bool
			if err := db.Raw(
				`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')`,
			).Scan(&hasTimescale).Error; err != nil {
				return err
			}
			if hasTimescale {
				if err := db.Exec(
					`SELECT create_hypertable('cache_logs', 'timestamp', if_not_exists => TRUE);`,
				).Error; err != nil {
					return err
				}
			}

			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_cache_logs_res_ts
				ON cache_logs (resource_id, timestamp DESC);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS cache_logs;`).Error
		},
	})
}
