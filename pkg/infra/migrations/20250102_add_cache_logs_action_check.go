package migrations

import (
	"github.com/smartcache/smartcache/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250102_add_cache_logs_action_check",
		Name: "Restrict cache_logs.action to SET and GET",

		Up: func(db *gorm.DB) error {
			return db.Exec(`
				DO $$
				BEGIN
					IF NOT EXISTS (
						SELECT 1 FROM pg_constraint WHERE conname = 'chk_cache_logs_action'
					) THEN
						ALTER TABLE cache_logs
						ADD CONSTRAINT chk_cache_logs_action CHECK (action IN ('SET', 'GET'));
					END IF;
				END $$;
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`ALTER TABLE cache_logs DROP CONSTRAINT IF EXISTS chk_cache_logs_action;`).Error
		},
	})
}
