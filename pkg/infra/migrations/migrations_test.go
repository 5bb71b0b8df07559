package migrations_test

import (
	"testing"

	"github.com/smartcache/smartcache/pkg/infra/database"
	_ "github.com/smartcache/smartcache/pkg/infra/migrations"
	"github.com/stretchr/testify/assert"
)

func TestMigrationsAreRegistered(t *testing.T) {
	assert.Panics(t, func() {
		database.RegisterMigration(database.Migration{ID: "20250101_create_cache_logs"})
	}, "cache_logs migration should already be registered")
	assert.Panics(t, func() {
		database.RegisterMigration(database.Migration{ID: "20250102_add_cache_logs_action_check"})
	})
}
