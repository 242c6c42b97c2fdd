package db

import (
	"testing"

	"rental_system/internal/config"
	"rental_system/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBName: "rent"}
	assert.Equal(t, "u:p@tcp(h:3306)/rent?parseTime=true", DSN(cfg))

	cfg.DBDriver = "postgres"
	assert.Equal(t, "host=h user=u password=p dbname=rent port=5432 sslmode=disable", DSN(cfg))

	cfg.DBDriver = "sqlite"
	cfg.SQLitePath = "dev.db"
	assert.Equal(t, "dev.db", DSN(cfg))

	cfg.DBDSN = "override"
	assert.Equal(t, "override", DSN(cfg))
}

func TestDialector_Unsupported(t *testing.T) {
	_, err := Dialector("oracle", "x")
	assert.Error(t, err)
}

func TestMigrate_CreatesLeaseUniquenessIndexes(t *testing.T) {
	gdb, err := OpenDialector(sqlite.Open(":memory:"))
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	m := gdb.Migrator()
	for _, model := range []any{&domain.User{}, &domain.Property{}, &domain.Lease{}, &domain.Payment{}} {
		assert.True(t, m.HasTable(model))
	}
	assert.True(t, m.HasIndex(&domain.Lease{}, "ActivePropertyID"))
	assert.True(t, m.HasIndex(&domain.Lease{}, "OpenTenantID"))
	assert.True(t, m.HasIndex(&domain.User{}, "Email"))
	assert.True(t, m.HasIndex(&domain.Payment{}, "SettledReference"))
}
