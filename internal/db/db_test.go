package db

import (
	"testing"

	"nutriplan/internal/config"
	"nutriplan/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestInitializeRequiresURL(t *testing.T) {
	t.Parallel()

	db, err := Initialize(config.DatabaseConfig{URL: ""})
	if err == nil {
		t.Fatal("expected error when database URL is empty")
	}
	if db != nil {
		t.Fatal("expected returned db handle to be nil on error")
	}
}

func TestInitializeRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Initialize(config.DatabaseConfig{Driver: "oracle", URL: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestAutoMigrateRejectsNilDatabase(t *testing.T) {
	t.Parallel()

	if err := AutoMigrate(nil); err == nil {
		t.Fatal("expected error when database handle is nil")
	}
}

func TestAutoMigrateWithSQLite(t *testing.T) {
	t.Parallel()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	sqliteDB, err := gorm.Open(sqlite.Open(dsn), GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}

	if err := AutoMigrate(sqliteDB); err != nil {
		t.Fatalf("automigrate sqlite database: %v", err)
	}

	for _, model := range models.All() {
		if !sqliteDB.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T", model)
		}
	}
}

func TestConfigureWithSQLiteDriver(t *testing.T) {
	database, err := Configure(config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		URL:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	t.Cleanup(func() { DB = nil })

	if Get() != database {
		t.Fatal("expected Get to return the configured handle")
	}
}

func TestConfigurePropagatesInitializationError(t *testing.T) {
	t.Parallel()

	if _, err := Configure(config.DatabaseConfig{}); err == nil {
		t.Fatal("expected configuration error when initialize fails")
	}
}

func TestMustConfigurePanicsOnError(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when configuration fails")
		}
	}()

	MustConfigure(config.DatabaseConfig{})
}
