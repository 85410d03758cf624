package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recipeapi/internal/config"
	"recipeapi/internal/model"
)

// Open returns a connected GORM DB instance for the configured driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(os.Stdout),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// sqlite serializes writers; one connection keeps transactions and
		// in-memory databases consistent.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// WaitForDB pings the database until it answers or attempts run out.
func WaitForDB(ctx context.Context, db *gorm.DB, attempts int, interval time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if lastErr = sqlDB.PingContext(ctx); lastErr == nil {
			slog.Info("database available", slog.Int("attempt", i))
			return nil
		}
		slog.Warn("database unavailable, waiting", slog.Int("attempt", i), slog.Any("error", lastErr))
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("database not available after %d attempts: %w", attempts, lastErr)
}

// Reset drops every application table, join tables included.
func Reset(db *gorm.DB) error {
	tables := []interface{}{"recipe_tags", "recipe_ingredients", &model.Recipe{}, &model.Tag{}, &model.Ingredient{}, &model.User{}}
	for _, table := range tables {
		if err := db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	for _, stmt := range labelCollationDDL(db.Dialector.Name()) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("set label collation: %w", err)
		}
	}
	return nil
}

// labelCollationDDL returns the statements that make tag and ingredient names
// compare case-sensitively. MySQL's default utf8mb4 collation folds case, so
// "Vegan" and "vegan" would collide on the per-owner unique index.
func labelCollationDDL(dialect string) []string {
	if dialect != config.DriverMySQL {
		return nil
	}
	var out []string
	for _, table := range []string{"tags", "ingredients"} {
		out = append(out, "ALTER TABLE "+table+" MODIFY name VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL")
	}
	return out
}

// newLogger logs slow queries and errors. A missing row is an expected
// outcome of lookups such as FindByEmail and is not logged.
func newLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
