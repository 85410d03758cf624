package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"recipeapi/internal/config"
	"recipeapi/internal/db"
	"recipeapi/internal/logging"
	"recipeapi/internal/repository"
	"recipeapi/internal/service"
)

const usage = `usage: admin <command> [flags]

commands:
  wait-for-db       block until the database accepts connections
  createsuperuser   create a staff superuser (-email, -password, -name)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))

	ctx := context.Background()
	switch os.Args[1] {
	case "wait-for-db":
		err = waitForDB(ctx, cfg)
	case "createsuperuser":
		err = createSuperuser(ctx, cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(os.Args[1]+" failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func waitForDB(ctx context.Context, cfg *config.Config) error {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	return db.WaitForDB(ctx, gormDB, cfg.DBWaitAttempts, cfg.DBWaitInterval)
}

func createSuperuser(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	email := fs.String("email", "", "superuser email")
	password := fs.String("password", "", "superuser password")
	name := fs.String("name", "Admin", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := db.WaitForDB(ctx, gormDB, cfg.DBWaitAttempts, cfg.DBWaitInterval); err != nil {
		return err
	}
	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	users := service.NewUserService(repository.NewUserRepository(gormDB), nil)
	user, err := users.CreateSuperuser(ctx, service.CreateUserInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
	})
	if err != nil {
		return err
	}
	slog.Info("superuser created", slog.Uint64("user_id", uint64(user.ID)), slog.String("email", user.Email))
	return nil
}
