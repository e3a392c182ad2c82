package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/BradenHooton/realmadmin/internal/config"
	"github.com/BradenHooton/realmadmin/internal/database"
	"github.com/BradenHooton/realmadmin/internal/repositories"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func connect(ctx context.Context) (*database.DB, error) {
	cfg := config.LoadDatabase()
	db, err := database.NewConnection(ctx, &cfg, newLogger())
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to the directory database")
	}
	return db, nil
}

func migrate(c *cli.Context) error {
	if len(c.Args()) != 0 {
		return errors.New("migrate requires no arguments")
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration(flagTimeout))
	defer cancel()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return errors.Wrap(err, "error applying migrations")
	}

	fmt.Println("Migrations applied.")
	return nil
}

func seed(c *cli.Context) error {
	if len(c.Args()) != 1 {
		return errors.New("seed requires one argument, the fixture file")
	}
	path := c.Args().First()

	fixture, err := repositories.LoadFixture(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration(flagTimeout))
	defer cancel()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool(flagMigrate) {
		if err := db.Migrate(ctx); err != nil {
			return errors.Wrap(err, "error applying migrations")
		}
	}

	if err := repositories.Seed(ctx, db, fixture); err != nil {
		return errors.Wrapf(err, "error seeding %s", path)
	}

	users := 0
	for _, realm := range fixture.Realms {
		users += len(realm.Users)
	}
	fmt.Printf("Seeded %d realm(s) and %d user(s) from %s.\n", len(fixture.Realms), users, path)
	return nil
}
