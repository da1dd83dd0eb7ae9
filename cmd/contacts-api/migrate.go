package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/baechuer/contacts-api/internal/config"
	"github.com/baechuer/contacts-api/internal/infrastructure/db/postgres"
)

// seams for tests
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return config.NewDB(dsn, false, zerolog.Nop())
	}
	runMigrations = postgres.Migrate
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate [up|down|status|version|reset] [args...]",
		Short: "Run database migrations",
		Long: `Run goose migrations against the PostgreSQL database.
The DSN comes from --dsn or DB_ADDR. The default command is "up".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, dsn, args)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres DSN (defaults to DB_ADDR)")

	return cmd
}

func runMigrate(cmd *cobra.Command, dsn string, args []string) error {
	_ = godotenv.Load()
	if dsn == "" {
		dsn = os.Getenv("DB_ADDR")
	}
	if dsn == "" {
		return fmt.Errorf("migrate: --dsn or DB_ADDR is required")
	}

	command := "up"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("migrate: connect: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	cmd.Printf("Running migrations (%s)...\n", command)
	if err := runMigrations(ctx, db, command, args...); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}
