// Package cmd provides command-line interface functionality for the esmconvert application.
/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"time"

	"esmconvert/internal/adapter/outbound/repository"
	"esmconvert/internal/application/common/slogger"

	"github.com/spf13/cobra"
)

const migrateTimeout = 30 * time.Second

// newMigrateCmd creates and returns the migrate command.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Run database migrations to set up or update the database schema.

This command creates the esmconvert schema and the conversion job table with
its indexes. Statements are idempotent, so re-running against an up-to-date
database is a no-op.

Configuration for database connection is loaded from config files and environment variables.`,
		Run: func(_ *cobra.Command, _ []string) {
			runMigrations()
		},
	}
}

// runMigrations applies the schema and exits non-zero on failure.
func runMigrations() {
	cfg := GetConfig()

	dbPool, err := setupDatabaseConnection(cfg)
	if err != nil {
		slogger.ErrorNoCtx("Failed to create database connection pool", slogger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer dbPool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := repository.Migrate(ctx, dbPool); err != nil {
		slogger.ErrorNoCtx("Database migration failed", slogger.Fields{"error": err.Error()})
		os.Exit(1)
	}

	slogger.InfoNoCtx("Database schema is up to date", slogger.Fields{
		"database": cfg.Database.Name,
	})
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newMigrateCmd())

	// Here you will define your flags and configuration settings.

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands, e.g.:
	// migrateCmd.PersistentFlags().String("foo", "", "A help for foo")

	// Cobra supports local flags which will only run when this command
	// is called directly, e.g.:
	// migrateCmd.Flags().BoolP("toggle", "t", false, "Help message for toggle")
}
