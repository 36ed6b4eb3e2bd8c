// Package cli holds the chorechart cobra commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorechart/internal/account"
	"github.com/dukerupert/chorechart/internal/config"
	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/logging"
	"github.com/dukerupert/chorechart/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "chorechart",
		Short:         "Household chores, points and rewards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default "+config.DefaultPath+" if present)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	return cmd
}

// app is what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	logger *slog.Logger
	close  func()
}

// bootstrap loads config, sets up logging, opens and migrates the database
// and seeds it when configured to.
func bootstrap(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog := logging.Setup(cfg.Log, cmd.ErrOrStderr())
	for _, w := range cfg.Warnings {
		logger.Warn("config", "problem", w)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		closeLog()
		return nil, err
	}

	if cfg.Seed {
		if err := seed(ctx, db); err != nil {
			db.Close()
			closeLog()
			return nil, err
		}
	}

	return &app{
		cfg:    cfg,
		db:     db,
		logger: logger,
		close: func() {
			db.Close()
			closeLog()
		},
	}, nil
}

func seed(ctx context.Context, db *sql.DB) error {
	hash, err := account.HashPIN(store.DefaultAdminPIN)
	if err != nil {
		return fmt.Errorf("hash default PIN: %w", err)
	}
	return store.WithTx(ctx, db, func(tx *sql.Tx) error {
		return store.Seed(ctx, tx, hash)
	})
}
