package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"conti/internal/core"
	"conti/internal/exchange"
	"conti/internal/log"
	"conti/internal/storage"
)

func dbCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "db",
		Short:       "Back up, restore and inspect the SQLite database",
		Annotations: map[string]string{annotationNoStore: "true"},
	}

	cmd.AddCommand(dbBackupCmd(s))
	cmd.AddCommand(dbRestoreCmd(s))
	cmd.AddCommand(dbVersionCmd(s))

	return cmd
}

func (s *session) sqlitePath() (string, error) {
	if s.cfg == nil || s.cfg.DataBackend != "sqlite" {
		return "", core.Invalid(errors.New("database commands require the sqlite backend"))
	}
	return s.cfg.SQLiteDBPath, nil
}

func nowFor(s *session) time.Time {
	if s.app != nil && s.app.Now != nil {
		return s.app.Now()
	}
	return time.Now()
}

func dbBackupCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [dst]",
		Short: "Copy the database file (default conti_backup_<timestamp>.db)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := s.sqlitePath()
			if err != nil {
				return err
			}
			dst := exchange.BackupName(nowFor(s))
			if len(args) == 1 {
				dst = args[0]
			}
			if err := exchange.Backup(dbPath, dst); err != nil {
				return err
			}
			s.logger.WithComponent(log.ComponentStorage).InfoContext(cmd.Context(), "Database backed up",
				log.NewFields().WithOperation(log.OpBackup).WithPath(dst).ToSlice()...)
			printSuccess(cmd.OutOrStdout(), "Backed up %s to %s", dbPath, dst)
			return nil
		},
	}
}

func dbRestoreCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <src>",
		Short: "Replace the database with a backup and migrate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := s.sqlitePath()
			if err != nil {
				return err
			}
			if err := exchange.Restore(args[0], dbPath); err != nil {
				return err
			}
			if err := storage.RunMigrations(dbPath); err != nil {
				return fmt.Errorf("migrate restored database: %w", err)
			}
			s.logger.WithComponent(log.ComponentStorage).InfoContext(cmd.Context(), "Database restored",
				log.NewFields().WithOperation(log.OpRestore).WithPath(args[0]).ToSlice()...)
			printSuccess(cmd.OutOrStdout(), "Restored %s from %s", dbPath, args[0])
			return nil
		},
	}
}

func dbVersionCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the applied schema migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath, err := s.sqlitePath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(dbPath); err != nil {
				return core.Invalid(fmt.Errorf("database %s: %w", dbPath, err))
			}
			version, dirty, err := storage.SchemaVersion(dbPath)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("Schema version %d", version)
			if dirty {
				printWarning(cmd.OutOrStdout(), "%s (dirty)", msg)
				return nil
			}
			printInfo(cmd.OutOrStdout(), "%s", msg)
			return nil
		},
	}
}
