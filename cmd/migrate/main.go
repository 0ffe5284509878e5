package main

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/segmenter/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "SEGMENTER_DB_DSN"

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the segmenter database schema",
	Long: `migrate runs the embedded schema migrations. The connection string comes
from --dsn, then SEGMENTER_DB_DSN, then the [database] section of config.toml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("dsn", "", "postgres:// connection string")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log each applied migration")

	rootCmd.AddCommand(
		stepCommand("up", "Apply pending migrations, or only N", (*migrate.Migrate).Up, 1),
		stepCommand("down", "Revert all migrations, or only N", (*migrate.Migrate).Down, -1),
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
				v, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "version: none")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", v, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("version: %w", err)
				}
				if err := m.Force(v); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "forced to version %d\n", v)
				return nil
			}),
		},
	)
}

// stepCommand runs all migrations in one direction, or N steps when an
// argument is given. sign orients N for Steps.
func stepCommand(use, short string, all func(*migrate.Migrate) error, sign int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [N]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
			var err error
			if len(args) == 0 {
				err = all(m)
			} else {
				n, convErr := strconv.Atoi(args[0])
				if convErr != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer: %q", args[0])
				}
				err = m.Steps(sign * n)
			}

			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Fprintln(cmd.OutOrStdout(), "no change")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s complete\n", use)
			return nil
		}),
	}
}

func withMigrator(run func(*cobra.Command, *migrate.Migrate, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(cmd)
		if err != nil {
			return err
		}

		source, err := iofs.New(migrations, "migrations")
		if err != nil {
			return fmt.Errorf("migration source: %w", err)
		}

		m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
		if err != nil {
			return fmt.Errorf("migrator: %w", err)
		}
		defer m.Close()

		verbose, _ := cmd.Flags().GetBool("verbose")
		m.Log = &migrateLog{logger: newLogger(cmd, verbose), verbose: verbose}

		return run(cmd, m, args)
	}
}

func resolveDSN(cmd *cobra.Command) (string, error) {
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		return dsn, nil
	}
	if dsn := os.Getenv(envDSN); dsn != "" {
		return dsn, nil
	}

	db, err := config.LoadDatabase()
	if err != nil {
		return "", fmt.Errorf("no --dsn or %s, and %w", envDSN, err)
	}
	return db.URL(), nil
}

func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	return slog.New(charmlog.NewWithOptions(cmd.ErrOrStderr(), charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	}))
}

// migrateLog routes migrate's printf logging into slog.
type migrateLog struct {
	logger  *slog.Logger
	verbose bool
}

func (l *migrateLog) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLog) Verbose() bool { return l.verbose }

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
