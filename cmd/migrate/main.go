package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ogurasousui/codex-timesheet-api/internal/platform/config"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/logging"
)

const seedsTable = "schema_seeds"

var (
	configPath    string
	migrationsDir string
	seedsDir      string
	downSteps     int

	log = logging.New(config.LogConfig{Level: "info", Format: "console"}, "migrate")
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Apply timesheet database schema migrations and seeds",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(migrationsDir, "", func(m *migrate.Migrate) error {
			return ignoreNoChange(m.Up())
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back schema migrations (all of them unless --steps is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(migrationsDir, "", func(m *migrate.Migrate) error {
			if downSteps > 0 {
				return ignoreNoChange(m.Steps(-downSteps))
			}
			return ignoreNoChange(m.Down())
		})
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(migrationsDir, "", func(m *migrate.Migrate) error {
			return m.Drop()
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(migrationsDir, "", func(m *migrate.Migrate) error {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Info().Msg("no migration applied")
				return nil
			}
			if err != nil {
				return err
			}
			log.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert reference data such as the role catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(seedsDir, seedsTable, func(m *migrate.Migrate) error {
			return ignoreNoChange(m.Up())
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "assets/migrations", "directory containing migration files")
	rootCmd.PersistentFlags().StringVar(&seedsDir, "seeds-dir", "assets/seeds", "directory containing seed files")
	downCmd.Flags().IntVar(&downSteps, "steps", 0, "number of migrations to roll back")

	rootCmd.AddCommand(upCmd, downCmd, dropCmd, versionCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

// withMigrator は dir を参照する migrate インスタンスを生成して fn を実行します。
// table を指定した場合は既定とは別の管理テーブルでバージョンを記録します。
func withMigrator(dir, table string, fn func(*migrate.Migrate) error) error {
	cfgPath := effectiveConfigPath(configPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	sourceURL, err := fileSourceURL(dir)
	if err != nil {
		return err
	}

	m, err := migrate.New(sourceURL, databaseURL(cfg.Database.DSN(), table))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrateLogger{log: log}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("failed to close migrator")
		}
	}()

	if err := fn(m); err != nil {
		return err
	}
	log.Info().Str("dir", dir).Msg("migration completed")
	return nil
}

func fileSourceURL(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	return "file://" + filepath.ToSlash(absDir), nil
}

func databaseURL(dsn, table string) string {
	if table == "" {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "x-migrations-table=" + table
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// migrateLogger は golang-migrate のログを zerolog へ流します。
type migrateLogger struct {
	log zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Info().Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
