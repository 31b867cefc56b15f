package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/config"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/logging"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/store"
)

// Usage example on the command line:
// > DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run main.go --file=../../scripts/database.sql
func main() {
	var configPath, file string
	cmd := &cobra.Command{
		Use:          "migration",
		Short:        "Execute the statements of a SQL file against the contacts database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), configPath, file)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the YAML configuration file")
	cmd.Flags().StringVar(&file, "file", "database.sql", "the sql file to execute")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrate(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sqlDB, err := store.CreateDatabase(cfg.Database)
	if err != nil {
		return err
	}
	db := sqlx.NewDb(sqlDB, "mysql")
	defer db.Close()

	readFile, err := os.Open(file) // nosemgrep
	if err != nil {
		return err
	}
	defer readFile.Close()

	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	executed := 0
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if _, err := db.ExecContext(ctx, builder.String()); err != nil {
				return fmt.Errorf("statement %d: %w", executed+1, err)
			}
			executed++
			builder = strings.Builder{}
		}
	}
	if err := fileScanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	logger.Info("Migration finished.", zap.String("file", file), zap.Int("statements", executed))
	return nil
}
