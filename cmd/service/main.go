package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/config"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/logging"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/mailer"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/metrics"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/service"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/store"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=dirk DBPWD=bullo92 JWT_SECRET=s3cret MAIL_API_KEY=re_123 GIN_MODE=release GIN_LOGGING=OFF go run main.go --config config.yaml
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "contacts-service",
		Short:        "Serve the contacts REST API with CSV export",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the YAML configuration file")
	return cmd
}

func run(configPath string) error {
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
	contacts, err := store.New(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("set up store: %w", err)
	}
	defer contacts.Close()

	if cfg.Mail.APIKey == "" {
		logger.Warn("No mail API key configured, email exports will fail.")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("No JWT secret configured, every caller is anonymous.")
	}
	dispatcher := mailer.NewHTTPDispatcher(cfg.Mail.APIURL, cfg.Mail.APIKey, cfg.Mail.From, nil)
	collector := metrics.NewCollector(cfg.Metrics, nil)

	svc, err := service.New(cfg, contacts, dispatcher, collector, logger)
	if err != nil {
		return err
	}
	if err := svc.Run(cfg.Server.Port); err != nil {
		logger.Error("Service stopped.", zap.Error(err))
		return err
	}
	return nil
}
