package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/auth"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/client"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/config"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/logging"
)

// options are the flags shared by all subcommands.
type options struct {
	baseURL  string
	token    string
	logLevel string
}

// Usage examples on the command line:
// > go run . token --secret s3cret --user 6f1c...
// > CONTACTS_TOKEN=ey... go run . export --email me@example.com
// > CONTACTS_TOKEN=ey... go run . list --letter a
// > CONTACTS_TOKEN=ey... go run . bench
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "contacts",
		Short:        "Command line client for the contacts service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "base URL of the contacts service")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("CONTACTS_TOKEN"), "bearer token (default $CONTACTS_TOKEN)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")
	root.AddCommand(newExportCommand(opts), newListCommand(opts), newTokenCommand(), newBenchCommand(opts))
	return root
}

func (o *options) api() *client.API {
	return client.NewAPI(o.baseURL, o.token, nil)
}

func (o *options) logger() (*zap.Logger, error) {
	return logging.New(config.LoggingConfig{Level: o.logLevel, Development: true})
}

func newExportCommand(opts *options) *cobra.Command {
	var email, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the contacts as CSV or send them by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			saver := client.SaverFunc(func(filename string, content []byte) error {
				path := filepath.Join(dir, filename)
				if err := os.WriteFile(path, content, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
				return nil
			})
			controller := client.NewExportController(opts.api(), saver, logger)
			controller.Open(cmd.Context())

			mode := client.Download
			if cmd.Flags().Changed("email") {
				mode = client.Email
			}
			err = controller.Submit(cmd.Context(), mode, email)
			if msg := controller.Message(); msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "send the export to this address instead of downloading it")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory for the downloaded file")
	return cmd
}

func newListCommand(opts *options) *cobra.Command {
	var letter, filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the contacts, optionally filtered by the beginning of the name",
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := opts.api().ListContacts(cmd.Context(), "")
			if err != nil {
				return err
			}
			state := client.Reduce(client.ContactList{}, client.Load{Contacts: contacts})
			if filter != "" {
				state = client.Reduce(state, client.SetFilter{Filter: filter})
			}
			if letter != "" {
				state = client.Reduce(state, client.ToggleLetter{Letter: letter})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEMAIL\tPHONE\tCREATED")
			for _, c := range client.Visible(state) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, deref(c.Email), deref(c.Phone), c.CreatedAt.Format(time.DateOnly))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&letter, "letter", "", "show only names starting with this letter")
	cmd.Flags().StringVar(&filter, "filter", "", "show only names starting with this prefix")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var secret, user, email string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for development setups",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" || user == "" {
				return errors.New("--secret and --user are required")
			}
			token, err := auth.IssueToken(secret, user, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "shared secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&user, "user", "", "id of the user the token is issued for")
	cmd.Flags().StringVar(&email, "email", "", "email claim of the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "validity of the token")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
