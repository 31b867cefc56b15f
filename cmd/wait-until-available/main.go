package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/client"
)

// Usage example on the command line:
// > go run main.go --url http://localhost:8080 --interval 5s
func main() {
	var baseURL string
	var interval time.Duration
	cmd := &cobra.Command{
		Use:          "wait-until-available",
		Short:        "Poll the warm-up probe until the contacts service is ready",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wait(cmd.Context(), client.NewAPI(baseURL, "", nil), interval)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the contacts service")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "time between two probes")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func wait(ctx context.Context, api *client.API, interval time.Duration) error {
	var totalWaitTime time.Duration
	for {
		status, err := api.Health(ctx)
		if err == nil {
			fmt.Printf("%s: %s\n", status.Status, status.Message)
			return nil
		}
		fmt.Println(err)
		totalWaitTime += interval
		fmt.Printf("Waiting %s\n", totalWaitTime)
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
