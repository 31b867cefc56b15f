package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/client"
	"gitlab.com/dirk.krummacker/guard-contacts/pkg/model"
)

func newBenchCommand(opts *options) *cobra.Command {
	var sizes []int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure the average latency of create, update, get and delete in microseconds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return bench(cmd.Context(), opts.api(), sizes, func(format string, a ...any) {
				fmt.Fprintf(cmd.OutOrStdout(), format, a...)
			})
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{100, 500, 1000, 5000}, "number of contacts per round")
	return cmd
}

func bench(ctx context.Context, api *client.API, sizes []int, printf func(string, ...any)) error {
	phone := "+39 999 777 555"
	contact := model.Contact{Name: "Marcus Antonius", Phone: &phone}
	patch := model.ContactPatch{Phone: &phone}

	printf("\n  Elements      POST       PUT       GET    DELETE \n")
	printf("---------------------------------------------------\n")
	for _, loops := range sizes {
		if loops < 1 {
			continue
		}
		printf("%10d", loops)

		// POST requests
		ids := make([]string, 0, loops)
		var duration time.Duration
		for i := 0; i < loops; i++ {
			var created model.Contact
			d, err := timed(ctx, func(ctx context.Context) (err error) {
				created, err = api.CreateContact(ctx, contact)
				return err
			})
			if err != nil {
				return err
			}
			ids = append(ids, created.Id)
			duration += d
		}
		printf("%10d", duration.Microseconds()/int64(loops))

		// PUT, GET and DELETE requests in random order
		calls := []func(ctx context.Context, id string) error{
			func(ctx context.Context, id string) error {
				_, err := api.UpdateContact(ctx, id, patch)
				return err
			},
			func(ctx context.Context, id string) error {
				_, err := api.GetContact(ctx, id)
				return err
			},
			api.DeleteContact,
		}
		for _, call := range calls {
			shuffled := shuffle(ids)
			var duration time.Duration
			for _, id := range shuffled {
				d, err := timed(ctx, func(ctx context.Context) error { return call(ctx, id) })
				if err != nil {
					return err
				}
				duration += d
			}
			printf("%10d", duration.Microseconds()/int64(loops))
		}
		printf("\n")
	}
	return nil
}

// timed runs f and measures how long it took. A single call must not hang forever on a dead
// server.
func timed(ctx context.Context, f func(ctx context.Context) error) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	before := time.Now()
	err := f(ctx)
	return time.Since(before), err
}

func shuffle(ids []string) []string {
	shuffled := append([]string(nil), ids...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
