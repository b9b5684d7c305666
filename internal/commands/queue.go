package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnqueueCommand(opts *rootOptions) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a build request on the Redis stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.container(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := app.Service.Enqueue(cmd.Context(), flags.request(cmd, app.Config.Output.IncludeAllIn))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newWorkerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued builds and serve health endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			app, err := opts.container(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Run(ctx)
		},
	}
}
