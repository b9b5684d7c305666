package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"taxonomy/builder/internal/service"
)

type buildFlags struct {
	html         string
	out          string
	source       string
	includeAllIn bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.html, "html", "", "read the directory page from this file instead of fetching")
	cmd.Flags().StringVar(&f.out, "out", "", "taxonomy output path (default output.dir/output.taxonomy_file)")
	cmd.Flags().StringVar(&f.source, "source", "", "directory page URL (default source.page_url)")
	cmd.Flags().BoolVar(&f.includeAllIn, "include-all-in", false, "list all-in links in choices.json")
}

func (f *buildFlags) request(cmd *cobra.Command, defaultAllIn bool) service.BuildRequest {
	includeAllIn := defaultAllIn
	if cmd.Flags().Changed("include-all-in") {
		includeAllIn = f.includeAllIn
	}
	return service.BuildRequest{
		SourcePage:   f.source,
		FixturePath:  f.html,
		OutputPath:   f.out,
		IncludeAllIn: includeAllIn,
	}
}

func newBuildCommand(opts *rootOptions) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the taxonomy pipeline once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			app, err := opts.container(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			req := flags.request(cmd, app.Config.Output.IncludeAllIn)
			result, err := app.Service.Build(ctx, req)
			if err != nil {
				return &exitError{code: ExitBuildFailed, err: err}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", result.TaxonomyPath, result.ChoicesPath)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
