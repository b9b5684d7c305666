package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"taxonomy/builder/internal/output"
)

type banner struct {
	Component     string `json:"component"`
	Profile       string `json:"profile"`
	ParserVersion string `json:"parser_version"`
	SourcePage    string `json:"source_page"`
	OutputDir     string `json:"output_dir"`
	IncludeAllIn  bool   `json:"include_all_in"`
	RespectRobots bool   `json:"respect_robots"`
	RateLimitRPS  int    `json:"rate_limit_rps"`
	UseCache      bool   `json:"use_cache"`
	Redis         bool   `json:"redis_enabled"`
	Database      bool   `json:"database_enabled"`
	GoVersion     string `json:"go"`
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			data, err := output.Marshal(banner{
				Component:     "taxonomy_builder",
				Profile:       cfg.App.Profile,
				ParserVersion: cfg.App.ParserVersion,
				SourcePage:    cfg.Source.PageURL,
				OutputDir:     cfg.Output.Dir,
				IncludeAllIn:  cfg.Output.IncludeAllIn,
				RespectRobots: cfg.Fetch.RespectRobots,
				RateLimitRPS:  cfg.Fetch.RateLimitRPS,
				UseCache:      cfg.Fetch.UseCache,
				Redis:         cfg.Redis.Enabled,
				Database:      cfg.Database.Enabled,
				GoVersion:     runtime.Version(),
			}, true)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
