// Package commands implements the taxonomy CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taxonomy/builder/internal/config"
	"taxonomy/builder/internal/container"
)

// Exit codes returned by Execute.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitBuildFailed = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type rootOptions struct {
	configPath string
	profile    string
	logLevel   string
	v          *viper.Viper
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Build a normalized category taxonomy from a service directory",
		Long: `Taxonomy reads a directory page listing categories and subcategories,
normalizes and links every entry, and writes taxonomy.json plus a compact
choices.json.

Examples:
  # Build from a saved page
  taxonomy build --html ./fixtures/categories.html --out ./data/taxonomy.json

  # Build from the live page with CI politeness settings
  taxonomy build --profile ci

  # Queue a build and process it with a worker
  taxonomy enqueue && taxonomy worker`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "", "runtime profile: dev, ci or prod")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	_ = opts.v.BindPFlag("app.log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		newBuildCommand(opts),
		newEnqueueCommand(opts),
		newWorkerCommand(opts),
		newServeCommand(opts),
		newCheckCommand(opts),
	)
	return cmd
}

// Execute runs the CLI with the process arguments and returns the exit code.
func Execute() int {
	return Run(os.Args[1:], os.Stdout)
}

// Run executes args against a fresh command tree.
func Run(args []string, stdout io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	if err := cmd.Execute(); err != nil {
		log.Errorf("❌ %v", err)
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		return ExitError
	}
	return ExitOK
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadWith(o.v, config.Options{Path: o.configPath, Profile: o.profile})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := container.ConfigureLogging(cfg.App); err != nil {
		return nil, err
	}
	log.Debugf("Configuration loaded (profile %s)", cfg.App.Profile)
	return cfg, nil
}

func (o *rootOptions) container(ctx context.Context) (*container.Container, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	app, err := container.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return app, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
