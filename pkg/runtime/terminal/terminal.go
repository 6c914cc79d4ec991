package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/stats-report/pkg/runtime/app"
	"github.com/de-tools/stats-report/pkg/runtime/export"
	"github.com/de-tools/stats-report/pkg/runtime/terminal/commands"
	"github.com/de-tools/stats-report/pkg/services/config"
	"github.com/spf13/cobra"
)

// SessionFactory turns global flags into a command session.
type SessionFactory func(ctx context.Context, settings app.Settings) (*commands.Session, error)

// ConfigFactory turns global flags into configuration.
type ConfigFactory func(ctx context.Context, settings app.Settings) (*config.Config, error)

// CLI represents the command-line interface
type CLI struct {
	settings   app.Settings
	open       SessionFactory
	loadConfig ConfigFactory
	reporter   *export.Reporter
	output     io.Writer
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Open       SessionFactory
	LoadConfig ConfigFactory
	Output     io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = OpenApp(os.Stderr)
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = app.LoadConfig
	}

	cli := &CLI{
		open:       opts.Open,
		loadConfig: opts.LoadConfig,
		reporter:   export.NewReporter(opts.Output),
		output:     opts.Output,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

// OpenApp wires the full application for each command. Logs go to logOutput
// so that command output stays clean.
func OpenApp(logOutput io.Writer) SessionFactory {
	return func(ctx context.Context, settings app.Settings) (*commands.Session, error) {
		a, err := app.Open(ctx, settings, logOutput)
		if err != nil {
			return nil, err
		}

		s := &commands.Session{
			Ctx:       a.Context(ctx),
			Generator: a.Generator,
			Close:     a.Close,
		}
		if a.History != nil {
			s.History = a.History
		}
		return s, nil
	}
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "report",
		Short:         "Statistics report tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(cli.output)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.settings.ConfigPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&cli.settings.ProfilesPath, "profiles", app.DefaultProfilesPath(), "Path to the profiles ini file")
	flags.StringVarP(&cli.settings.Profile, "profile", "p", "", "Profile to take API credentials from")

	open := func(ctx context.Context) (*commands.Session, error) {
		return cli.open(ctx, cli.settings)
	}
	load := func(ctx context.Context) (*config.Config, error) {
		return cli.loadConfig(ctx, cli.settings)
	}

	cmd.AddCommand(commands.NewGenerateCmd(open, cli.reporter, cli.output))
	cmd.AddCommand(commands.NewHistoryCmd(open, cli.output))
	cmd.AddCommand(commands.NewURLCmd(load, cli.output))

	return cmd
}
