package cli

import (
	"fmt"
	"io"
	"log/slog"

	"todolist/config"
	"todolist/config/setup"
	"todolist/services"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath    string
	Authority string
	Format    string // "json" | "text"
	Verbose   bool

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the todolist CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "todolist",
		Short:         "Task content provider",
		Long:          "Serve and query the task table through content://<authority>/tasks[/<id>] addresses.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			opts.cfg = config.Load()
			if cmd.Flags().Changed("db") {
				opts.cfg.DBPath = opts.DBPath
			}
			if cmd.Flags().Changed("authority") {
				opts.cfg.Authority = opts.Authority
			}
			if opts.Verbose {
				opts.cfg.LogLevel = "debug"
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the SQLite database (default $DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Authority, "authority", "", "content authority (default $CONTENT_AUTHORITY)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewTypeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openProvider opens the database and wires a provider for one-shot commands.
// Logs go to stderr so command output stays parseable.
func openProvider(opts *RootOptions, errOut io.Writer) (*services.TaskProvider, func(), error) {
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: setup.LogLevel(opts.cfg.LogLevel)}))

	db, err := setup.InitDatabase(opts.cfg.DBPath, logger)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	application := setup.InitApp(opts.cfg, db, nil, logger)
	return application.Provider, func() { db.Close() }, nil
}

// addressArg returns the first positional argument, or the collection address
func addressArg(opts *RootOptions, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "content://" + opts.cfg.Authority + "/tasks"
}
