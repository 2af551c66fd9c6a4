package cli

import (
	"log/slog"

	"todolist/config/setup"
	"todolist/contract"
	"todolist/matcher"
	"todolist/services"

	"github.com/spf13/cobra"
)

// storelessProvider serves operations the provider rejects without touching
// the store, so they fail the same way whatever --db points at.
func storelessProvider(opts *RootOptions, cmd *cobra.Command) *services.TaskProvider {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: setup.LogLevel(opts.cfg.LogLevel)}))
	m := matcher.New(contract.Scheme, opts.cfg.Authority, contract.PathTasks)
	return services.NewTaskProvider(m, nil, nil, logger)
}

// NewDeleteCommand creates the delete command. The provider does not support deletes.
func NewDeleteCommand(root *RootOptions) *cobra.Command {
	var selection string

	cmd := &cobra.Command{
		Use:   "delete [URI]",
		Short: "Delete tasks (not supported)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := storelessProvider(root, cmd).Delete(cmd.Context(), addressArg(root, args), selection, nil)
			return providerExitError(err)
		},
	}

	cmd.Flags().StringVarP(&selection, "selection", "s", "", "SQL predicate with ? placeholders")
	return cmd
}

// NewUpdateCommand creates the update command. The provider does not support updates.
func NewUpdateCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [URI] KEY=VALUE...",
		Short: "Update tasks (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) > 0 {
				target = args[0]
				args = args[1:]
			}
			values, err := parseValues(args)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid values", err)
			}

			_, err = storelessProvider(root, cmd).Update(cmd.Context(), target, values, "", nil)
			return providerExitError(err)
		},
	}
	return cmd
}

// NewTypeCommand creates the type command. The provider does not describe MIME types.
func NewTypeCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "type [URI]",
		Short: "Describe the content type of an address (not supported)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := storelessProvider(root, cmd).GetType(addressArg(root, args))
			return providerExitError(err)
		},
	}
}
