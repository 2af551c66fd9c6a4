package cli

import (
	"fmt"
	"strconv"
	"strings"

	"todolist/contract"
	"todolist/models"

	"github.com/spf13/cobra"
)

// NewInsertCommand creates the insert command.
func NewInsertCommand(root *RootOptions) *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "insert KEY=VALUE...",
		Short: "Insert a task into the collection",
		Example: `  todolist insert title="Buy milk" priority=1
  todolist insert --uri content://com.example.android.todolist/tasks title=Call`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(args)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid values", err)
			}

			provider, closeDB, err := openProvider(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeDB()

			target := uri
			if target == "" {
				target = addressArg(root, nil)
			}

			newURI, err := provider.Insert(cmd.Context(), target, values)
			if err != nil {
				return providerExitError(err)
			}

			if root.Format == "json" {
				id, err := contract.ParseID(newURI)
				if err != nil {
					return WrapExitError(ExitFailure, "inserted row has no id", err)
				}
				return writeJSON(cmd.OutOrStdout(), models.InsertTaskResponse{URI: newURI, ID: id})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), newURI)
			return err
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "collection address (default content://<authority>/tasks)")
	return cmd
}

// parseValues turns KEY=VALUE pairs into typed column values.
// Integers, floats and true/false are converted; everything else stays a string.
func parseValues(args []string) (models.Values, error) {
	values := make(models.Values, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", arg)
		}
		values[key] = parseScalar(raw)
	}
	return values, nil
}

func parseScalar(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
