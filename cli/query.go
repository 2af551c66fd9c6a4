package cli

import (
	"todolist/models"

	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(root *RootOptions) *cobra.Command {
	var q models.Query

	cmd := &cobra.Command{
		Use:   "query [URI]",
		Short: "Fetch tasks from a collection or single record address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, closeDB, err := openProvider(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeDB()

			cursor, err := provider.Query(cmd.Context(), addressArg(root, args), q)
			if err != nil {
				return providerExitError(err)
			}
			defer cursor.Close()

			records, err := cursor.Collect()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read rows", err)
			}

			if root.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"records": records,
					"count":   len(records),
				})
			}
			for _, record := range records {
				if err := writeRecordText(cmd.OutOrStdout(), record); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&q.Projection, "projection", "p", nil, "columns to return")
	cmd.Flags().StringVarP(&q.Selection, "selection", "s", "", "SQL predicate with ? placeholders")
	cmd.Flags().StringArrayVarP(&q.SelectionArgs, "arg", "a", nil, "value bound to a ? placeholder (repeatable)")
	cmd.Flags().StringVar(&q.SortOrder, "sort", "", `sort order, e.g. "priority DESC"`)
	return cmd
}
