package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// NewTagsCommand creates the tags command group.
func NewTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "Read tags",
		Long:    "List the tags used by stories of the space",
	}

	cmd.AddCommand(newTagsListCommand())

	return cmd
}

func newTagsListCommand() *cobra.Command {
	var startsWith string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Long:  "List tags with the number of stories using them",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			params := storyblok.NewQueryParams().WithStartsWith(startsWith)

			tags, err := client.Tags().List(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("failed to list tags: %w", err)
			}

			return printOutput(cmd, tags, func(table *tablewriter.Table) error {
				table.Header("Name", "Stories")

				for _, tag := range tags {
					err := table.Append([]string{tag.Name, strconv.Itoa(tag.TaggingsCount)})
					if err != nil {
						return fmt.Errorf("failed to append row: %w", err)
					}
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&startsWith, "starts-with", "", "only count stories below this folder")

	return cmd
}
