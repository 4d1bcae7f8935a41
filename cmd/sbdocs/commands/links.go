package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// NewLinksCommand creates the links command group.
func NewLinksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "links",
		Aliases: []string{"link"},
		Short:   "Read the link index",
		Long:    "List the stories and folders of the space from the links endpoint",
	}

	cmd.AddCommand(newLinksListCommand())
	cmd.AddCommand(newLinksTreeCommand())

	return cmd
}

func linkParams(cmd *cobra.Command) *storyblok.QueryParams {
	params := versionParams(cmd)

	if startsWith, _ := cmd.Flags().GetString("starts-with"); startsWith != "" {
		params.WithStartsWith(startsWith)
	}

	return params
}

func addLinkFlags(cmd *cobra.Command) {
	addContentFlags(cmd)
	cmd.Flags().String("starts-with", "", "folder prefix, e.g. docs/")
}

func newLinksListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List links",
		Long:  "List every link of the space, sorted by slug",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			links, err := client.Links().All(cmd.Context(), linkParams(cmd))
			if err != nil {
				return fmt.Errorf("failed to list links: %w", err)
			}

			return printOutput(cmd, links, func(table *tablewriter.Table) error {
				table.Header("ID", "Slug", "Name", "Folder", "Startpage", "Published")

				for _, link := range links {
					err := table.Append([]string{
						strconv.FormatInt(link.ID, 10),
						link.Slug,
						link.Name,
						formatBool(link.IsFolder),
						formatBool(link.IsStartpage),
						formatBool(link.Published),
					})
					if err != nil {
						return fmt.Errorf("failed to append row: %w", err)
					}
				}

				return nil
			})
		},
	}

	addLinkFlags(cmd)

	return cmd
}

func newLinksTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the folder tree",
		Long:  "Display links arranged by folder, in editor order",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			roots, err := client.Links().Tree(cmd.Context(), linkParams(cmd))
			if err != nil {
				return fmt.Errorf("failed to load link tree: %w", err)
			}

			return printOutput(cmd, roots, func(table *tablewriter.Table) error {
				table.Header("Name", "Slug", "Published")

				for _, root := range roots {
					var appendErr error

					root.Walk(func(node *storyblok.LinkNode, depth int) bool {
						name := strings.Repeat("  ", depth) + node.Name
						if node.IsFolder {
							name += "/"
						}

						err := table.Append([]string{name, node.Slug, formatBool(node.Published)})
						if err != nil && appendErr == nil {
							appendErr = fmt.Errorf("failed to append row: %w", err)
						}

						return true
					})

					if appendErr != nil {
						return appendErr
					}
				}

				return nil
			})
		},
	}

	addLinkFlags(cmd)

	return cmd
}
