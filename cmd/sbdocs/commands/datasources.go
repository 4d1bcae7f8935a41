package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// NewDatasourcesCommand creates the datasources command group.
func NewDatasourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasources",
		Aliases: []string{"datasource", "ds"},
		Short:   "Read datasources",
		Long:    "List datasources and their entries",
	}

	cmd.AddCommand(newDatasourcesListCommand())
	cmd.AddCommand(newDatasourcesEntriesCommand())

	return cmd
}

func newDatasourcesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasources",
		Long:  "List all datasources of the space with their dimensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			datasources, err := client.Datasources().All(cmd.Context(), storyblok.NewQueryParams())
			if err != nil {
				return fmt.Errorf("failed to list datasources: %w", err)
			}

			return printOutput(cmd, datasources, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Slug", "Dimensions")

				for _, datasource := range datasources {
					dimensions := make([]string, 0, len(datasource.Dimensions))
					for _, dimension := range datasource.Dimensions {
						dimensions = append(dimensions, dimension.EntryValue)
					}

					err := table.Append([]string{
						strconv.FormatInt(datasource.ID, 10),
						datasource.Name,
						datasource.Slug,
						orNotAvailable(strings.Join(dimensions, ", ")),
					})
					if err != nil {
						return fmt.Errorf("failed to append row: %w", err)
					}
				}

				return nil
			})
		},
	}
}

func newDatasourcesEntriesCommand() *cobra.Command {
	var dimension string

	cmd := &cobra.Command{
		Use:   "entries DATASOURCE_SLUG",
		Short: "List datasource entries",
		Long:  "List every entry of a datasource, optionally for a dimension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			params := storyblok.NewQueryParams().WithDatasource(args[0]).WithDimension(dimension)

			entries, err := client.DatasourceEntries().All(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("failed to list datasource entries: %w", err)
			}

			return printOutput(cmd, entries, func(table *tablewriter.Table) error {
				table.Header("Name", "Value", "Dimension Value")

				for _, entry := range entries {
					dimensionValue := constants.NotAvailable
					if entry.DimensionValue != nil {
						dimensionValue = *entry.DimensionValue
					}

					err := table.Append([]string{entry.Name, entry.Value, dimensionValue})
					if err != nil {
						return fmt.Errorf("failed to append row: %w", err)
					}
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dimension, "dimension", "", "dimension value")

	return cmd
}
