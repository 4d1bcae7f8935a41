package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewSpaceCommand creates the space command.
func NewSpaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "space",
		Short: "Show the current space",
		Long:  "Display the space the configured token belongs to, including its cache version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			space, err := client.Spaces().Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get space: %w", err)
			}

			return printOutput(cmd, space, propertyTable([][]string{
				{"ID", strconv.FormatInt(space.ID, 10)},
				{"Name", space.Name},
				{"Domain", orNotAvailable(space.Domain)},
				{"Version", strconv.FormatInt(space.Version, 10)},
				{"Languages", orNotAvailable(strings.Join(space.LanguageCodes, ", "))},
			}))
		},
	}
}
