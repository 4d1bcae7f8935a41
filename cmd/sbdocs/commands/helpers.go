package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// Common string constants used throughout the commands package.
const (
	Yes = "yes"
	No  = "no"

	timeLayout = "2006-01-02 15:04:05"
)

// Common static errors used throughout the commands package.
var (
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrInvalidConfigValue = errors.New("invalid configuration value")
	ErrInvalidOutput      = errors.New("invalid output format")
	ErrEmptyToken         = errors.New("token must not be empty")
	ErrSlugRequired       = errors.New("slug, --id or --uuid is required")
)

// tableFiller adds rows to a table created by printOutput.
type tableFiller func(table *tablewriter.Table) error

// printOutput writes value in the format selected by --output. Tables are
// filled by fill.
func printOutput(cmd *cobra.Command, value interface{}, fill tableFiller) error {
	w := cmd.OutOrStdout()

	switch format := viper.GetString("output"); format {
	case constants.FormatJSON:
		return writeJSON(w, value)
	case constants.FormatYAML:
		return writeYAML(w, value)
	case constants.FormatTable, "":
		table := tablewriter.NewWriter(w)

		err := fill(table)
		if err != nil {
			return err
		}

		err = table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutput, format)
	}
}

func writeJSON(w io.Writer, value interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(w)

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}

// propertyTable fills a two-column Property/Value table.
func propertyTable(rows [][]string) tableFiller {
	return func(table *tablewriter.Table) error {
		table.Header("Property", "Value")

		for _, row := range rows {
			err := table.Append(row)
			if err != nil {
				return fmt.Errorf("failed to append row: %w", err)
			}
		}

		return nil
	}
}

// maskSecret hides all but the last characters of a token.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= constants.SecretVisibleChars {
		return constants.MaskedSecret
	}

	return constants.MaskedSecret + secret[len(secret)-constants.SecretVisibleChars:]
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return constants.NotAvailable
	}

	return t.Format(timeLayout)
}

func formatBool(b bool) string {
	if b {
		return Yes
	}

	return No
}

func orNotAvailable(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
