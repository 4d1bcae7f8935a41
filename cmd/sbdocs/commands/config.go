package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

const (
	configDirName  = ".sbdocs"
	configFileName = "config.yml"

	keyToken        = "token"
	keyPreviewToken = "preview_token"
)

// Config represents the persisted CLI configuration.
type Config struct {
	Token        string `json:"token,omitempty"         yaml:"token,omitempty"`
	PreviewToken string `json:"preview_token,omitempty" yaml:"preview_token,omitempty"`
	Region       string `json:"region,omitempty"        yaml:"region,omitempty"`
	BaseURL      string `json:"base_url,omitempty"      yaml:"base_url,omitempty"`
	Language     string `json:"language,omitempty"      yaml:"language,omitempty"`
	ResolveLinks string `json:"resolve_links,omitempty" yaml:"resolve_links,omitempty"`
	Output       string `json:"output,omitempty"        yaml:"output,omitempty"`
}

// masked returns a copy safe to print.
func (c *Config) masked() *Config {
	masked := *c
	masked.Token = maskSecret(c.Token)
	masked.PreviewToken = maskSecret(c.PreviewToken)

	return &masked
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage sbdocs configuration including access tokens and region",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigSetTokenCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with tokens masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig().masked()

			return printOutput(cmd, config, propertyTable([][]string{
				{"Token", orNotAvailable(config.Token)},
				{"Preview Token", orNotAvailable(config.PreviewToken)},
				{"Region", orNotAvailable(config.Region)},
				{"Base URL", orNotAvailable(config.BaseURL)},
				{"Language", orNotAvailable(config.Language)},
				{"Resolve Links", orNotAvailable(config.ResolveLinks)},
				{"Output", orNotAvailable(config.Output)},
				{"Config File", orNotAvailable(viper.ConfigFileUsed())},
			}))
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config := loadConfig()

			err := setConfigValue(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if key == keyToken || key == keyPreviewToken {
				value = maskSecret(value)
			}

			return outputConfigUpdateResult(cmd, "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			config := loadConfig()

			err := setConfigValue(config, key, "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Unset", key, "")
		},
	}
}

func newConfigSetTokenCommand() *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "set-token",
		Short: "Store an access token",
		Long:  "Read an access token from the terminal without echo, or from stdin, and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, label := keyToken, "Public access token: "
			if preview {
				key, label = keyPreviewToken, "Preview access token: "
			}

			token, err := readSecret(cmd, label)
			if err != nil {
				return err
			}

			err = NewConfigPersister().UpdateToken(key, token)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd, "Set", key, maskSecret(token))
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "store the preview token instead of the public token")

	return cmd
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Cleared", "all configuration", "")
		},
	}
}

// configHandlers validate and apply a value. An empty value unsets the key.
func configHandlers() map[string]func(*Config, string) error {
	return map[string]func(*Config, string) error{
		keyToken:        func(c *Config, v string) error { c.Token = v; return nil },
		keyPreviewToken: func(c *Config, v string) error { c.PreviewToken = v; return nil },
		"base_url":      func(c *Config, v string) error { c.BaseURL = v; return nil },
		"language":      func(c *Config, v string) error { c.Language = v; return nil },
		"region": func(c *Config, v string) error {
			if v != "" && !validRegion(v) {
				return fmt.Errorf("%w: region %q (eu, us, ca, ap, cn)", ErrInvalidConfigValue, v)
			}

			c.Region = strings.ToLower(v)

			return nil
		},
		"resolve_links": func(c *Config, v string) error {
			switch v {
			case "", "url", "story", "link":
				c.ResolveLinks = v

				return nil
			default:
				return fmt.Errorf("%w: resolve_links %q (url, story, link)", ErrInvalidConfigValue, v)
			}
		},
		"output": func(c *Config, v string) error {
			switch v {
			case "", constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
				c.Output = v

				return nil
			default:
				return fmt.Errorf("%w: %s", ErrInvalidOutput, v)
			}
		},
	}
}

func configKeys() []string {
	handlers := configHandlers()

	keys := make([]string, 0, len(handlers))
	for key := range handlers {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func setConfigValue(config *Config, key, value string) error {
	handler, ok := configHandlers()[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	return handler(config, value)
}

func validRegion(region string) bool {
	switch storyblok.Region(strings.ToLower(region)) {
	case storyblok.RegionEU, storyblok.RegionUS, storyblok.RegionCA, storyblok.RegionAP, storyblok.RegionCN:
		return true
	default:
		return false
	}
}

// loadConfig returns the effective configuration: flags, then environment,
// then the config file.
func loadConfig() *Config {
	return &Config{
		Token:        viper.GetString(keyToken),
		PreviewToken: viper.GetString(keyPreviewToken),
		Region:       viper.GetString("region"),
		BaseURL:      viper.GetString("base_url"),
		Language:     viper.GetString("language"),
		ResolveLinks: viper.GetString("resolve_links"),
		Output:       viper.GetString("output"),
	}
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName, configFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// readSecret prompts without echo on a terminal and reads a line otherwise.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)

		secret, err := term.ReadPassword(int(file.Fd()))

		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		return nonEmpty(string(secret))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return nonEmpty(line)
}

func nonEmpty(secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", ErrEmptyToken
	}

	return secret, nil
}

// outputConfigUpdateResult outputs configuration update results in the requested format.
func outputConfigUpdateResult(cmd *cobra.Command, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	rows := [][]string{{"Action", action}, {"Key", key}}

	if value != "" {
		result["value"] = value
		rows = append(rows, []string{"Value", value})
	}

	return printOutput(cmd, result, propertyTable(rows))
}
