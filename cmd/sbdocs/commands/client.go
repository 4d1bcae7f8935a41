package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/internal/logging"
	"github.com/fivetwenty-io/storyblok-docs/pkg/sbclient"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// clientOptions carries what a command adds to the configured client.
type clientOptions struct {
	logger   *zap.Logger
	recorder storyblok.MetricsRecorder
}

// buildClientConfig maps the CLI configuration to a client configuration.
func buildClientConfig(config *Config, opts clientOptions) *storyblok.Config {
	clientConfig := &storyblok.Config{
		AccessToken:     config.Token,
		PreviewToken:    config.PreviewToken,
		Region:          storyblok.Region(config.Region),
		BaseURL:         config.BaseURL,
		Language:        config.Language,
		ResolveLinks:    config.ResolveLinks,
		MetricsRecorder: opts.recorder,
		UserAgent:       "sbdocs/" + cliVersion,
	}

	if opts.logger != nil {
		clientConfig.Logger = logging.NewAdapter(opts.logger)
		clientConfig.Debug = viper.GetBool("verbose")
	}

	return clientConfig
}

// CreateClient builds a CDA client from the effective configuration.
func CreateClient(ctx context.Context) (storyblok.Client, error) {
	var opts clientOptions

	if viper.GetBool("verbose") {
		logger, err := logging.New("debug", true)
		if err != nil {
			return nil, err
		}

		opts.logger = logger
	}

	return createClient(ctx, loadConfig(), opts)
}

func createClient(ctx context.Context, config *Config, opts clientOptions) (storyblok.Client, error) {
	client, err := sbclient.New(ctx, buildClientConfig(config, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w. Use 'sbdocs config set-token' or --token", err)
	}

	return client, nil
}

// versionParams returns query params for the --draft flag of cmd.
func versionParams(cmd *cobra.Command) *storyblok.QueryParams {
	params := storyblok.NewQueryParams()

	draft, _ := cmd.Flags().GetBool("draft")
	if draft {
		params.WithVersion(storyblok.VersionDraft)
	}

	if language, _ := cmd.Flags().GetString("language"); language != "" {
		params.WithLanguage(language)
	}

	return params
}

func addContentFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("draft", false, "read draft content (requires the preview token)")
	cmd.Flags().String("language", "", "language code")
}
