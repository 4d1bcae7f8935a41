package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fivetwenty-io/storyblok-docs/internal/events"
	"github.com/fivetwenty-io/storyblok-docs/internal/logging"
	"github.com/fivetwenty-io/storyblok-docs/internal/metrics"
	"github.com/fivetwenty-io/storyblok-docs/internal/site"
)

// serveFlags maps flag names to viper keys. Every key can also be set in the
// config file or as STORYBLOK_<KEY>.
var serveFlags = map[string]string{
	"listen":            "listen",
	"site-name":         "site_name",
	"public-url":        "public_url",
	"base-folder":       "base_folder",
	"home-slug":         "home_slug",
	"languages":         "languages",
	"default-language":  "default_language",
	"resolve-relations": "resolve_relations",
	"webhook-secret":    "webhook_secret",
	"session-secret":    "session_secret",
	"allowed-origins":   "allowed_origins",
	"nats-url":          "nats_url",
	"nats-subject":      "nats_subject",
	"log-level":         "log_level",
	"dev":               "dev",
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the documentation site",
		Long: `Serve the documentation site from the configured space.

Published pages are rendered from the CDA. Requests from the visual editor
start a draft session that renders draft content and loads the bridge.
Webhooks posted to /api/webhooks/storyblok notify open preview tabs; set
--nats-url to share these events between instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", "", "listen address (default :8080)")
	flags.String("site-name", "Documentation", "site name shown in titles")
	flags.String("public-url", "", "absolute site URL used in the sitemap")
	flags.String("base-folder", "", "folder holding the documentation stories")
	flags.String("home-slug", "", "story served at / without a base folder (default home)")
	flags.StringSlice("languages", nil, "language codes recognised as path prefixes")
	flags.String("default-language", "", "language served without a prefix")
	flags.StringSlice("resolve-relations", nil, "component.field relations resolved for every page")
	flags.String("webhook-secret", "", "secret verifying webhook signatures")
	flags.String("session-secret", "", "secret signing draft sessions (default: preview token)")
	flags.StringSlice("allowed-origins", nil, "origins allowed to call /api from a browser")
	flags.String("nats-url", "", "NATS server for multi-instance events")
	flags.String("nats-subject", "", "NATS subject for events (default storyblok.events)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("dev", false, "development logging and gin debug mode")

	for flag, key := range serveFlags {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func runServe(ctx context.Context) error {
	logger, err := logging.New(viper.GetString("log_level"), viper.GetBool("dev"))
	if err != nil {
		return err
	}

	defer func() { _ = logger.Sync() }()

	if !viper.GetBool("dev") {
		gin.SetMode(gin.ReleaseMode)
	}

	manager := metrics.NewManager(metrics.WithRuntimeCollectors(true))

	config := loadConfig()

	client, err := createClient(ctx, config, clientOptions{logger: logger, recorder: manager})
	if err != nil {
		return err
	}

	bus, err := newEventBus(viper.GetString("nats_url"), viper.GetString("nats_subject"), logger)
	if err != nil {
		return err
	}

	defer func() { _ = bus.Close() }()

	server, err := site.New(siteConfig(config), client, bus,
		site.WithLogger(logger),
		site.WithMetrics(manager),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return server.Run(ctx)
}

// siteConfig builds the server configuration from viper.
func siteConfig(config *Config) site.Config {
	return site.Config{
		ListenAddr:       viper.GetString("listen"),
		SiteName:         viper.GetString("site_name"),
		PublicURL:        viper.GetString("public_url"),
		BaseFolder:       viper.GetString("base_folder"),
		HomeSlug:         viper.GetString("home_slug"),
		Languages:        stringList("languages"),
		DefaultLanguage:  viper.GetString("default_language"),
		ResolveLinks:     config.ResolveLinks,
		ResolveRelations: stringList("resolve_relations"),
		PreviewToken:     config.PreviewToken,
		SessionSecret:    viper.GetString("session_secret"),
		WebhookSecret:    viper.GetString("webhook_secret"),
		AllowedOrigins:   stringList("allowed_origins"),
	}
}

// newEventBus connects to NATS when url is set and falls back to an
// in-process bus otherwise.
func newEventBus(url, subject string, logger *zap.Logger) (events.Bus, error) {
	if url == "" {
		logger.Info("using in-process event bus")

		return events.NewMemoryBus(0), nil
	}

	bus, err := events.NewNATSBus(url, subject, logger,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("reconnected to NATS", zap.String("url", conn.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("using NATS event bus", zap.String("url", url))

	return bus, nil
}

// stringList reads a list that may come from a flag, a YAML list or a
// comma-separated environment variable.
func stringList(key string) []string {
	var list []string

	for _, value := range viper.GetStringSlice(key) {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
	}

	return list
}
