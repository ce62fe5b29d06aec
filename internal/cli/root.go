package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Log-Tools/event-canary/canary"
	"github.com/Log-Tools/event-canary/eventstream"
	canaryConfig "github.com/Log-Tools/event-canary/internal/config"
	"github.com/Log-Tools/event-canary/internal/service"
	"github.com/Log-Tools/event-canary/schemarepo"
	"github.com/Log-Tools/event-canary/streamconfig"
)

var (
	configPath   string
	outputFormat string
	datacenters  []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canaryctl",
	Short: "Inspect event stream config and post canary events",
	Long: `A CLI utility for the event canary pipeline.

Reads stream configuration from the configured source, resolves per-stream
schemas and destination event services, and can post canary events to every
datacenter-specific event service in one pass.

Examples:
  # List all configured streams
  canaryctl --config canaryd.yaml streams

  # Show the topics composing specific streams
  canaryctl --config canaryd.yaml topics my.stream other.stream

  # Print the canary event that would be posted for a stream
  canaryctl --config canaryd.yaml event my.stream

  # Post canary events for all streams, overriding datacenters
  canaryctl --config canaryd.yaml post --datacenters dc1,dc2

  # Show what would be posted without posting
  canaryctl --config canaryd.yaml post --dry-run`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (required)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "output format: text, json")
	rootCmd.PersistentFlags().StringSliceVar(&datacenters, "datacenters", nil, "datacenters to deliver to (overrides config)")
}

// buildCollaborators loads config and wires the cache, stream factory and
// engine the subcommands share
func buildCollaborators(ctx context.Context) (*canaryConfig.Config, *eventstream.Factory, *canary.Engine, error) {
	if configPath == "" {
		return nil, nil, nil, fmt.Errorf("--config is required")
	}

	cfg, err := canaryConfig.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	fetcherFactory := &service.DefaultFetcherFactory{}
	fetcher, err := fetcherFactory.CreateFetcher(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	cache, err := streamconfig.NewCache(ctx, fetcher)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to fetch stream configs: %w", err)
	}

	directory := eventstream.NewServiceDirectory(cfg.EventServices)
	resolver := schemarepo.New(cfg.SchemaRepository.BaseURIs)
	factory := eventstream.NewFactory(cache, directory, resolver)

	dcs := cfg.Datacenters
	if len(datacenters) > 0 {
		dcs = datacenters
	}
	engine := canary.NewEngine(factory, dcs, cfg.Monitor.DeliveryConcurrency)

	return cfg, factory, engine, nil
}

func newHTTPClient(cfg *canaryConfig.Config) *http.Client {
	return &http.Client{
		Timeout: time.Duration(cfg.Monitor.RequestTimeoutSeconds) * time.Second,
	}
}
