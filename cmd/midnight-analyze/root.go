package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/analysis"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/cache"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/config"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/metrics"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source/middleware"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/transport"
)

var (
	configPath string
	verbose    bool
)

// rootCmd is the base command for the midnight-analyze CLI.
var rootCmd = &cobra.Command{
	Use:   "midnight-analyze",
	Short: "Composite analyses over a Midnight network's RPC and indexer",
	Long: `midnight-analyze queries a Midnight network through its low-latency node
RPC and its enriched indexer, and produces composite analyses that stay
useful when some sources fail: address profiles, auction state, network
health, transaction finality, attestation performance, and settlement lag.

Every result carries explicit errors (mandatory data missing) and warnings
(enrichment data missing) instead of failing outright.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newAnalyzer assembles the analyzer from configuration: transport clients
// behind the standard guard chain, the category cache, and metrics.
func newAnalyzer() (*analysis.Analyzer, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	reg := metrics.NewRegistry(prometheus.NewRegistry())

	wrap := func(cap source.Capability, sc config.SourceConfig) source.Capability {
		return middleware.Wrap(cap, reg,
			sc.RPS, sc.Burst,
			uint32(sc.Circuit.ConsecutiveFailures),
			time.Duration(sc.Circuit.OpenSecs)*time.Second)
	}

	rpcCfg, ok := cfg.Sources["rpc"]
	if !ok {
		return nil, fmt.Errorf("config: source %q is not defined", "rpc")
	}
	indexerCfg, ok := cfg.Sources["indexer"]
	if !ok {
		return nil, fmt.Errorf("config: source %q is not defined", "indexer")
	}

	rpc := wrap(transport.NewRPC(rpcCfg.BaseURL, rpcCfg.Timeout()), rpcCfg)
	indexer := wrap(transport.NewIndexer(indexerCfg.BaseURL, indexerCfg.Timeout()), indexerCfg)

	var store cache.Cache
	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("config: bad redis_url: %w", err)
		}
		store = cache.NewRedis(redis.NewClient(opts), cfg.Cache.TTLs())
	} else {
		store = cache.NewMemory(cfg.Cache.TTLs(), cfg.Cache.Capacity)
	}

	return analysis.New(rpc, indexer, store, reg), nil
}

// printJSON writes the analysis result to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
