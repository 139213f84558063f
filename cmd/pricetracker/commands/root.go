package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Legendtss/price-tracker/lib/catalog"
	"github.com/Legendtss/price-tracker/lib/configutil"
	"github.com/Legendtss/price-tracker/lib/restyutil"
	"github.com/Legendtss/price-tracker/lib/scrapers/amazon"
	"github.com/Legendtss/price-tracker/lib/scrapers/croma"
	"github.com/Legendtss/price-tracker/lib/scrapers/flipkart"
	"github.com/Legendtss/price-tracker/lib/telemetry"
	"github.com/Legendtss/price-tracker/lib/transport"
	"github.com/Legendtss/price-tracker/services/search"

	"github.com/spf13/cobra"
)

var verbose *bool

var tel telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "pricetracker",
	Short: "pricetracker compares product prices across Indian marketplaces.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
		// missing telemetry.json5 is fine, spans just go nowhere
		tel, _ = telemetry.SetupFromEnv(cmd.Context(), "pricetracker")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// flush buffered spans/metrics before the process exits; the
		// command context may already be cancelled by a signal
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			slog.Debug("failed to shut down telemetry", "err", err)
		}
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("failed to encode output", err)
	}
}

type Config struct {
	// Sources restricts scraping to a subset of marketplaces.
	Sources []string `json:"sources"`
	// Headless controls whether the fallback browser shows a window.
	Headless *bool `json:"headless"`
	// FetchTimeoutSeconds is the per-request transport timeout.
	FetchTimeoutSeconds int `json:"fetchTimeoutSeconds"`
	// DebugDumpDir, when set, saves an HTTP transcript of every light
	// transport request for selector debugging.
	DebugDumpDir string `json:"debugDumpDir"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fatal("failed to read config", err)
		}
		slog.Debug("no config.json5, using defaults")
	}
	return cfg
}

// createService wires the shared transport chain into one extractor
// per marketplace. The returned cleanup tears the browser down.
func createService() (*search.Service, func()) {
	cfg := readConfig()

	timeout := 30 * time.Second
	if cfg.FetchTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	}
	headless := true
	if cfg.Headless != nil {
		headless = *cfg.Headless
	}

	if cfg.DebugDumpDir != "" {
		transport.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(cfg.DebugDumpDir))
	}

	light := transport.NewLight(timeout)
	browser := transport.NewBrowser(headless, timeout)
	fetcher := transport.NewChain(light, browser, transport.ChainOptions{})

	svc, err := search.New(search.Options{
		Extractors: []catalog.SourceExtractor{
			amazon.NewClient(amazon.ClientOptions{Fetcher: fetcher}),
			flipkart.NewClient(flipkart.ClientOptions{Fetcher: fetcher}),
			croma.NewClient(croma.ClientOptions{Fetcher: fetcher}),
		},
		AllowedSources: cfg.Sources,
	})
	if err != nil {
		fatal("failed to initialize search service", err)
	}
	return svc, browser.Close
}
