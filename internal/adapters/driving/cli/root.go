// Package cli implements the scholia command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veritus-labs/scholia/internal/adapters/driven/config/file"
	"github.com/veritus-labs/scholia/internal/adapters/driven/embedding/ollama"
	"github.com/veritus-labs/scholia/internal/adapters/driven/embedding/openai"
	"github.com/veritus-labs/scholia/internal/adapters/driven/extract/pdf"
	genopenai "github.com/veritus-labs/scholia/internal/adapters/driven/generation/openai"
	indexsqlite "github.com/veritus-labs/scholia/internal/adapters/driven/index/sqlite"
	"github.com/veritus-labs/scholia/internal/adapters/driven/papersource/arxiv"
	"github.com/veritus-labs/scholia/internal/adapters/driven/report/markdown"
	"github.com/veritus-labs/scholia/internal/adapters/driven/storage/paperstore"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/core/ports/driving"
	"github.com/veritus-labs/scholia/internal/core/services"
	"github.com/veritus-labs/scholia/internal/logger"
	"github.com/veritus-labs/scholia/internal/retry"
)

var (
	cfgPath string
	verbose bool
)

// Wired services, built lazily by initApp.
var (
	cfg             file.Config
	researchService driving.ResearchService
	reportService   driving.ReportService
	scanner         *services.CorpusScanner
	closers         []func() error
)

var rootCmd = &cobra.Command{
	Use:   "scholia",
	Short: "Research assistant over a local paper corpus",
	Long: `Scholia answers research questions from a locally indexed corpus of
papers. When the corpus cannot support an answer, it proposes papers from
arXiv and, with your consent, downloads and indexes them before answering
again.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ~/.scholia/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() {
	defer closeApp()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp wires stores, adapters, and services from configuration. Commands
// that touch the corpus call it once; config-free commands never pay for it.
func initApp() error {
	if researchService != nil {
		return nil
	}

	var err error
	cfg, err = file.Load(cfgPath)
	if err != nil {
		return err
	}

	store, err := paperstore.NewStore(cfg.Papers.Root)
	if err != nil {
		return fmt.Errorf("opening paper store: %w", err)
	}
	closers = append(closers, store.Close)

	index, err := indexsqlite.NewIndex(cfg.Index.Dir)
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}
	closers = append(closers, index.Close)

	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}
	closers = append(closers, embedder.Close)

	generator, err := genopenai.NewGenerationService(genopenai.Config{
		APIKey:      os.Getenv(cfg.Generation.APIKeyEnv),
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
	})
	if err != nil {
		return fmt.Errorf("configuring generation: %w", err)
	}
	closers = append(closers, generator.Close)

	retryCfg := retry.DefaultConfig()
	if cfg.Retry.MaxAttempts > 0 {
		retryCfg.MaxAttempts = cfg.Retry.MaxAttempts
	}

	source := arxiv.NewClient(arxiv.Config{BaseURL: cfg.Arxiv.BaseURL})
	pipeline := services.NewIngestPipeline(pdf.NewExtractor(), nil, embedder, retryCfg)
	engine := services.NewRetrievalEngine(index, embedder, generator, services.RetrievalConfig{
		MinRelevance:         cfg.Retrieval.MinRelevance,
		SufficiencyThreshold: cfg.Retrieval.SufficiencyThreshold,
	})
	expansion := services.NewExpansionController(source, store, pipeline, index, retryCfg)

	researchService = services.NewWorkflowService(engine, expansion)
	reportService = services.NewReportWriter(markdown.NewRenderer(cfg.Reports.Dir))
	scanner = services.NewCorpusScanner(cfg.Papers.Root, store, index, pipeline)

	return nil
}

// buildEmbedder selects the embedding provider from configuration.
func buildEmbedder() (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     os.Getenv(cfg.Embedding.APIKeyEnv),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// closeApp releases wired resources in reverse order.
func closeApp() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Close: %v", err)
		}
	}
	closers = nil
}
