// Package cli provides the cobra-based command line interface. It is a
// driving adapter: commands wire the configured driven adapters into
// the core services and invoke the ask pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/responsa/internal/adapters/driven/ai"
	"github.com/custodia-labs/responsa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/responsa/internal/adapters/driven/storage/badgerstore"
	"github.com/custodia-labs/responsa/internal/adapters/driven/storage/milvus"
	"github.com/custodia-labs/responsa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
	"github.com/custodia-labs/responsa/internal/core/ports/driving"
	"github.com/custodia-labs/responsa/internal/core/services"
	"github.com/custodia-labs/responsa/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services wired by initServices and shared by the commands.
var (
	askService   driving.AskService
	promptStore  *file.PromptStore
	closers      []io.Closer
	initComplete bool
)

var rootCmd = &cobra.Command{
	Use:   "responsa",
	Short: "Grounded question answering over an indexed corpus",
	Long: `Responsa answers questions using hybrid retrieval (vector + keyword),
reciprocal rank fusion, optional cross-encoder re-ranking, and
citation-grounded generation. Every claim in an answer carries a [i]
marker pointing at a numbered source passage.`,
	SilenceUsage: true,
}

// Execute runs the root command and releases wired services on exit.
func Execute() error {
	defer shutdown()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.responsa)")
}

// initServices loads settings and builds the full pipeline. Commands
// that need the pipeline call this at the top of their RunE.
func initServices() error {
	if initComplete {
		return nil
	}

	logger.SetVerbose(verbose)
	logger.Section("Initialising services")

	settingsStore, err := file.NewSettingsStore(configDir)
	if err != nil {
		return fmt.Errorf("opening settings store: %w", err)
	}
	settings, err := settingsStore.Load()
	if err != nil {
		return err
	}
	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".responsa", "data")
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return err
	}
	if embedder == nil {
		return errors.New("no embedding provider configured; set the [embedding] section of config.toml")
	}
	closers = append(closers, embedder)

	llm, err := ai.CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		return err
	}
	if llm == nil {
		return errors.New("no LLM provider configured; set the [llm] section of config.toml")
	}
	closers = append(closers, llm)

	// The re-ranker is optional: unavailability degrades, never blocks.
	var reranker driven.RerankService
	if svc, err := ai.CreateAndValidateRerankService(&settings.Reranker); err != nil {
		logger.Warn("Re-ranker unavailable, continuing without: %v", err)
	} else if svc != nil {
		reranker = svc
		closers = append(closers, svc)
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening corpus store: %w", err)
	}
	closers = append(closers, store)

	// Vector retrieval goes to Milvus when an address is configured,
	// otherwise to the local SQLite scan.
	var vector driven.VectorSearcher = store
	if settings.Storage.MilvusAddress != "" {
		ms, err := milvus.New(context.Background(), milvus.Config{
			Address:    settings.Storage.MilvusAddress,
			Collection: settings.Storage.MilvusCollection,
		})
		if err != nil {
			return fmt.Errorf("connecting to milvus: %w", err)
		}
		vector = ms
		closers = append(closers, ms)
	}

	// Conversation history is optional; a failure to open the store
	// only disables follow-up context.
	var conversations driven.ConversationStore
	if cs, err := badgerstore.New(dataDir); err != nil {
		logger.Warn("Conversation store unavailable, history disabled: %v", err)
	} else {
		conversations = cs
		closers = append(closers, cs)
	}

	promptDir := ""
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}
	promptStore, err = file.NewPromptStore(promptDir)
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}
	closers = append(closers, promptStore)

	ranker, err := services.NewRanker(reranker, settings.Retrieval)
	if err != nil {
		return fmt.Errorf("creating ranker: %w", err)
	}
	closers = append(closers, closerFunc(func() error {
		ranker.Close()
		return nil
	}))

	retriever := services.NewRetriever(embedder, vector, store, settings.Retrieval)
	assembler := services.NewAssembler(promptStore, settings.Retrieval)
	askService = services.NewAskService(retriever, ranker, assembler, llm, conversations, settings.Retrieval)

	initComplete = true
	return nil
}

// shutdown closes wired services in reverse order.
func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Debug("close: %v", err)
		}
	}
	closers = nil
	initComplete = false
}

// closerFunc adapts a func to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }
