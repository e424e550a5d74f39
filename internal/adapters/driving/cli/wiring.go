package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/askdoc/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdoc/internal/adapters/driven/embedding/cached"
	embopenai "github.com/custodia-labs/askdoc/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/askdoc/internal/adapters/driven/extract"
	"github.com/custodia-labs/askdoc/internal/adapters/driven/llm/anthropic"
	llmopenai "github.com/custodia-labs/askdoc/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/askdoc/internal/adapters/driven/scoring"
	"github.com/custodia-labs/askdoc/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/askdoc/internal/adapters/driven/vector/sqlite"
	"github.com/custodia-labs/askdoc/internal/chunker"
	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/core/services"
	"github.com/custodia-labs/askdoc/internal/vectorstore"
)

// app bundles the wired services plus everything that needs closing.
type app struct {
	config   file.Config
	ingestor *services.Ingestor
	answerer *services.Orchestrator
	status   *services.Status

	embedder driven.EmbeddingService
	llm      driven.LLMService
	store    *vectorstore.Store
	local    *sqlite.Index
}

// buildApp loads configuration and constructs the full service graph.
// API keys come from the environment, never from the config file.
func buildApp(ctx context.Context) (*app, error) {
	cfgStore, err := file.New(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := cfgStore.Load()
	if err != nil {
		return nil, err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	// The local index always exists: it holds document and chunk
	// metadata even when the vector mode is remote-only.
	local, err := sqlite.New(os.Getenv("ASKDOC_DATA_DIR"), embedder.Dimensions(), embedder.ModelName())
	if err != nil {
		embedder.Close()
		return nil, err
	}

	var remote driven.VectorBackend
	if cfg.Settings.StoreMode.UsesRemote() {
		if cfg.Providers.QdrantURL == "" {
			local.Close()
			embedder.Close()
			return nil, fmt.Errorf("store mode %s requires providers.qdrant_url in the config", cfg.Settings.StoreMode)
		}
		remote, err = qdrant.New(ctx, qdrant.Config{
			URL:        cfg.Providers.QdrantURL,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			Collection: cfg.Providers.QdrantCollection,
			Dimension:  embedder.Dimensions(),
		})
		if err != nil {
			local.Close()
			embedder.Close()
			return nil, err
		}
	}

	store, err := vectorstore.New(cfg.Settings.StoreMode, local, remote)
	if err != nil {
		local.Close()
		embedder.Close()
		return nil, err
	}

	llm, err := buildLLM(cfg)
	if err != nil {
		local.Close()
		embedder.Close()
		return nil, err
	}

	scorer, err := buildScorer(cfg, llm)
	if err != nil {
		llm.Close()
		local.Close()
		embedder.Close()
		return nil, err
	}

	engine, err := chunker.New(cfg.Settings.Chunking.ChunkSize, cfg.Settings.Chunking.Overlap)
	if err != nil {
		llm.Close()
		local.Close()
		embedder.Close()
		return nil, err
	}

	extractor := extract.New(extract.Config{})
	retriever := services.NewRetriever(embedder, store, cfg.Settings.Budgets)
	synthesizer := services.NewSynthesizer(llm, scorer, cfg.Settings.Budgets)

	return &app{
		config:   cfg,
		ingestor: services.NewIngestor(extractor, engine, embedder, store, local, cfg.Settings.Budgets),
		answerer: services.NewOrchestrator(retriever, synthesizer, local, cfg.Settings),
		status:   services.NewStatus(store),
		embedder: embedder,
		llm:      llm,
		store:    store,
		local:    local,
	}, nil
}

func (a *app) Close() {
	a.llm.Close()
	a.embedder.Close()
	a.store.Close()
}

func buildEmbedder(cfg file.Config) (driven.EmbeddingService, error) {
	switch cfg.Providers.Embedding {
	case domain.AIProviderOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		inner, err := embopenai.New(embopenai.Config{
			APIKey:  key,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   cfg.Providers.EmbeddingModel,
		})
		if err != nil {
			return nil, err
		}
		return cached.New(inner, 0), nil
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not provide an embeddings API, set providers.embedding = \"openai\"")
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Providers.Embedding)
	}
}

func buildLLM(cfg file.Config) (driven.LLMService, error) {
	switch cfg.Providers.LLM {
	case domain.AIProviderOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return llmopenai.New(llmopenai.Config{
			APIKey:  key,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   cfg.Providers.LLMModel,
		})
	case domain.AIProviderAnthropic:
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return anthropic.New(anthropic.Config{
			APIKey: key,
			Model:  cfg.Providers.LLMModel,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Providers.LLM)
	}
}

func buildScorer(cfg file.Config, llm driven.LLMService) (driven.AnswerScorer, error) {
	switch cfg.Providers.Scorer {
	case "", "lexical":
		return scoring.NewLexical(), nil
	case "llm-judge":
		return scoring.NewJudge(llm), nil
	default:
		return nil, fmt.Errorf("unknown scorer %q (want \"lexical\" or \"llm-judge\")", cfg.Providers.Scorer)
	}
}
