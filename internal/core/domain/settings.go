package domain

import "time"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API. Generation only;
	// Anthropic offers no embedding models.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// EmbeddingDimensions maps known embedding models to their vector
// sizes. Unknown models fall back to provider defaults.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"all-minilm":             384,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider AIProvider `toml:"provider"`
	BaseURL  string     `toml:"base_url"`
	APIKey   string     `toml:"api_key"`
	Model    string     `toml:"model"`
}

// IsConfigured returns true when a provider has been selected.
func (s *EmbeddingSettings) IsConfigured() bool {
	return s != nil && s.Provider != ""
}

// LLMSettings configures the generation provider.
type LLMSettings struct {
	Provider AIProvider `toml:"provider"`
	BaseURL  string     `toml:"base_url"`
	APIKey   string     `toml:"api_key"`
	Model    string     `toml:"model"`
}

// IsConfigured returns true when a provider has been selected.
func (s *LLMSettings) IsConfigured() bool {
	return s != nil && s.Provider != ""
}

// RerankerSettings configures the cross-encoder re-ranking provider.
// The re-ranker is optional: without it the engine falls back to fused
// order, degraded but functional.
type RerankerSettings struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// IsConfigured returns true when a re-ranking endpoint has been set.
func (s *RerankerSettings) IsConfigured() bool {
	return s != nil && (s.BaseURL != "" || s.APIKey != "")
}

// StorageSettings configures the corpus and conversation stores.
type StorageSettings struct {
	// DataDir is the root directory for local stores
	// (default ~/.responsa/data).
	DataDir string `toml:"data_dir"`

	// MilvusAddress, when set, routes vector retrieval to a Milvus
	// deployment instead of the local SQLite scan.
	MilvusAddress string `toml:"milvus_address"`

	// MilvusCollection is the Milvus collection name (default "passages").
	MilvusCollection string `toml:"milvus_collection"`
}

// RetrievalSettings tunes the two-stage retrieve-then-rerank pipeline.
// The defaults mirror common practice; none of the numeric values is a
// correctness requirement.
type RetrievalSettings struct {
	// TopKPerSource is the candidate count requested from each
	// retriever before fusion.
	TopKPerSource int `toml:"top_k_per_source"`

	// FusionK is the reciprocal rank fusion constant.
	FusionK int `toml:"fusion_k"`

	// RerankTopN is the passage count kept after re-ranking and sent
	// to generation.
	RerankTopN int `toml:"rerank_top_n"`

	// ExcerptLength bounds citation excerpts, in runes.
	ExcerptLength int `toml:"excerpt_length"`

	// MaxHistoryTurns bounds conversation history included in prompts.
	MaxHistoryTurns int `toml:"max_history_turns"`

	// EmbedTimeout bounds the query embedding call.
	EmbedTimeout time.Duration `toml:"embed_timeout"`

	// SearchTimeout bounds each retrieval call independently. A
	// retrieval timeout degrades rather than failing the request.
	SearchTimeout time.Duration `toml:"search_timeout"`

	// RerankTimeout bounds the re-ranking stage. On expiry the stage
	// falls back to fused order.
	RerankTimeout time.Duration `toml:"rerank_timeout"`

	// GenerateTimeout bounds generation. On expiry the ask fails: a
	// partial, un-terminated answer is never reported as done.
	GenerateTimeout time.Duration `toml:"generate_timeout"`
}

// Settings is the full application configuration.
type Settings struct {
	Embedding EmbeddingSettings `toml:"embedding"`
	LLM       LLMSettings       `toml:"llm"`
	Reranker  RerankerSettings  `toml:"reranker"`
	Storage   StorageSettings   `toml:"storage"`
	Retrieval RetrievalSettings `toml:"retrieval"`
}

// Default tuning values.
const (
	DefaultTopKPerSource   = 25
	DefaultFusionK         = 60
	DefaultRerankTopN      = 5
	DefaultExcerptLength   = 280
	DefaultMaxHistoryTurns = 5

	DefaultEmbedTimeout    = 10 * time.Second
	DefaultSearchTimeout   = 10 * time.Second
	DefaultRerankTimeout   = 15 * time.Second
	DefaultGenerateTimeout = 120 * time.Second
)

// ApplyDefaults fills unset tuning values.
func (s *RetrievalSettings) ApplyDefaults() {
	if s.TopKPerSource <= 0 {
		s.TopKPerSource = DefaultTopKPerSource
	}
	if s.FusionK <= 0 {
		s.FusionK = DefaultFusionK
	}
	if s.RerankTopN <= 0 {
		s.RerankTopN = DefaultRerankTopN
	}
	if s.ExcerptLength <= 0 {
		s.ExcerptLength = DefaultExcerptLength
	}
	if s.MaxHistoryTurns <= 0 {
		s.MaxHistoryTurns = DefaultMaxHistoryTurns
	}
	if s.EmbedTimeout <= 0 {
		s.EmbedTimeout = DefaultEmbedTimeout
	}
	if s.SearchTimeout <= 0 {
		s.SearchTimeout = DefaultSearchTimeout
	}
	if s.RerankTimeout <= 0 {
		s.RerankTimeout = DefaultRerankTimeout
	}
	if s.GenerateTimeout <= 0 {
		s.GenerateTimeout = DefaultGenerateTimeout
	}
}
