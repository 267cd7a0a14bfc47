package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/responsa/internal/core/domain"
)

// SettingsStore loads and saves the application settings as a TOML
// file. Environment references like ${OPENAI_API_KEY} inside the file
// are expanded on load, so secrets can stay out of the file itself.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
}

// NewSettingsStore creates a TOML-based settings store.
// If configDir is empty, defaults to ~/.responsa/config.toml.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".responsa")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads settings from disk. A missing file is not an error: it
// yields empty settings with retrieval defaults applied, matching a
// fresh installation.
func (s *SettingsStore) Load() (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			var settings domain.Settings
			settings.Retrieval.ApplyDefaults()
			return &settings, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.filePath, err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw settingsFile
	if err := toml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	settings := raw.toDomain()
	settings.Retrieval.ApplyDefaults()
	return settings, nil
}

// Save persists settings to disk with restricted permissions.
func (s *SettingsStore) Save(settings *domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(fromDomain(settings))
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", s.filePath, err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// duration wraps time.Duration so TOML files can carry human-readable
// values like "90s" instead of nanosecond integers.
type duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// settingsFile mirrors domain.Settings with TOML-friendly durations.
type settingsFile struct {
	Embedding domain.EmbeddingSettings `toml:"embedding"`
	LLM       domain.LLMSettings       `toml:"llm"`
	Reranker  domain.RerankerSettings  `toml:"reranker"`
	Storage   domain.StorageSettings   `toml:"storage"`
	Retrieval retrievalFile            `toml:"retrieval"`
}

type retrievalFile struct {
	TopKPerSource   int      `toml:"top_k_per_source,omitempty"`
	FusionK         int      `toml:"fusion_k,omitempty"`
	RerankTopN      int      `toml:"rerank_top_n,omitempty"`
	ExcerptLength   int      `toml:"excerpt_length,omitempty"`
	MaxHistoryTurns int      `toml:"max_history_turns,omitempty"`
	EmbedTimeout    duration `toml:"embed_timeout,omitempty"`
	SearchTimeout   duration `toml:"search_timeout,omitempty"`
	RerankTimeout   duration `toml:"rerank_timeout,omitempty"`
	GenerateTimeout duration `toml:"generate_timeout,omitempty"`
}

func (f *settingsFile) toDomain() *domain.Settings {
	return &domain.Settings{
		Embedding: f.Embedding,
		LLM:       f.LLM,
		Reranker:  f.Reranker,
		Storage:   f.Storage,
		Retrieval: domain.RetrievalSettings{
			TopKPerSource:   f.Retrieval.TopKPerSource,
			FusionK:         f.Retrieval.FusionK,
			RerankTopN:      f.Retrieval.RerankTopN,
			ExcerptLength:   f.Retrieval.ExcerptLength,
			MaxHistoryTurns: f.Retrieval.MaxHistoryTurns,
			EmbedTimeout:    time.Duration(f.Retrieval.EmbedTimeout),
			SearchTimeout:   time.Duration(f.Retrieval.SearchTimeout),
			RerankTimeout:   time.Duration(f.Retrieval.RerankTimeout),
			GenerateTimeout: time.Duration(f.Retrieval.GenerateTimeout),
		},
	}
}

func fromDomain(s *domain.Settings) *settingsFile {
	return &settingsFile{
		Embedding: s.Embedding,
		LLM:       s.LLM,
		Reranker:  s.Reranker,
		Storage:   s.Storage,
		Retrieval: retrievalFile{
			TopKPerSource:   s.Retrieval.TopKPerSource,
			FusionK:         s.Retrieval.FusionK,
			RerankTopN:      s.Retrieval.RerankTopN,
			ExcerptLength:   s.Retrieval.ExcerptLength,
			MaxHistoryTurns: s.Retrieval.MaxHistoryTurns,
			EmbedTimeout:    duration(s.Retrieval.EmbedTimeout),
			SearchTimeout:   duration(s.Retrieval.SearchTimeout),
			RerankTimeout:   duration(s.Retrieval.RerankTimeout),
			GenerateTimeout: duration(s.Retrieval.GenerateTimeout),
		},
	}
}
