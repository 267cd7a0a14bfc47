package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/responsa/internal/core/domain"
)

func TestNewSettingsStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewSettingsStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestSettingsStore_Load_MissingFile(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	settings, err := store.Load()

	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.False(t, settings.Embedding.IsConfigured())
	assert.False(t, settings.LLM.IsConfigured())

	// Retrieval defaults applied even without a file.
	assert.Equal(t, domain.DefaultTopKPerSource, settings.Retrieval.TopKPerSource)
	assert.Equal(t, domain.DefaultFusionK, settings.Retrieval.FusionK)
	assert.Equal(t, domain.DefaultGenerateTimeout, settings.Retrieval.GenerateTimeout)
}

func TestSettingsStore_SaveAndLoad(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	in := &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "nomic-embed-text",
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
			APIKey:   "sk-test",
			Model:    "gpt-4o-mini",
		},
		Retrieval: domain.RetrievalSettings{
			TopKPerSource: 10,
			FusionK:       30,
		},
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOllama, out.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", out.Embedding.Model)
	assert.Equal(t, "sk-test", out.LLM.APIKey)
	assert.Equal(t, 10, out.Retrieval.TopKPerSource)
	assert.Equal(t, 30, out.Retrieval.FusionK)

	// Unset values still receive defaults on load.
	assert.Equal(t, domain.DefaultRerankTopN, out.Retrieval.RerankTopN)
}

func TestSettingsStore_Load_ExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	t.Setenv("RESPONSA_TEST_KEY", "sk-from-env")

	content := `[llm]
provider = "openai"
api_key = "${RESPONSA_TEST_KEY}"
`
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	settings, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", settings.LLM.APIKey)
}

func TestSettingsStore_Load_Timeouts(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	content := `[retrieval]
embed_timeout = "2s"
generate_timeout = "90s"
`
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	settings, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, settings.Retrieval.EmbedTimeout)
	assert.Equal(t, 90*time.Second, settings.Retrieval.GenerateTimeout)
	assert.Equal(t, domain.DefaultSearchTimeout, settings.Retrieval.SearchTimeout)
}

func TestSettingsStore_Load_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(), []byte("not [valid toml"), 0600))

	_, err = store.Load()
	assert.Error(t, err)
}

func TestSettingsStore_Save_Permissions(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&domain.Settings{}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
