package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/responsa/internal/core/ports/driven"
	"github.com/custodia-labs/responsa/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to
// embedded defaults.
//
// The store uses lazy initialisation - files are only created when
// first accessed, not in the constructor. This makes testing easier
// and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// defaultPrompts contains embedded default prompts. They stay in sync
// with the engine's built-in fallbacks so an edited file and a missing
// file behave the same on a fresh install.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptGroundedAnswer: `You are a careful assistant that answers questions using ONLY the numbered source passages below.

Rules:
- Base every claim on the passages. Mark each claim with its source number, like [1] or [2].
- If the passages do not contain the answer, say so plainly. Do not guess and do not use outside knowledge.
- Answer in the language of the question.

Source passages:
{{context}}

{{history}}Question: {{question}}

Answer:`,

	driven.PromptSuggestions: `Given this question and answer, suggest up to 3 short follow-up questions the user might ask next. Return one question per line, no numbering, no other text.

Question: {{question}}

Answer: {{answer}}`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.responsa/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".responsa", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() error {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
	return nil
}

// Watch starts watching the prompt directory and reloads the cache
// whenever a prompt file changes, so edits take effect without a
// restart. Calling Watch twice is an error; Close stops the watcher.
func (s *PromptStore) Watch() error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}
	if s.watcher != nil {
		return fmt.Errorf("prompt store already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.promptDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})
	go s.watchLoop()
	return nil
}

// watchLoop drains watcher events until Close.
func (s *PromptStore) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".txt" {
				continue
			}
			logger.Debug("Prompt file changed, reloading: %s", event.Name)
			_ = s.Reload()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Prompt watcher error: %v", err)

		case <-s.done:
			return
		}
	}
}

// Close stops the file watcher if one is running.
func (s *PromptStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Responsa Prompts

This directory contains customisable prompts used when generating
grounded answers.

## Files

- ` + "`grounded_answer.txt`" + ` - Instruction template for citation-grounded answers
- ` + "`suggest_questions.txt`" + ` - Template for follow-up question suggestions

## Customisation

Edit any file to customise behaviour. Changes take effect on the next
question while the server is running.

## Placeholders

Templates use double-brace placeholders:
- ` + "`{{context}}`" + ` - The numbered source passages
- ` + "`{{history}}`" + ` - Recent conversation turns (may be empty)
- ` + "`{{question}}`" + ` - The user's question
- ` + "`{{answer}}`" + ` - The generated answer (suggestions only)

Ensure customised prompts keep the placeholders they need.
`
	return os.WriteFile(path, []byte(content), 0600)
}
