package assist

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"relationship-notes-service/internal/observability/logging"
)

// PromptConfig captures the instruction wrapped around the user's notes
// before they are sent upstream.
type PromptConfig struct {
	Instruction string `yaml:"instruction" json:"instruction"`
}

// DefaultPromptConfig returns the baked-in instruction.
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		Instruction: `You are a CRM note-taking assistant.
Expand the rough interaction notes below into 2-4 concise, professional
sentences. Keep every fact from the notes; never invent details. Suggest a
concrete follow-up action when one is implied.`,
	}
}

// TemplateManager holds the current prompt configuration and hot-reloads it
// when the backing YAML file changes.
type TemplateManager struct {
	mu      sync.RWMutex
	cfg     PromptConfig
	path    string
	watcher *fsnotify.Watcher
}

// NewTemplateManager loads path (YAML) if non-empty, falling back to the
// defaults for missing fields, and watches the file for edits.
func NewTemplateManager(path string) (*TemplateManager, error) {
	tm := &TemplateManager{cfg: DefaultPromptConfig(), path: path}
	if path == "" {
		return tm, nil
	}

	if err := tm.load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	tm.watcher = watcher
	go tm.watch()

	return tm, nil
}

// Current returns the active prompt configuration.
func (tm *TemplateManager) Current() PromptConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.cfg
}

// BuildPrompt wraps the user's notes with the active instruction.
func (tm *TemplateManager) BuildPrompt(notes string) string {
	cfg := tm.Current()
	if strings.TrimSpace(cfg.Instruction) == "" {
		return notes
	}
	return cfg.Instruction + "\n\nNotes:\n" + notes
}

// Close stops the file watcher.
func (tm *TemplateManager) Close() error {
	if tm.watcher != nil {
		return tm.watcher.Close()
	}
	return nil
}

func (tm *TemplateManager) load() error {
	raw, err := os.ReadFile(tm.path)
	if err != nil {
		return err
	}
	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	tm.mu.Lock()
	tm.cfg = cfg
	tm.mu.Unlock()
	return nil
}

func (tm *TemplateManager) watch() {
	logger := logging.WithComponent("assist")
	for {
		select {
		case evt, ok := <-tm.watcher.Events:
			if !ok {
				return
			}
			if evt.Name != tm.path {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := tm.load(); err != nil {
				logger.Warn().Err(err).Str("path", tm.path).Msg("prompt config reload failed")
				continue
			}
			logger.Info().Str("path", tm.path).Msg("prompt config reloaded")
		case err, ok := <-tm.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("prompt config watcher error")
		}
	}
}
