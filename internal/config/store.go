package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	_ "embed"
)

//go:embed schema.json
var schemaJSON []byte

var (
	compileSchemaOnce sync.Once
	settingsSchema    *jsonschema.Schema
	settingsSchemaErr error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("settings.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			settingsSchemaErr = err
			return
		}
		settingsSchema, settingsSchemaErr = c.Compile("settings.schema.json")
	})
	return settingsSchema, settingsSchemaErr
}

// ErrUnsupportedFormat is returned for settings files whose extension is not
// .toml, .json, .yaml, or .yml.
var ErrUnsupportedFormat = errors.New("unsupported settings format")

// Store holds the current configuration and user dictionary, replaced
// wholesale on every successful load. Reads are cheap and lock briefly;
// callers must not mutate the returned values.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
	dict *Dictionary
	log  *slog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore creates a store seeded with defaults and an empty dictionary.
// Call Load to read the settings file.
func NewStore(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		path: path,
		cfg:  Default(),
		dict: BuildDictionary(nil, log),
		log:  log,
	}
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// Config returns the current configuration. Never nil.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Dictionary returns the current user dictionary. Never nil.
func (s *Store) Dictionary() *Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dict
}

// Load re-reads the settings file, validates it, and replaces the in-memory
// config and dictionary wholesale. On any failure the previous state is
// kept and the error is reported for logging only: a broken settings file
// degrades the session, it never halts it.
func (s *Store) Load() error {
	cfg, err := loadFile(s.path)
	if err != nil {
		s.log.Warn("settings not applied, keeping previous state", "path", s.path, "error", err)
		return err
	}
	cfg.normalize()
	dict := BuildDictionary(cfg.Dictionary.Entries, s.log)

	s.mu.Lock()
	s.cfg = cfg
	s.dict = dict
	s.mu.Unlock()

	s.log.Info("settings loaded", "path", s.path, "dictionary_readings", dict.Len())
	return nil
}

// loadFile reads, schema-validates, and decodes one settings file.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))

	// Decode to a generic document first and validate against the schema
	// before committing to the typed decode.
	var doc map[string]any
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	// Normalize through JSON so the validator sees canonical JSON types
	// regardless of which decoder produced the document.
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize settings: %w", err)
	}
	var instance any
	if err := json.Unmarshal(jsonDoc, &instance); err != nil {
		return nil, fmt.Errorf("normalize settings: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	cfg := &Config{}
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}
	return cfg, nil
}

// Watch starts watching the settings file's directory and reloads on write,
// invoking onChange after each successful reload. The callback runs on the
// watcher goroutine; the bridge serializes it through its session mutex.
func (s *Store) Watch(onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch settings directory: %w", err)
	}
	s.watcher = watcher
	s.done = make(chan struct{})

	go s.watchLoop(onChange)
	return nil
}

func (s *Store) watchLoop(onChange func()) {
	// Settings UIs write-then-rename; debounce collapses the burst.
	var debounce *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				if err := s.Load(); err != nil {
					return
				}
				if onChange != nil {
					onChange()
				}
			})

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("settings watcher error", "error", err)
		}
	}
}

// Close stops the watcher, if running.
func (s *Store) Close() error {
	if s.watcher != nil {
		close(s.done)
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}
