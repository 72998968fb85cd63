package config

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigWatcher watches the engine-limits file for changes.
type ConfigWatcher struct {
	path        string
	watcher     *fsnotify.Watcher
	current     *DynamicConfig
	mu          sync.RWMutex
	onChange    []func(*DynamicConfig)
	logger      *zap.Logger
	stopCh      chan struct{}
	lastModTime time.Time
}

// DynamicConfig represents the runtime-changeable subset of Config: the
// engine's resource caps (§5) plus bookkeeping metadata. Everything else
// (backend selection, logging level, service name) is process-lifetime and
// is not hot-reloadable.
type DynamicConfig struct {
	Engine   EngineConfig   `yaml:"engine"`
	Metadata ConfigMetadata `yaml:"metadata"`
}

// ConfigMetadata holds metadata about the configuration.
type ConfigMetadata struct {
	Version   string    `yaml:"version"`
	UpdatedAt time.Time `yaml:"updatedAt"`
	UpdatedBy string    `yaml:"updatedBy"`
}

// NewConfigWatcher creates a new configuration watcher.
func NewConfigWatcher(configPath string, logger *zap.Logger) (*ConfigWatcher, error) {
	config, err := loadConfigFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		logger.Warn("Failed to watch config directory", zap.Error(err))
	}

	cw := &ConfigWatcher{
		path:        configPath,
		watcher:     watcher,
		current:     config,
		onChange:    make([]func(*DynamicConfig), 0),
		logger:      logger,
		stopCh:      make(chan struct{}),
		lastModTime: time.Now(),
	}

	return cw, nil
}

// Start begins watching for configuration changes.
func (w *ConfigWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes.
func (w *ConfigWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("Configuration watcher stopped")
}

func (w *ConfigWatcher) watchLoop() {
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					w.handleConfigChange()
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *ConfigWatcher) handleConfigChange() {
	w.logger.Info("Engine config file changed, reloading", zap.String("path", w.path))

	newConfig, err := loadConfigFromFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload engine config", zap.Error(err))
		return
	}

	if err := w.validateConfig(newConfig); err != nil {
		w.logger.Error("Invalid engine config, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	oldConfig := w.current
	w.current = newConfig
	w.mu.Unlock()

	w.logConfigChanges(oldConfig, newConfig)

	for _, handler := range w.onChange {
		go handler(newConfig)
	}

	w.logger.Info("Engine config reloaded successfully",
		zap.String("version", newConfig.Metadata.Version),
	)
}

// validateConfig enforces the same caps config.Config.Validate does, so a
// hot-reloaded limit can never exceed the hard bounds of §5.
func (w *ConfigWatcher) validateConfig(config *DynamicConfig) error {
	if config.Engine.MaxHopUpper <= 0 || config.Engine.MaxHopUpper > 5 {
		return fmt.Errorf("engine.maxHopUpper must be in [1,5]")
	}
	if config.Engine.MaxSetBatch <= 0 {
		return fmt.Errorf("engine.maxSetBatch must be positive")
	}
	if config.Engine.MaxDeleteBatch <= 0 {
		return fmt.Errorf("engine.maxDeleteBatch must be positive")
	}
	if config.Engine.SearchPageCap <= 0 {
		return fmt.Errorf("engine.searchPageCap must be positive")
	}

	return nil
}

func (w *ConfigWatcher) logConfigChanges(oldConfig, newConfig *DynamicConfig) {
	changes := []string{}

	if oldConfig.Engine.MaxHopUpper != newConfig.Engine.MaxHopUpper {
		changes = append(changes, fmt.Sprintf("MaxHopUpper: %d -> %d", oldConfig.Engine.MaxHopUpper, newConfig.Engine.MaxHopUpper))
	}
	if oldConfig.Engine.MaxSetBatch != newConfig.Engine.MaxSetBatch {
		changes = append(changes, fmt.Sprintf("MaxSetBatch: %d -> %d", oldConfig.Engine.MaxSetBatch, newConfig.Engine.MaxSetBatch))
	}
	if oldConfig.Engine.MaxDeleteBatch != newConfig.Engine.MaxDeleteBatch {
		changes = append(changes, fmt.Sprintf("MaxDeleteBatch: %d -> %d", oldConfig.Engine.MaxDeleteBatch, newConfig.Engine.MaxDeleteBatch))
	}
	if oldConfig.Engine.SearchPageCap != newConfig.Engine.SearchPageCap {
		changes = append(changes, fmt.Sprintf("SearchPageCap: %d -> %d", oldConfig.Engine.SearchPageCap, newConfig.Engine.SearchPageCap))
	}

	if len(changes) > 0 {
		w.logger.Info("Engine limits changed", zap.Strings("changes", changes))
	}
}

// OnChange registers a callback for configuration changes.
func (w *ConfigWatcher) OnChange(handler func(*DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// GetCurrent returns the current configuration.
func (w *ConfigWatcher) GetCurrent() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// GetLimits returns the current engine limits.
func (w *ConfigWatcher) GetLimits() EngineConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current.Engine
}

func loadConfigFromFile(path string) (*DynamicConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config DynamicConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse engine config YAML: %w", err)
	}

	if config.Metadata.Version == "" {
		config.Metadata.Version = "1.0.0"
	}
	config.Metadata.UpdatedAt = time.Now()

	return &config, nil
}

// SaveConfig saves the current configuration to file.
func (w *ConfigWatcher) SaveConfig(config *DynamicConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	config.Metadata.UpdatedAt = time.Now()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := w.path + ".tmp"
	if err := ioutil.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	if err := rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	w.current = config
	return nil
}

func rename(oldPath, newPath string) error {
	return ioutil.WriteFile(newPath, mustReadFile(oldPath), 0644)
}

func mustReadFile(path string) []byte {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return data
}
