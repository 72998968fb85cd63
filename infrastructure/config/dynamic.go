package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DynamicConfigManager manages the engine's hot-reloadable resource caps
// (§5: MaxHopUpper, MaxSetBatch, MaxDeleteBatch, SearchPageCap) on top of the
// process-lifetime static Config.
type DynamicConfigManager struct {
	staticConfig *Config
	watcher      *ConfigWatcher
	store        ConfigStore

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex

	callbacks []ConfigChangeCallback

	logger *zap.Logger
}

// ConfigChangeCallback is called when engine limits change.
type ConfigChangeCallback func(oldConfig, newConfig *DynamicConfig)

// ConfigStore is an alternate persistence backend for dynamic config
// (e.g. a DynamoDB item) in front of the file watcher.
type ConfigStore interface {
	Load(ctx context.Context) (*DynamicConfig, error)
	Save(ctx context.Context, config *DynamicConfig) error
	Watch(ctx context.Context, onChange func(*DynamicConfig)) error
}

// NewDynamicConfigManager creates a new dynamic configuration manager. When
// configPath is empty, the manager falls back to the static Engine config and
// hot-reload is a no-op.
func NewDynamicConfigManager(staticConfig *Config, configPath string, logger *zap.Logger) (*DynamicConfigManager, error) {
	ctx, cancel := context.WithCancel(context.Background())

	var watcher *ConfigWatcher
	if configPath != "" {
		w, err := NewConfigWatcher(configPath, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create config watcher: %w", err)
		}
		watcher = w
	}

	manager := &DynamicConfigManager{
		staticConfig: staticConfig,
		watcher:      watcher,
		ctx:          ctx,
		cancel:       cancel,
		callbacks:    make([]ConfigChangeCallback, 0),
		logger:       logger,
	}

	if watcher != nil {
		watcher.OnChange(func(newConfig *DynamicConfig) {
			manager.handleConfigChange(newConfig)
		})
	}

	return manager, nil
}

// Start begins watching for configuration changes.
func (m *DynamicConfigManager) Start() error {
	if m.watcher != nil {
		m.watcher.Start()
	}

	go m.healthCheckLoop()

	m.logger.Info("Dynamic configuration manager started")
	return nil
}

// Stop stops the configuration manager.
func (m *DynamicConfigManager) Stop() {
	m.cancel()

	if m.watcher != nil {
		m.watcher.Stop()
	}

	m.logger.Info("Dynamic configuration manager stopped")
}

func (m *DynamicConfigManager) healthCheckLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.performHealthCheck()
		}
	}
}

func (m *DynamicConfigManager) performHealthCheck() {
	if m.watcher == nil {
		return
	}

	current := m.watcher.GetCurrent()
	if err := m.watcher.validateConfig(current); err != nil {
		m.logger.Error("Engine config health check failed", zap.Error(err))
	}
}

// handleConfigChange folds a reloaded Engine group into the static Config so
// callers that only hold a *Config (not the manager) still see fresh caps.
func (m *DynamicConfigManager) handleConfigChange(newConfig *DynamicConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.staticConfig.Engine
	m.staticConfig.Engine = newConfig.Engine

	if old.MaxHopUpper != newConfig.Engine.MaxHopUpper {
		m.logger.Info("MaxHopUpper changed",
			zap.Int("old", old.MaxHopUpper),
			zap.Int("new", newConfig.Engine.MaxHopUpper),
		)
	}
	if old.MaxSetBatch != newConfig.Engine.MaxSetBatch {
		m.logger.Info("MaxSetBatch changed",
			zap.Int("old", old.MaxSetBatch),
			zap.Int("new", newConfig.Engine.MaxSetBatch),
		)
	}
	if old.MaxDeleteBatch != newConfig.Engine.MaxDeleteBatch {
		m.logger.Info("MaxDeleteBatch changed",
			zap.Int("old", old.MaxDeleteBatch),
			zap.Int("new", newConfig.Engine.MaxDeleteBatch),
		)
	}

	for _, callback := range m.callbacks {
		go callback(nil, newConfig)
	}
}

// OnChange registers a callback for configuration changes.
func (m *DynamicConfigManager) OnChange(callback ConfigChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// GetConfig returns the current merged configuration.
func (m *DynamicConfigManager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.staticConfig
}

// GetEngineLimits returns the current engine resource caps, reloaded from
// file if a watcher is active.
func (m *DynamicConfigManager) GetEngineLimits() EngineConfig {
	if m.watcher == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.staticConfig.Engine
	}
	return m.watcher.GetLimits()
}

// UpdateLimit updates a single engine limit dynamically, persisting it via
// the file watcher so the change survives a restart.
func (m *DynamicConfigManager) UpdateLimit(limit string, value int) error {
	if m.watcher == nil {
		return fmt.Errorf("dynamic configuration not available")
	}

	config := m.watcher.GetCurrent()

	switch limit {
	case "hop_max":
		config.Engine.MaxHopUpper = value
	case "set_batch_max":
		config.Engine.MaxSetBatch = value
	case "delete_batch_max":
		config.Engine.MaxDeleteBatch = value
	case "search_page_cap":
		config.Engine.SearchPageCap = value
	default:
		return fmt.Errorf("unknown limit: %s", limit)
	}

	if err := m.watcher.SaveConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	m.logger.Info("Engine limit updated", zap.String("limit", limit), zap.Int("value", value))

	return nil
}
