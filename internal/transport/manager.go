package transport

import (
	"context"
	"sync"

	"execauth/internal/config"
	"execauth/internal/execcred"
	"execauth/pkg/logging"
)

// Manager owns a credential provider built from the config file and rebuilds
// it when the file changes. The previous provider (and its cached
// credential) stays in service when a reload fails, so a bad edit never
// takes down a working client.
type Manager struct {
	mu       sync.RWMutex
	provider *execcred.Provider

	configFile string
	watcher    *config.Watcher
}

// NewManager loads the config file, builds the initial provider and starts
// watching the file for changes. An empty configFile selects the default
// location (~/.config/execauth/config.yaml).
func NewManager(configFile string) (*Manager, error) {
	if configFile == "" {
		configFile = config.DefaultConfigFilePath()
	}

	m := &Manager{configFile: configFile}
	if err := m.reload(); err != nil {
		return nil, err
	}

	m.watcher = config.NewWatcher(configFile, m.onConfigChange)
	if err := m.watcher.Start(); err != nil {
		// Watching is an optimization; a manager without it still works,
		// it just needs a restart to pick up config edits.
		logging.Warn("Transport", "Config watching unavailable for %s: %v", configFile, err)
	}

	return m, nil
}

// GetCredential implements CredentialSource using the current provider.
func (m *Manager) GetCredential(ctx context.Context) (*execcred.Credential, error) {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()
	return provider.GetCredential(ctx)
}

// Close stops the config watcher. The current provider stays usable.
func (m *Manager) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
}

// reload loads and validates the config file and swaps in a fresh provider.
func (m *Manager) reload() error {
	cfg, err := config.LoadConfigFile(m.configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	provider, err := execcred.NewProvider(cfg.Exec, cfg.Timeout.Duration)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.provider = provider
	m.mu.Unlock()

	logging.Info("Transport", "Credential provider configured with plugin %s", cfg.Exec.Command)
	return nil
}

func (m *Manager) onConfigChange() {
	if err := m.reload(); err != nil {
		logging.Error("Transport", err, "Reloading %s failed, keeping previous provider", m.configFile)
	}
}
