package commands

import (
	"sync"

	"github.com/spf13/viper"
)

// ConfigPersister writes token updates to the config file.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateToken stores token under key (token or preview_token) and makes it
// effective for the running command.
func (p *ConfigPersister) UpdateToken(key, token string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()

	err := setConfigValue(config, key, token)
	if err != nil {
		return err
	}

	err = saveConfigStruct(config)
	if err != nil {
		return err
	}

	viper.Set(key, token)

	return nil
}
