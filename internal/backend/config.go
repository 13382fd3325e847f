package backend

import (
	"errors"
	"fmt"
	"net/url"

	"freedom/internal/config"
)

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:           BackendType(appConfig.DataBackend),
		GraphQLURL:     appConfig.GraphQLURL,
		GraphQLTimeout: appConfig.GraphQLTimeout,
		SQLiteDBPath:   appConfig.SQLiteDBPath,
		AMQPURL:        appConfig.AMQPURL,
		AMQPExchange:   appConfig.AMQPExchange,
		AMQPQueue:      appConfig.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the selected backend needs. AMQP stays
// optional for every backend.
func (c Config) Validate() error {
	switch c.Type {
	case GraphQLBackend:
		u, err := url.Parse(c.GraphQLURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("graphql backend needs an absolute endpoint URL, got %q", c.GraphQLURL)
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite backend needs a database path")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("invalid backend type %q, must be one of %v", c.Type, BackendTypes())
	}
	return nil
}

// BackendTypes lists the selectable backends.
func BackendTypes() []BackendType {
	return []BackendType{GraphQLBackend, SQLiteBackend, MemoryBackend}
}
