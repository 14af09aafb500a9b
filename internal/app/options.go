package app

import (
	"github.com/AlisDesai/SkillBridge-sub001/internal/adapters/cache"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a cache store, replacing the one Start would build
// from configuration. Tests use this to supply an in-memory stub.
func WithStore(store cache.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
