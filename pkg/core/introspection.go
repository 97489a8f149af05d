package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState is the observability snapshot of a Service: which repository
// backs it, which optional capabilities that repository offers, and the
// watch buffer currently in effect.
type ServiceState struct {
	RepositoryType  string `json:"repository_type"`
	EventBufferSize int    `json:"event_buffer_size"`
	Syncable        bool   `json:"syncable"`
	Watchable       bool   `json:"watchable"`
	Transactional   bool   `json:"transactional"`
	Sequenced       bool   `json:"sequenced"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := ServiceState{
		RepositoryType:  "unknown",
		EventBufferSize: s.eventBufferSize,
	}
	if s.repo == nil {
		return state
	}

	state.RepositoryType = "repository"
	if comp, ok := s.repo.(introspection.Component); ok {
		state.RepositoryType = comp.ComponentType()
	}
	_, state.Syncable = s.repo.(Syncable)
	_, state.Watchable = s.repo.(Watchable)
	_, state.Transactional = s.repo.(Transactional)
	_, state.Sequenced = s.repo.(Sequenced)

	return state
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "post-service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
