package platform

import (
	"github.com/postbed/postbed/pkg/core"
)

// New builds a core.Service over an initialized vault at the given URI.
// The URI is adapter-specific (a file path for "fs").
func New(uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	service := core.NewService(repo)

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if size, ok := o.config["event_buffer"].(int); ok {
		service.SetEventBuffer(size)
	}

	return service, nil
}
