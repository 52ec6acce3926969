package engine

import (
	"fmt"
	"sync"
	"time"
)

// FactoryConfig configures backend construction.
type FactoryConfig struct {
	// PreferredType is the backend used for TypeAuto.
	PreferredType Type

	// Workers is the size of the pdfium worker pool. Zero means one
	// worker, which is enough for a single cooperative viewer.
	Workers int

	// InstanceTimeout bounds how long an Open waits for a free pdfium
	// worker.
	InstanceTimeout time.Duration
}

// DefaultFactoryConfig returns the factory defaults.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		PreferredType:   TypePdfium,
		Workers:         1,
		InstanceTimeout: 30 * time.Second,
	}
}

// Factory creates and owns engine handles. Backends are created lazily, at
// most once per factory, and disposed together with it. The factory is meant
// to live in the top-level application context and be injected into whoever
// needs an engine; nothing in this package holds global state.
type Factory struct {
	config FactoryConfig

	mu      sync.Mutex
	engines map[Type]Engine
	closed  bool
}

// NewFactory creates a factory with the given configuration.
func NewFactory(config FactoryConfig) *Factory {
	if config.PreferredType == "" || config.PreferredType == TypeAuto {
		config.PreferredType = TypePdfium
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.InstanceTimeout <= 0 {
		config.InstanceTimeout = 30 * time.Second
	}
	return &Factory{
		config:  config,
		engines: make(map[Type]Engine),
	}
}

// Engine returns the backend for the given type, creating it on first use.
// The pdfium worker pool is initialized here, behind the factory lock, so it
// comes up at most once per process no matter how many callers race.
func (f *Factory) Engine(t Type) (Engine, error) {
	if t == TypeAuto || t == "" {
		t = f.config.PreferredType
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fmt.Errorf("engine factory is closed")
	}
	if e, ok := f.engines[t]; ok {
		return e, nil
	}

	var (
		e   Engine
		err error
	)
	switch t {
	case TypePdfium:
		e, err = newPdfiumEngine(f.config)
	case TypeLayout:
		e = newLayoutEngine()
	default:
		return nil, fmt.Errorf("unknown engine type: %s", t)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s engine: %w", t, err)
	}

	f.engines[t] = e
	return e, nil
}

// PreferredType returns the backend TypeAuto resolves to.
func (f *Factory) PreferredType() Type {
	return f.config.PreferredType
}

// SupportedTypes lists the backends this factory can create.
func (f *Factory) SupportedTypes() []Type {
	return []Type{TypePdfium, TypeLayout, TypeAuto}
}

// ValidateType checks that t names a creatable backend.
func (f *Factory) ValidateType(t Type) error {
	for _, s := range f.SupportedTypes() {
		if t == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported engine type: %s", t)
}

// Close disposes every backend the factory created. The factory cannot be
// used afterwards.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var firstErr error
	for t, e := range f.engines {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s engine: %w", t, err)
		}
		delete(f.engines, t)
	}
	return firstErr
}
