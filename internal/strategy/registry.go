package strategy

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Constructor returns a fresh, uninitialized strategy instance.
type Constructor func() runtime.Strategy

// Describer is implemented by strategies that publish a parameter schema.
type Describer interface {
	ParametersSchema() (string, error)
}

// Registry maps strategy names to constructors. Every Create call returns a
// new instance so concurrent runs never share strategy state.
type Registry struct {
	constructors map[string]Constructor
	mu           sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
	}
}

// DefaultRegistry returns a registry holding the built-in strategies.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	// built-in names are distinct, so registration cannot fail
	_ = registry.Register(SMACrossoverName, NewSMACrossover)
	_ = registry.Register(ScoreCrossName, NewScoreCross)

	return registry
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, constructor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" || constructor == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "strategy name and constructor are required")
	}

	if _, exists := r.constructors[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyRegistered, "strategy %s already registered", name)
	}

	r.constructors[name] = constructor

	return nil
}

// New returns an uninitialized instance of the named strategy.
func (r *Registry) New(name string) (runtime.Strategy, error) {
	r.mu.RLock()
	constructor, exists := r.constructors[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %s not found", name)
	}

	return constructor(), nil
}

// Create returns a new instance of the named strategy initialized with params.
func (r *Registry) Create(name string, params map[string]any) (runtime.Strategy, error) {
	strategy, err := r.New(name)
	if err != nil {
		return nil, err
	}

	if err := strategy.Initialize(params); err != nil {
		if errors.HasCode(err, errors.ErrCodeStrategyConfigError) {
			return nil, err
		}

		return nil, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to initialize strategy %s", name)
	}

	return strategy, nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ParameterRanges returns the default sweep of the named strategy, or nil
// when it does not publish one.
func (r *Registry) ParameterRanges(name string) (map[string]runtime.ParameterRange, error) {
	strategy, err := r.New(name)
	if err != nil {
		return nil, err
	}

	optimizable, ok := strategy.(runtime.Optimizable)
	if !ok {
		return nil, nil
	}

	return optimizable.ParameterRanges(), nil
}

// Schema returns the parameter JSON schema of the named strategy.
func (r *Registry) Schema(name string) (string, error) {
	strategy, err := r.New(name)
	if err != nil {
		return "", err
	}

	describer, ok := strategy.(Describer)
	if !ok {
		return "{}", nil
	}

	return describer.ParametersSchema()
}
