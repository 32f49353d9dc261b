package algo

import "sync"

// Registry resolves an algorithm symbol at plan time: dispatch is by name
// against a registered table of Algorithm implementations.
type Registry struct {
	mu    sync.RWMutex
	algos map[string]Algorithm
}

func NewRegistry() *Registry {
	return &Registry{algos: make(map[string]Algorithm)}
}

// NewDefaultRegistry returns a Registry pre-populated with every algorithm
// this module ships.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(DegreeCentrality{})
	r.MustRegister(MaxProbabilityPath{})
	r.MustRegister(TopKProbabilityPaths{})
	r.MustRegister(ReachabilityProbability{})
	return r
}

func (r *Registry) Register(a Algorithm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.algos[a.Name()]; exists {
		return Error{Kind: "DuplicateAlgorithm", Message: "algorithm " + a.Name() + " already registered"}
	}
	r.algos[a.Name()] = a
	return nil
}

func (r *Registry) MustRegister(a Algorithm) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Algorithm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.algos[name]
	return a, ok
}
