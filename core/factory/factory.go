package factory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// ErrUnknownType is returned by Create when no factory is registered under
// the requested type name.
var ErrUnknownType = errors.New("unknown module type")

// ModuleConfig names a module type and carries its raw settings.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory builds a T from raw settings.
type Factory[T any] func(conf map[string]any) (T, error)

// Registry maps type names to factories. Names are case-insensitive.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Register adds f under name. Empty names, nil factories and duplicates are
// rejected.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	key := normalize(name)
	switch {
	case key == "":
		return errors.New("factory: empty type name")
	case f == nil:
		return fmt.Errorf("factory: nil factory for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[key]; dup {
		return fmt.Errorf("factory: %q already registered", key)
	}
	r.factories[key] = f
	return nil
}

// Has reports whether a factory is registered under name.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalize(name)]
	return ok
}

// Names lists the registered types, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create builds the module described by cfg. Errors from the factory are
// prefixed with the type name.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	key := normalize(cfg.Type)
	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w %q (known: %s)", ErrUnknownType, cfg.Type, strings.Join(r.Names(), ", "))
	}
	v, err := f(cfg.Conf)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// Decode maps raw settings onto out using json tags. Numeric strings such
// as "20" are accepted since environment overrides arrive as text. Keys out
// does not declare are an error.
func Decode(conf map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(conf)
}
