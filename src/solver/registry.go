package solver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrUnknownSolver is returned when no solver is registered for a puzzle type.
	ErrUnknownSolver = errors.New("solver: unknown puzzle type")
	// ErrInvalidPayload is returned when a payload does not match the solver's schema.
	ErrInvalidPayload = errors.New("solver: invalid payload")
)

// Func solves one puzzle payload. Implementations must not keep or mutate it.
type Func func(payload json.RawMessage) (any, error)

type entry struct {
	solve  Func
	schema *jsonschema.Schema
}

// Registry maps puzzle types to solvers.
type Registry struct {
	mu      sync.RWMutex
	solvers map[string]entry
}

// NewRegistry returns an empty registry ready for registration.
func NewRegistry() *Registry {
	return &Registry{solvers: map[string]entry{}}
}

// NewDefault returns a registry with the built-in solvers registered.
func NewDefault() *Registry {
	r := NewRegistry()
	for _, b := range builtins {
		if err := r.Register(b.puzzleType, b.solve, b.schema); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a solver. schema is an optional JSON Schema document the
// payload must satisfy before fn is called.
func (r *Registry) Register(puzzleType string, fn Func, schema string) error {
	if fn == nil {
		return fmt.Errorf("solver.Registry: nil solver for %q", puzzleType)
	}
	if strings.TrimSpace(puzzleType) == "" {
		return fmt.Errorf("solver.Registry: solver missing puzzle type")
	}

	e := entry{solve: fn}
	if strings.TrimSpace(schema) != "" {
		compiled, err := jsonschema.CompileString(url.PathEscape(puzzleType)+".schema.json", schema)
		if err != nil {
			return fmt.Errorf("solver.Registry: compile schema for %q: %w", puzzleType, err)
		}
		e.schema = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.solvers[puzzleType]; exists {
		return fmt.Errorf("solver.Registry: solver %q already registered", puzzleType)
	}
	r.solvers[puzzleType] = e
	return nil
}

// Solve dispatches payload to the solver registered for exactly puzzleType.
func (r *Registry) Solve(puzzleType string, payload json.RawMessage) (any, error) {
	r.mu.RLock()
	e, ok := r.solvers[puzzleType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, puzzleType)
	}

	if e.schema != nil {
		if err := validate(e.schema, payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, puzzleType, err)
		}
	}
	return e.solve(payload)
}

// Types lists registered puzzle types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.solvers))
	for k := range r.solvers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func validate(schema *jsonschema.Schema, payload json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return schema.Validate(doc)
}
