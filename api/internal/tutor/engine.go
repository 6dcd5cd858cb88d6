package tutor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"stemmate/api/internal/tutor/types"
)

var ErrNoBackend = errors.New("no backend for model")

// Completer - узкий контракт бэкенда: (model, messages) -> text.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req types.ChatRequest) (string, error)
}

// CompleterFunc allows functions to implement Completer.
type CompleterFunc func(ctx context.Context, req types.ChatRequest) (string, error)

func (f CompleterFunc) Name() string { return "func" }

func (f CompleterFunc) Complete(ctx context.Context, req types.ChatRequest) (string, error) {
	return f(ctx, req)
}

// Router picks a backend per model identifier: exact match, then the
// longest registered prefix, then the default backend.
// Safe for concurrent use.
type Router struct {
	mu       sync.RWMutex
	def      Completer
	exact    map[string]Completer
	prefixes map[string]Completer
}

func NewRouter(defaultBackend Completer) *Router {
	return &Router{
		def:      defaultBackend,
		exact:    make(map[string]Completer),
		prefixes: make(map[string]Completer),
	}
}

// Register binds one model identifier to a backend.
func (r *Router) Register(model string, c Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[strings.TrimSpace(model)] = c
}

// RegisterPrefix binds every model starting with prefix, e.g. "gemini-".
func (r *Router) RegisterPrefix(prefix string, c Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = c
}

func (r *Router) Get(model string) (Completer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model = strings.TrimSpace(model)
	if c, ok := r.exact[model]; ok {
		return c, nil
	}
	best := ""
	for p := range r.prefixes {
		if strings.HasPrefix(model, p) && len(p) > len(best) {
			best = p
		}
	}
	if best != "" {
		return r.prefixes[best], nil
	}
	if r.def != nil {
		return r.def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoBackend, model)
}

// Backends lists the names of the configured backends.
func (r *Router) Backends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	add := func(c Completer) {
		if c != nil {
			seen[c.Name()] = true
		}
	}
	add(r.def)
	for _, c := range r.exact {
		add(c)
	}
	for _, c := range r.prefixes {
		add(c)
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Complete routes req to its backend.
func (r *Router) Complete(ctx context.Context, req types.ChatRequest) (string, error) {
	c, err := r.Get(req.Model)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, req)
}

func (r *Router) Name() string { return "router" }
