package registry

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/tickloop/pkg/tickloop"
	"github.com/randalmurphal/tickloop/pkg/tickloop/config"
)

// ErrUnknownHandler indicates a task names a handler nobody registered.
var ErrUnknownHandler = errors.New("unknown handler")

// Factory builds a handler from a task's parameters.
type Factory func(p config.Params) (tickloop.Handler, error)

// Handlers maps handler names used in configuration to factories.
type Handlers struct {
	factories *Registry[string, Factory]
}

// NewHandlers returns an empty handler registry.
func NewHandlers() *Handlers {
	return &Handlers{factories: New[string, Factory]()}
}

// Register adds a factory under name.
func (h *Handlers) Register(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("handler %s: nil factory", name)
	}
	return h.factories.Register(name, f)
}

// Names returns the registered handler names, sorted.
func (h *Handlers) Names() []string {
	return h.factories.Keys()
}

// Check reports the first task in s naming an unregistered handler.
func (h *Handlers) Check(s config.Settings) error {
	for _, spec := range s.Tasks {
		if !h.factories.Has(spec.Handler) {
			return fmt.Errorf("task %s: %q: %w", spec.Name, spec.Handler, ErrUnknownHandler)
		}
	}
	return nil
}

// Build creates the handler for spec.
func (h *Handlers) Build(spec config.TaskSpec) (tickloop.Handler, error) {
	f, ok := h.factories.Get(spec.Handler)
	if !ok {
		return nil, fmt.Errorf("task %s: %q: %w", spec.Name, spec.Handler, ErrUnknownHandler)
	}
	handler, err := f(spec.TaskParams())
	if err != nil {
		return nil, fmt.Errorf("task %s: build %s handler: %w", spec.Name, spec.Handler, err)
	}
	return handler, nil
}

// RegisterTasks builds and registers every task in s, then admits the
// configured events. It returns the refs in configuration order.
// Handler names are checked first, so an unknown name registers nothing.
func (h *Handlers) RegisterTasks(sched *tickloop.Scheduler, s config.Settings) ([]tickloop.TaskRef, error) {
	if err := h.Check(s); err != nil {
		return nil, err
	}
	refs := make([]tickloop.TaskRef, 0, len(s.Tasks))
	for _, spec := range s.Tasks {
		handler, err := h.Build(spec)
		if err != nil {
			return nil, err
		}
		opts, err := spec.Options()
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", spec.Name, err)
		}
		ref, err := sched.Register(spec.Name, handler, spec.Capacity, spec.PayloadSize, opts...)
		if err != nil {
			return nil, err
		}
		for _, es := range spec.Events {
			ev, err := es.Event()
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", spec.Name, err)
			}
			if _, err := sched.Admit(ref, ev); err != nil {
				return nil, err
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
