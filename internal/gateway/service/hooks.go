package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"
)

// HookContext carries the state a hook may inspect or mutate. Session
// mutations made by a hook are persisted by the surrounding flow.
type HookContext struct {
	Request  *http.Request
	Session  *domain.Session
	Provider string
}

// Hook is a named extension point in the login and logout flows.
// Providers reference hooks by name in their configuration.
type Hook interface {
	Name() string
	Run(ctx context.Context, hc *HookContext) error
}

// FuncHook adapts a function into a Hook.
type FuncHook struct {
	HookName string
	Fn       func(ctx context.Context, hc *HookContext) error
}

func (h FuncHook) Name() string { return h.HookName }

func (h FuncHook) Run(ctx context.Context, hc *HookContext) error {
	return h.Fn(ctx, hc)
}

// HookRunner resolves hook names to registered hooks and executes them
// in order.
type HookRunner struct {
	hooks map[string]Hook
}

func NewHookRunner(hooks ...Hook) *HookRunner {
	r := &HookRunner{hooks: make(map[string]Hook, len(hooks))}
	for _, h := range hooks {
		r.hooks[h.Name()] = h
	}
	return r
}

// Resolve maps names to hooks, erroring on any unregistered name.
func (r *HookRunner) Resolve(names []string) ([]Hook, error) {
	out := make([]Hook, 0, len(names))
	for _, name := range names {
		h, ok := r.hooks[name]
		if !ok {
			return nil, fmt.Errorf("unknown hook %q", name)
		}
		out = append(out, h)
	}
	return out, nil
}

// Run executes the named hooks sequentially. The first error aborts
// the chain and is returned. An empty list is a no-op.
func (r *HookRunner) Run(ctx context.Context, names []string, hc *HookContext) error {
	hooks, err := r.Resolve(names)
	if err != nil {
		return err
	}
	for _, h := range hooks {
		if err := h.Run(ctx, hc); err != nil {
			return fmt.Errorf("hook %s: %w", h.Name(), err)
		}
	}
	return nil
}

// RunAll executes the named hooks sequentially, logging and swallowing
// errors so cleanup always proceeds.
func (r *HookRunner) RunAll(ctx context.Context, names []string, hc *HookContext) {
	hooks, err := r.Resolve(names)
	if err != nil {
		slogx.FromContext(ctx).Warn("hook resolution failed", "error", err)
		return
	}
	for _, h := range hooks {
		if err := h.Run(ctx, hc); err != nil {
			slogx.FromContext(ctx).Warn("hook failed",
				"hook", h.Name(),
				"provider", hc.Provider,
				"error", err,
			)
		}
	}
}
