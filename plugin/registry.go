package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/types"
)

// DefaultTimeout bounds every plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onUserInitialized   []OnUserInitialized
	onInteractionLogged []OnInteractionLogged
	onTransitionFailed  []OnTransitionFailed
	onFundsAirdropped   []OnFundsAirdropped
	onEventsFlushed     []OnEventsFlushed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnUserInitialized); ok {
		r.onUserInitialized = append(r.onUserInitialized, v)
	}
	if v, ok := p.(OnInteractionLogged); ok {
		r.onInteractionLogged = append(r.onInteractionLogged, v)
	}
	if v, ok := p.(OnTransitionFailed); ok {
		r.onTransitionFailed = append(r.onTransitionFailed, v)
	}
	if v, ok := p.(OnFundsAirdropped); ok {
		r.onFundsAirdropped = append(r.onFundsAirdropped, v)
	}
	if v, ok := p.(OnEventsFlushed); ok {
		r.onEventsFlushed = append(r.onEventsFlushed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnUserInitialized)(nil)).Elem(), "OnUserInitialized")
	checkInterface(reflect.TypeOf((*OnInteractionLogged)(nil)).Elem(), "OnInteractionLogged")
	checkInterface(reflect.TypeOf((*OnTransitionFailed)(nil)).Elem(), "OnTransitionFailed")
	checkInterface(reflect.TypeOf((*OnFundsAirdropped)(nil)).Elem(), "OnFundsAirdropped")
	checkInterface(reflect.TypeOf((*OnEventsFlushed)(nil)).Elem(), "OnEventsFlushed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUserInitialized emits a user initialized event.
func (r *Registry) EmitUserInitialized(ctx context.Context, addr address.PublicKey, rec record.UserLedger) {
	r.mu.RLock()
	plugins := r.onUserInitialized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUserInitialized(ctx, addr, rec)
		}); err != nil {
			r.logger.Warn("plugin OnUserInitialized failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInteractionLogged emits an interaction logged event.
func (r *Registry) EmitInteractionLogged(ctx context.Context, evt *interaction.Event) {
	r.mu.RLock()
	plugins := r.onInteractionLogged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInteractionLogged(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnInteractionLogged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransitionFailed emits a transition failed event.
func (r *Registry) EmitTransitionFailed(ctx context.Context, kind string, signer address.PublicKey, cause error) {
	r.mu.RLock()
	plugins := r.onTransitionFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransitionFailed(ctx, kind, signer, cause)
		}); err != nil {
			r.logger.Warn("plugin OnTransitionFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundsAirdropped emits a funds airdropped event.
func (r *Registry) EmitFundsAirdropped(ctx context.Context, addr address.PublicKey, amount, balance types.Lamports) {
	r.mu.RLock()
	plugins := r.onFundsAirdropped
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundsAirdropped(ctx, addr, amount, balance)
		}); err != nil {
			r.logger.Warn("plugin OnFundsAirdropped failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEventsFlushed emits a journal flushed event.
func (r *Registry) EmitEventsFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onEventsFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEventsFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnEventsFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the transition pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
