/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package implindex

import (
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/suparena/implindex/errors"
	"github.com/suparena/implindex/models"
	"github.com/suparena/implindex/registry"
)

// Pages holds one registry per capability page. It is safe for concurrent use.
type Pages struct {
	mu         sync.RWMutex
	registries map[string]*registry.Registry
	logger     *zap.Logger
}

// PagesOption configures Pages.
type PagesOption func(*Pages)

// WithLogger sets the logger handed to every page registry.
func WithLogger(logger *zap.Logger) PagesOption {
	return func(p *Pages) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPages creates an empty set of pages.
func NewPages(opts ...PagesOption) *Pages {
	p := &Pages{
		registries: make(map[string]*registry.Registry),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry of capability, creating it if necessary.
func (p *Pages) Registry(capability string) *registry.Registry {
	p.mu.RLock()
	reg, ok := p.registries[capability]
	p.mu.RUnlock()
	if ok {
		return reg
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if reg, ok := p.registries[capability]; ok {
		return reg
	}
	reg = registry.New(registry.WithName(capability), registry.WithLogger(p.logger))
	p.registries[capability] = reg
	return reg
}

// Lookup returns the registry of capability without creating it.
func (p *Pages) Lookup(capability string) (*registry.Registry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	reg, ok := p.registries[capability]
	if !ok {
		return nil, errors.NewNotFoundError("page", capability)
	}
	return reg, nil
}

// Submit hands table to the registry of capability.
func (p *Pages) Submit(capability string, table models.LibraryTable) error {
	if capability == "" {
		return errors.NewValidationError("capability", "must not be empty")
	}
	return p.Registry(capability).Submit(table)
}

// Attach installs consumer on the registry of capability, creating the page
// if nothing has been submitted to it yet.
func (p *Pages) Attach(capability string, consumer registry.Consumer) error {
	if capability == "" {
		return errors.NewValidationError("capability", "must not be empty")
	}
	return p.Registry(capability).Attach(consumer)
}

// AttachAll attaches a consumer built by newConsumer to every page that is
// still waiting for one. Failures are joined; every page is attempted.
func (p *Pages) AttachAll(newConsumer func(capability string) registry.Consumer) error {
	var errs []error
	for _, capability := range p.Capabilities() {
		reg := p.Registry(capability)
		if reg.State() != registry.AwaitingConsumer {
			continue
		}
		if err := reg.Attach(newConsumer(capability)); err != nil {
			errs = append(errs, fmt.Errorf("page %s: %w", capability, err))
		}
	}
	return stderrors.Join(errs...)
}

// Capabilities returns the known capability names, sorted.
func (p *Pages) Capabilities() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	caps := make([]string, 0, len(p.registries))
	for c := range p.registries {
		caps = append(caps, c)
	}
	sort.Strings(caps)
	return caps
}

// Pending returns the number of queued submissions across all pages.
func (p *Pages) Pending() int {
	p.mu.RLock()
	regs := make([]*registry.Registry, 0, len(p.registries))
	for _, reg := range p.registries {
		regs = append(regs, reg)
	}
	p.mu.RUnlock()

	n := 0
	for _, reg := range regs {
		n += reg.Pending()
	}
	return n
}
