// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"context"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/models"
)

// Registry holds one adapter per provider in models.ProviderOrder.
type Registry struct {
	adapters []Adapter
	extras   map[models.Provider]Extras
}

// NewRegistry builds clients for all three providers. Unconfigured providers
// are still registered; their calls fail fast with ErrNotConfigured.
func NewRegistry(cfg config.SourcesConfig, gate QuotaGate) *Registry {
	return NewRegistryFrom(
		NewGoogleClient(cfg.Google, gate),
		NewYelpClient(cfg.Yelp, gate),
		NewFoursquareClient(cfg.Foursquare, gate),
	)
}

// NewRegistryFrom builds a registry from explicit adapters, reordered into
// provider priority order.
func NewRegistryFrom(adapters ...Adapter) *Registry {
	byProvider := make(map[models.Provider]Adapter, len(adapters))
	for _, a := range adapters {
		if a != nil {
			byProvider[a.Provider()] = a
		}
	}
	r := &Registry{extras: make(map[models.Provider]Extras)}
	for _, p := range models.ProviderOrder {
		if a, ok := byProvider[p]; ok {
			r.adapters = append(r.adapters, a)
			r.extras[p] = NotImplementedExtras{Source: p}
		}
	}
	return r
}

// Adapters returns every registered adapter in priority order.
func (r *Registry) Adapters() []Adapter {
	return append([]Adapter(nil), r.adapters...)
}

// Configured returns only the adapters that have credentials.
func (r *Registry) Configured() []Adapter {
	var out []Adapter
	for _, a := range r.adapters {
		if a.Configured() {
			out = append(out, a)
		}
	}
	return out
}

// Get returns the adapter for p.
func (r *Registry) Get(p models.Provider) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.Provider() == p {
			return a, true
		}
	}
	return nil, false
}

// WithDetailsCache routes every adapter's Details lookups through c. Extras
// are kept.
func (r *Registry) WithDetailsCache(c *DetailsCache) *Registry {
	for i, a := range r.adapters {
		if _, ok := a.(*CachedAdapter); !ok {
			r.adapters[i] = NewCachedAdapter(a, c)
		}
	}
	return r
}

// Extras returns the provider-specific extraction capability for p.
func (r *Registry) Extras(p models.Provider) Extras {
	if e, ok := r.extras[p]; ok {
		return e
	}
	return NotImplementedExtras{Source: p}
}

// SetExtras installs a provider-specific extractor.
func (r *Registry) SetExtras(p models.Provider, e Extras) {
	r.extras[p] = e
}

// Extras is provider-specific data beyond the common SourceRecord: menus and
// attribute flags (delivery, outdoor seating and the like).
type Extras interface {
	Available() bool
	Menu(ctx context.Context, externalID string) ([]models.MenuItem, error)
	Attributes(ctx context.Context, externalID string) (map[string]string, error)
}

// NotImplementedExtras is the default Extras: no provider extraction is wired.
type NotImplementedExtras struct {
	Source models.Provider
}

func (NotImplementedExtras) Available() bool { return false }

func (NotImplementedExtras) Menu(context.Context, string) ([]models.MenuItem, error) {
	return nil, ErrNotImplemented
}

func (NotImplementedExtras) Attributes(context.Context, string) (map[string]string, error) {
	return nil, ErrNotImplemented
}
