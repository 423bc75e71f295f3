package router

import (
	"sync"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/providers"
)

// atomicAdapters guards the adapter map and its derived fallback order
// behind a single RWMutex so RebuildAdapters can swap both in together
// without a reader ever observing one updated and not the other.
type atomicAdapters struct {
	mu     sync.RWMutex
	byName map[domain.Provider]providers.Adapter
	order  []domain.Provider
}

func (a *atomicAdapters) load() (map[domain.Provider]providers.Adapter, []domain.Provider) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.byName, a.order
}

func (a *atomicAdapters) store(byName map[domain.Provider]providers.Adapter, order []domain.Provider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byName = byName
	a.order = order
}
