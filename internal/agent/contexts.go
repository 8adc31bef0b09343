package agent

import (
	"slices"
	"sync"
	"time"

	"github.com/roach88/snmpcore/internal/smi"
)

// Contexts is the registry of contexts an agent serves, with the time each
// was registered.
//
// Thread-safety: Contexts is safe for concurrent use.
type Contexts struct {
	now func() time.Time

	mu      sync.RWMutex
	started map[string]time.Time
}

// NewContexts creates an empty registry. now defaults to time.Now.
func NewContexts(now func() time.Time) *Contexts {
	if now == nil {
		now = time.Now
	}
	return &Contexts{now: now, started: make(map[string]time.Time)}
}

// Register adds a context. It returns false if the context already exists.
func (c *Contexts) Register(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.started[name]; ok {
		return false
	}
	c.started[name] = c.now()
	return true
}

// Unregister removes a context and forgets its uptime.
func (c *Contexts) Unregister(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.started[name]; !ok {
		return false
	}
	delete(c.started, name)
	return true
}

// Supported reports whether name is registered.
func (c *Contexts) Supported(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.started[name]
	return ok
}

// UpTime returns the time since name was registered, in hundredths of a
// second.
func (c *Contexts) UpTime(name string) (smi.TimeTicks, bool) {
	c.mu.RLock()
	start, ok := c.started[name]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return smi.TimeTicks(c.now().Sub(start) / (10 * time.Millisecond)), true
}

// Names returns the registered contexts in sorted order.
func (c *Contexts) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.started))
	for name := range c.started {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
