package network

import (
	"net"
	"sync"
)

// Binder holds the process-wide route binding. It is last-writer-wins state:
// a binding stays in place after the network disconnects until it is
// explicitly cleared with an empty interface name.
type Binder struct {
	mu    sync.RWMutex
	iface string
}

func NewBinder() *Binder {
	return &Binder{}
}

func (b *Binder) Bind(iface string) {
	b.mu.Lock()
	b.iface = iface
	b.mu.Unlock()
}

// Bound returns the interface traffic is bound to, or "" if unbound.
func (b *Binder) Bound() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.iface
}

// Dialer returns a dialer whose sockets follow the current binding at dial time.
func (b *Binder) Dialer() *net.Dialer {
	return &net.Dialer{
		Control: b.control,
	}
}
