package manager

import "net"

type Api interface {
	SetManager(m *Manager)
	Serve(l net.Listener) error
}
