//go:build !linux

package network

import (
	"syscall"
)

func (b *Binder) control(network, address string, c syscall.RawConn) error {
	return nil
}

func canBindToDevice() bool {
	return false
}
