package network

import (
	"syscall"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

func (b *Binder) control(network, address string, c syscall.RawConn) error {
	iface := b.Bound()
	if iface == "" {
		return nil
	}

	var bindErr error

	err := c.Control(func(fd uintptr) {
		bindErr = unix.BindToDevice(int(fd), iface)
	})
	if err != nil {
		return errors.Errorf("could not access socket: %v", err)
	}

	if bindErr != nil {
		return errors.Errorf("could not bind socket to %v: %v", iface, bindErr)
	}

	return nil
}

// canBindToDevice reports whether SO_BINDTODEVICE is usable by this process.
func canBindToDevice() bool {
	return unix.Geteuid() == 0
}
