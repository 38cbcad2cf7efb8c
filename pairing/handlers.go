package pairing

import (
	"strings"
	"sync"
)

type ReadFunc = func() ([]byte, error)
type WriteFunc = func(value []byte) error

// handlers routes GATT reads and writes to the characteristic they target.
// Characteristics are identified by service and characteristic uuid together,
// so the same characteristic uuid may appear in several services.
type handlers struct {
	mtx   sync.RWMutex
	read  map[string]ReadFunc
	write map[string]WriteFunc
}

func newHandlers() *handlers {
	return &handlers{
		read:  make(map[string]ReadFunc),
		write: make(map[string]WriteFunc),
	}
}

func handlerKey(serviceUuid string, characteristicUuid string) string {
	return strings.ToUpper(serviceUuid + "/" + characteristicUuid)
}

func (h *handlers) register(serviceUuid string, characteristicUuid string, read ReadFunc, write WriteFunc) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	key := handlerKey(serviceUuid, characteristicUuid)

	if read != nil {
		h.read[key] = read
	}

	if write != nil {
		h.write[key] = write
	}
}

func (h *handlers) readFunc(serviceUuid string, characteristicUuid string) (ReadFunc, bool) {
	h.mtx.RLock()
	defer h.mtx.RUnlock()

	read, ok := h.read[handlerKey(serviceUuid, characteristicUuid)]
	return read, ok
}

func (h *handlers) writeFunc(serviceUuid string, characteristicUuid string) (WriteFunc, bool) {
	h.mtx.RLock()
	defer h.mtx.RUnlock()

	write, ok := h.write[handlerKey(serviceUuid, characteristicUuid)]
	return write, ok
}
