package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const signalBuffer = 16

type subscriber struct {
	path    dbus.ObjectPath
	name    string
	options []dbus.MatchOption
	signals chan *dbus.Signal
}

// signalRouter receives every signal of the connection and hands it to the
// subscribers registered for its object path and member.
type signalRouter struct {
	sync.Mutex
	conn        *dbus.Conn
	signals     chan *dbus.Signal
	nextId      uint32
	subscribers map[uint32]*subscriber
}

func newSignalRouter(conn *dbus.Conn) *signalRouter {
	r := &signalRouter{
		conn:        conn,
		signals:     make(chan *dbus.Signal, signalBuffer),
		subscribers: make(map[uint32]*subscriber),
	}

	conn.Signal(r.signals)

	return r
}

func (r *signalRouter) run() {
	for signal := range r.signals {
		r.deliverSignal(signal)
	}
}

func (r *signalRouter) deliverSignal(signal *dbus.Signal) {
	r.Lock()
	defer r.Unlock()

	for _, sub := range r.subscribers {
		if sub.path != signal.Path || sub.name != signal.Name {
			continue
		}

		select {
		case sub.signals <- signal:
		default:
		}
	}
}

func (r *signalRouter) subscribe(path dbus.ObjectPath, iface string, member string) (uint32, <-chan *dbus.Signal, error) {
	options := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(member),
	}

	err := r.conn.AddMatchSignal(options...)
	if err != nil {
		return 0, nil, errors.Errorf("could not add signal: %v", err)
	}

	r.Lock()
	defer r.Unlock()

	id := r.nextId
	r.nextId++

	sub := &subscriber{
		path:    path,
		name:    iface + "." + member,
		options: options,
		signals: make(chan *dbus.Signal, signalBuffer),
	}

	r.subscribers[id] = sub

	return id, sub.signals, nil
}

func (r *signalRouter) unsubscribe(id uint32) {
	r.Lock()
	sub, ok := r.subscribers[id]
	if ok {
		delete(r.subscribers, id)
		close(sub.signals)
	}
	r.Unlock()

	if ok {
		_ = r.conn.RemoveMatchSignal(sub.options...)
	}
}

func (r *signalRouter) stop() {
	r.conn.RemoveSignal(r.signals)

	r.Lock()
	for id, sub := range r.subscribers {
		delete(r.subscribers, id)
		close(sub.signals)
	}
	r.Unlock()

	close(r.signals)
}
