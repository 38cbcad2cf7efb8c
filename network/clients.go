package network

import (
	"sync"
)

const observationBuffer = 16

// observers fans observations out to every subscribed client.
type observers struct {
	sync.Mutex
	log     Logger
	nextId  uint32
	clients map[uint32]chan *Observation
}

func newObservers(log Logger) *observers {
	return &observers{
		log:     log,
		clients: make(map[uint32]chan *Observation),
	}
}

func (o *observers) subscribe() *ObservationClient {
	o.Lock()
	defer o.Unlock()

	id := o.nextId
	o.nextId++

	updates := make(chan *Observation, observationBuffer)
	o.clients[id] = updates

	var once sync.Once

	return &ObservationClient{
		Id:           id,
		Observations: updates,
		Cancel: func() {
			once.Do(func() {
				o.deleteClient(id)
			})
		},
	}
}

func (o *observers) deleteClient(id uint32) {
	o.Lock()
	defer o.Unlock()

	if updates, ok := o.clients[id]; ok {
		delete(o.clients, id)
		close(updates)
	}
}

// notify never blocks. A client that does not keep up loses the observation.
func (o *observers) notify(observation *Observation) {
	o.Lock()
	defer o.Unlock()

	for id, updates := range o.clients {
		select {
		case updates <- observation:
		default:
			o.log.Warnf("Dropped observation for slow client %v", id)
		}
	}
}

func (o *observers) closeAll() {
	o.Lock()
	defer o.Unlock()

	for id, updates := range o.clients {
		delete(o.clients, id)
		close(updates)
	}
}
