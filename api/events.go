package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/wifid/network"
)

type getEventsEvent struct {
	Id        string    `json:"id"`
	Time      time.Time `json:"time"`
	SSID      string    `json:"ssid"`
	Connected bool      `json:"connected"`
	Gateway   string    `json:"gateway"`
	Local     string    `json:"local"`
}

// handleGetEvents streams every network observation over a websocket.
func (a *Api) handleGetEvents() http.HandlerFunc {
	upgrader := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		client, err := a.manager.SubscribeObservations()
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			client.Cancel()
			a.log.Errorf("Could not upgrade to websocket: %v", err)
			return
		}

		a.log.Debugf("Streaming observations to client %v", client.Id)

		// read pump
		go func() {
			defer client.Cancel()
			defer c.Close()

			c.SetReadLimit(512)
			c.SetReadDeadline(time.Now().Add(60 * time.Second))
			c.SetPongHandler(func(string) error {
				c.SetReadDeadline(time.Now().Add(60 * time.Second))
				return nil
			})

			for {
				_, _, err := c.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						a.log.Errorf("unexpected websocket closure: %v", err)
					}
					break
				}
			}
		}()

		// write pump
		go func() {
			defer client.Cancel()
			defer c.Close()

			ticker := time.NewTicker(54 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case observation, ok := <-client.Observations:
					c.SetWriteDeadline(time.Now().Add(10 * time.Second))

					if !ok {
						c.WriteMessage(websocket.CloseMessage, []byte{})
						return
					}

					err := c.WriteJSON(eventOf(observation))
					if err != nil {
						return
					}
				case <-ticker.C:
					c.SetWriteDeadline(time.Now().Add(10 * time.Second))
					if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()
	}
}

func eventOf(observation *network.Observation) *getEventsEvent {
	return &getEventsEvent{
		Id:        uuid.New().String(),
		Time:      time.Now(),
		SSID:      network.TrimQuotes(observation.SSID),
		Connected: observation.Connected,
		Gateway:   network.FormatIPv4(observation.Gateway),
		Local:     network.FormatIPv4(observation.Local),
	}
}
