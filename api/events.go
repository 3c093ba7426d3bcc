package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mm-replacer/events"
)

const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents streams sync events. The current status is sent first so a
// freshly opened page can fill the sync-status display.
func (h *handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WS upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeMsg := func(ev events.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(ev)
	}

	hub := h.app.Events()
	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	st := h.app.Status()
	if err := writeMsg(events.Event{Type: events.Status, LastSync: st.LastSync, Status: st.Line, Rules: st.Rules, Error: st.LastError}); err != nil {
		return
	}

	// Reader goroutine: the client sends nothing we act on, but reading is
	// required to notice the close frame.
	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				// Hub closed on shutdown.
				writeMu.Lock()
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				writeMu.Unlock()
				return
			}
			if err := writeMsg(ev); err != nil {
				return
			}
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-connDone:
			return
		}
	}
}
