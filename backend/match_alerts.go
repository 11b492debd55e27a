package main

import (
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/unihaven/unihaven/backend/compat"
)

const (
	alertWriteWait  = 10 * time.Second
	alertPongWait   = 60 * time.Second
	alertPingPeriod = 30 * time.Second
	alertBuffer     = 16
)

// AlertEvent is what the server pushes over /ws/matches.
type AlertEvent struct {
	Type string `json:"type"` // "info" | "match"
	Data any    `json:"data,omitempty"`
}

type alertClient struct {
	userID int
	conn   *websocket.Conn
	send   chan AlertEvent
}

// matchHub tracks connected viewers and the profile snapshot each one is
// matched with. All of a user's connections share one snapshot. Users whose
// profile is gone or hidden stay connected without a snapshot.
type matchHub struct {
	threshold int

	mu            sync.RWMutex
	clientsByUser map[int]map[*alertClient]bool
	viewers       map[int]compat.Profile
}

func newMatchHub(threshold int) *matchHub {
	return &matchHub{
		threshold:     threshold,
		clientsByUser: make(map[int]map[*alertClient]bool),
		viewers:       make(map[int]compat.Profile),
	}
}

func (h *matchHub) register(c *alertClient, viewer compat.Profile) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clientsByUser[c.userID] == nil {
		h.clientsByUser[c.userID] = make(map[*alertClient]bool)
	}
	h.clientsByUser[c.userID][c] = true
	if viewer.Active {
		h.viewers[c.userID] = viewer
	}
	matchStats.AlertClients.Inc()
}

// subscribe registers a client with no websocket of its own, as used by the
// GraphQL matchAlerts subscription. cancel unregisters it and closes the
// channel; it is safe to call more than once.
func (h *matchHub) subscribe(viewer compat.Profile) (<-chan AlertEvent, func()) {
	c := &alertClient{userID: viewer.UserID, send: make(chan AlertEvent, alertBuffer)}
	h.register(c, viewer)
	var once sync.Once
	return c.send, func() {
		once.Do(func() {
			h.unregister(c)
			close(c.send)
		})
	}
}

func (h *matchHub) unregister(c *alertClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.clientsByUser[c.userID]
	if !ok || !peers[c] {
		return
	}
	delete(peers, c)
	matchStats.AlertClients.Dec()
	if len(peers) == 0 {
		delete(h.clientsByUser, c.userID)
		delete(h.viewers, c.userID)
	}
}

// profileSaved scores a freshly saved profile against every other connected
// viewer and alerts those at or above the threshold. It returns the number of
// alerts queued. Full client buffers drop the alert.
// A hidden profile is treated like a removed one.
func (h *matchHub) profileSaved(p compat.Profile) int {
	if !p.Active {
		h.profileRemoved(p.UserID)
		return 0
	}

	h.mu.Lock()
	if _, online := h.clientsByUser[p.UserID]; online {
		h.viewers[p.UserID] = p
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for userID, peers := range h.clientsByUser {
		if userID == p.UserID {
			continue
		}
		viewer, ok := h.viewers[userID]
		if !ok {
			continue
		}
		res := compat.Compatibility(viewer, p)
		matchStats.observe(res)
		if res.Score < h.threshold {
			continue
		}
		evt := AlertEvent{Type: "match", Data: matchEntry{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			University:  p.University,
			Score:       res.Score,
			Label:       res.Label,
			IsOnline:    true,
		}}
		for c := range peers {
			select {
			case c.send <- evt:
				sent++
				matchStats.AlertsSent.Inc()
			default:
			}
		}
	}
	return sent
}

// profileRemoved drops the user's snapshot after their profile is deleted or
// hidden. Their connections stay open but get no alerts until the profile is
// saved or activated again.
func (h *matchHub) profileRemoved(userID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[userID]; !ok {
		return
	}
	delete(h.viewers, userID)
	evt := AlertEvent{Type: "info", Data: "profile_removed"}
	for c := range h.clientsByUser[userID] {
		select {
		case c.send <- evt:
		default:
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are already filtered by withCORS for the REST API; browsers
	// send the page origin here, which may differ in local setups.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /ws/matches
func wsMatchesHandler(db *sql.DB, hub *matchHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := getUserIDFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		viewer, err := loadProfile(r.Context(), db, userID)
		if errors.Is(err, errProfileNotFound) {
			writeError(w, http.StatusForbidden, "no_roommate_profile")
			return
		} else if err != nil {
			logInternal(r, err, "load viewer profile")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Int("user_id", userID).Msg("websocket upgrade failed")
			return
		}

		client := &alertClient{
			userID: userID,
			conn:   conn,
			send:   make(chan AlertEvent, alertBuffer),
		}
		client.send <- AlertEvent{Type: "info", Data: "connected"}
		hub.register(client, viewer)

		go alertWriter(client)
		alertReader(hub, client)
	}
}

// alertReader only services control frames; clients do not send data.
func alertReader(hub *matchHub, c *alertClient) {
	defer func() {
		hub.unregister(c)
		close(c.send)
	}()

	c.conn.SetReadLimit(1 << 12)
	_ = c.conn.SetReadDeadline(time.Now().Add(alertPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(alertPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func alertWriter(c *alertClient) {
	ticker := time.NewTicker(alertPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(alertWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(alertWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
