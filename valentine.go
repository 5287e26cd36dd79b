// Valentine proposal sessions
//
// Each session lives at its own URL and holds one proposal. Every browser
// connected to a session sees the same stage, so the person asking can
// watch the answer arrive from another device.
//
// Features:
// - WebSockets per session ID: /path/:id and /path/:id/ws
// - Decline button positions, quiz reactions and calculator progress are
//   computed server-side and pushed to every client as a state snapshot
// - Each client reports its own screen size; the decline button is placed
//   inside the screen of whoever chased it and clamped into everyone else's
// - Stage timers run on the hub goroutine and die with their stage
// - The finished proposal is handed to the configured sink before the
//   success screen is shown
// - Sessions auto-reaped after configurable idle timeout
// - Random 8-char session IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/valentine/games/proposal"
	"github.com/Seednode/valentine/sink"
)

const (
	viewerCookieName = "valentine_id"
	maxPersonLength  = 64
	sessionIDLength  = 8
)

// Messages coming from clients
type ClientMessage struct {
	Type      string `json:"type"`                // "resize", "decline", "accept", "answer", "continue", "gift", "clear_signature", "permission"
	Width     int    `json:"width,omitempty"`     // resize
	Height    int    `json:"height,omitempty"`    // resize
	Option    int    `json:"option"`              // answer
	Gift      string `json:"gift,omitempty"`      // gift
	Other     string `json:"other,omitempty"`     // gift
	Signature string `json:"signature,omitempty"` // permission
}

// SessionInfoMessage is sent once on connect.
type SessionInfoMessage struct {
	Type    string `json:"type"` // "session_info"
	ID      string `json:"id"`
	Variant string `json:"variant"`
}

// StateMessage carries the full session snapshot after every change.
type StateMessage struct {
	Type  string        `json:"type"` // "state"
	State proposal.View `json:"state"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	viewerID string

	// Owned by the hub goroutine.
	viewport proposal.Viewport
}

type clientEvent struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	clients map[*Client]bool
	session *proposal.Session

	register chan *Client
	unreg    chan *Client
	events   chan clientEvent
	tasks    chan func()
	done     chan struct{}
	stop     sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func newHub(cfg *Config, id, person string, s sink.Sink) *Hub {
	now := time.Now()

	h := &Hub{
		id:         id,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		events:     make(chan clientEvent),
		tasks:      make(chan func(), 16),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}

	h.session = proposal.NewSession(proposal.Options{
		Person:   person,
		Flow:     cfg.flow(),
		Jitter:   cfg.jitter(),
		Sink:     s,
		Dispatch: h.dispatch,
		OnChange: h.broadcastStateLocked,
	})
	h.session.Start()

	return h
}

// dispatch hands a fired timer back to the hub goroutine.
func (h *Hub) dispatch(f func()) {
	select {
	case h.tasks <- f:
	case <-h.done:
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			c.send <- SessionInfoMessage{
				Type:    "session_info",
				ID:      h.id,
				Variant: cfg.variant,
			}
			c.send <- h.stateForLocked(c)
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case ev := <-h.events:
			h.handleEvent(cfg, ev)

		case f := <-h.tasks:
			h.mu.Lock()
			f()
			h.mu.Unlock()
		}
	}
}

// stateForLocked renders the snapshot as seen on c's screen.
func (h *Hub) stateForLocked(c *Client) StateMessage {
	return StateMessage{
		Type:  "state",
		State: h.session.ViewIn(c.viewport),
	}
}

func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcastStateLocked sends the current snapshot to all clients.
func (h *Hub) broadcastStateLocked() {
	for client := range h.clients {
		h.sendLocked(client, h.stateForLocked(client))
	}
}

func (h *Hub) handleEvent(cfg *Config, ev clientEvent) {
	msg := ev.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	before := h.session.Stage()
	changed := true

	switch msg.Type {
	case "resize":
		changed = false

		if msg.Width > 0 && msg.Height > 0 {
			ev.client.viewport = proposal.Viewport{Width: msg.Width, Height: msg.Height}

			if _, ok := h.clients[ev.client]; ok {
				h.sendLocked(ev.client, h.stateForLocked(ev.client))
			}
		}

	case "decline":
		changed = h.session.DeclineIn(ev.client.viewport)

	case "accept":
		changed = h.session.Accept()

	case "answer":
		changed = h.session.Answer(msg.Option)

	case "continue":
		changed = h.session.Continue()

	case "gift":
		_ = h.session.ChooseGift(msg.Gift, msg.Other)

	case "clear_signature":
		h.session.ClearSignature()

	case "permission":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.sinkTimeout)
		err := h.session.SubmitPermission(ctx, msg.Signature)
		cancel()

		if err != nil {
			logf(cfg, "VALENTINE: Submission for %s failed: %v", h.id, err)
		}

	default:
		changed = false
	}

	if after := h.session.Stage(); after != before {
		logf(cfg, "VALENTINE: Session %s moved from %s to %s", h.id, before, after)
	}

	if changed {
		h.broadcastStateLocked()
	}
}

// close stops the hub goroutine, its timers and all of its clients.
func (h *Hub) close() {
	h.stop.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		h.session.Close()

		for c := range h.clients {
			close(c.send)
			_ = c.conn.Close()
			delete(h.clients, c)
		}
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func getOrSetViewerID(cfg *Config, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(viewerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     viewerCookieName,
		Value:    id,
		Path:     cfg.prefix + "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// SessionManager holds a set of hubs keyed by session ID, so each
// $path/$id is its own isolated proposal.
type SessionManager struct {
	cfg  *Config
	sink sink.Sink

	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	quit        chan struct{}
	closeOnce   sync.Once
}

func newSessionManager(cfg *Config, s sink.Sink) *SessionManager {
	sm := &SessionManager{
		cfg:         cfg,
		sink:        s,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		quit:        make(chan struct{}),
	}
	if sm.idleTimeout > 0 {
		go sm.reaperLoop()
	}
	return sm
}

// getHub returns the hub for id, creating it for person when it does not
// exist yet.
func (sm *SessionManager) getHub(id, person string) *Hub {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if hub, ok := sm.hubs[id]; ok {
		return hub
	}

	if person == "" {
		person = sm.cfg.person
	}

	hub := newHub(sm.cfg, id, person, sm.sink)
	sm.hubs[id] = hub
	go hub.run(sm.cfg)

	logf(sm.cfg, "VALENTINE: Created session %s for %q", id, person)

	return hub
}

func (sm *SessionManager) count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return len(sm.hubs)
}

// newSessionID generates a crypto-random session ID and ensures it doesn't
// collide with existing sessions.
func (sm *SessionManager) newSessionID() string {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

	buf := make([]byte, sessionIDLength)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		var id strings.Builder
		for _, b := range buf {
			id.WriteByte(letters[int(b)%len(letters)])
		}

		sm.mu.Lock()
		_, exists := sm.hubs[id.String()]
		sm.mu.Unlock()

		if !exists {
			return id.String()
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (sm *SessionManager) reaperLoop() {
	ticker := time.NewTicker(sm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-sm.quit:
			return
		case <-ticker.C:
			sm.reap(time.Now().Add(-sm.idleTimeout))
		}
	}
}

func (sm *SessionManager) reap(cutoff time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, hub := range sm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(sm.hubs, id)
			go hub.close()

			logf(sm.cfg, "VALENTINE: Reaped idle session %s", id)
		}
	}
}

// Close ends every session and stops the reaper.
func (sm *SessionManager) Close() {
	sm.closeOnce.Do(func() {
		close(sm.quit)

		sm.mu.Lock()
		hubs := sm.hubs
		sm.hubs = make(map[string]*Hub)
		sm.mu.Unlock()

		for _, hub := range hubs {
			hub.close()
		}
	})
}

// WebSocket handler that picks the hub based on :id
func serveWS(cfg *Config, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		viewerID := getOrSetViewerID(cfg, w, r)

		hub := sm.getHub(id, "")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errorf("websocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			viewerID: viewerID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "VALENTINE: Viewer %s connected to %s from %s", viewerID, id, realIP(r))

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.events <- clientEvent{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// sessionURL rebuilds the public URL of the session the request points at.
func sessionURL(r *http.Request, suffix string) string {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, suffix)
}

// serveQR generates a PNG QR code for the current session URL using go-qrcode.
func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		if ps.ByName("id") == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(sessionURL(r, "/qr"), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: QR code (%s) to %s in %s",
			humanize.Bytes(uint64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveSessionPage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/valentine/index.html")
		if err != nil {
			serveErrorPage(cfg, w, http.StatusInternalServerError, "An error has occurred. Please try again.")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetViewerID(cfg, w, r)

		if _, err := w.Write(data); err != nil {
			errs <- err
		}
	}
}

// trimPerson keeps a ?to= value to something that fits on the page.
func trimPerson(raw string) string {
	person := strings.TrimSpace(raw)

	runes := []rune(person)
	if len(runes) > maxPersonLength {
		person = strings.TrimSpace(string(runes[:maxPersonLength]))
	}

	return person
}

// redirectNewSession handles GET /path by creating a fresh session for the
// optional ?to= name and redirecting to /path/:id.
func redirectNewSession(cfg *Config, path string, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id := sm.newSessionID()
		sm.getHub(id, trimPerson(r.URL.Query().Get("to")))

		http.Redirect(w, r, cfg.prefix+path+"/"+url.PathEscape(id), http.StatusSeeOther)
	}
}

// registerValentine sets up routes so that:
//   - $path          → creates a session and redirects to it
//   - $path/:id      → HTML client
//   - $path/:id/ws   → WebSocket for that session
//   - $path/:id/qr   → PNG QR code for that session URL
func registerValentine(cfg *Config, path string, s sink.Sink, errs chan<- error, mux *httprouter.Router) *SessionManager {
	sm := newSessionManager(cfg, s)

	mux.GET(cfg.prefix+path, redirectNewSession(cfg, path, sm))
	mux.GET(cfg.prefix+path+"/:id", serveSessionPage(cfg, errs))
	mux.GET(cfg.prefix+path+"/:id/ws", serveWS(cfg, sm))
	mux.GET(cfg.prefix+path+"/:id/qr", serveQR(cfg, errs))

	return sm
}
