package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"github.com/ohler55/ojg/oj"
	"github.com/samber/lo"

	"github.com/slipangle/rallyarcade/log"
	"github.com/slipangle/rallyarcade/pkg/sim"
	"github.com/slipangle/rallyarcade/pkg/storage"
	"github.com/slipangle/rallyarcade/pkg/track"
	"github.com/slipangle/rallyarcade/pkg/utils/broadcast"
)

type controlMessage struct {
	Type      string  `json:"type"` // "controls" or "reset"
	Steer     float64 `json:"steer"`
	Throttle  float64 `json:"throttle"`
	Brake     float64 `json:"brake"`
	Handbrake bool    `json:"handbrake"`
}

type snapshotMessage struct {
	SessionID string               `json:"sessionId"`
	Driver    string               `json:"driver"`
	SimTime   float64              `json:"simTime"`
	Alpha     float64              `json:"alpha"`
	Vehicle   sim.VehicleState     `json:"vehicle"`
	Progress  sim.ProgressSnapshot `json:"progress"`
	Ghost     *sim.VehicleState    `json:"ghost,omitempty"`
	Events    []string             `json:"events,omitempty"`
}

type sessionInfo struct {
	ID      string  `json:"id"`
	Driver  string  `json:"driver"`
	State   string  `json:"state"`
	SimTime float64 `json:"simTime"`
}

type hostSettings struct {
	renderRate   int
	physicsRate  int
	recordGhost  bool
	ghostEnabled bool
}

// liveSession is owned by its ticker goroutine; only controls and the latest
// snapshot cross goroutines, both guarded by mu. The sim.Session itself is
// never touched from outside the loop.
type liveSession struct {
	id      string
	driver  string
	session *sim.Session
	caster  broadcast.BroadcastServer[snapshotMessage]
	source  chan snapshotMessage

	mu       sync.Mutex
	controls sim.Controls
	reset    bool
	snapshot snapshotMessage
}

func (ls *liveSession) publishSnapshot(snapshot snapshotMessage) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.snapshot = snapshot
}

func (ls *liveSession) latestSnapshot() snapshotMessage {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.snapshot
}

func (ls *liveSession) setControls(msg controlMessage) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	switch msg.Type {
	case "reset":
		ls.reset = true
	default:
		ls.controls = sim.Controls{
			Steer:     msg.Steer,
			Throttle:  msg.Throttle,
			Brake:     msg.Brake,
			Handbrake: msg.Handbrake,
		}
	}
}

func (ls *liveSession) takeControls() (sim.Controls, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	doReset := ls.reset
	ls.reset = false
	return ls.controls, doReset
}

type sessionHost struct {
	trk      *track.Track
	store    storage.Store
	settings hostSettings
	upgrader websocket.Upgrader
	l        *log.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

const defaultRenderRate = 60

func newSessionHost(
	trk *track.Track,
	store storage.Store,
	settings hostSettings,
) *sessionHost {
	if settings.renderRate <= 0 {
		settings.renderRate = defaultRenderRate
	}
	return &sessionHost{
		trk:      trk,
		store:    store,
		settings: settings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// the dev frontend runs on its own origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		l:        log.Default().Named("host"),
		sessions: make(map[string]*liveSession),
	}
}

//nolint:funlen // by design
func (h *sessionHost) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Error("upgrade failed", log.ErrorField(err))
		return
	}
	defer conn.Close()

	driver := r.URL.Query().Get("driver")
	if driver == "" {
		driver = "anonymous"
	}
	ls := &liveSession{
		id:     uuid.Must(uuid.NewV4()).String(),
		driver: driver,
		session: sim.NewSession(h.trk,
			sim.WithStore(h.store),
			sim.WithPhysicsRate(h.settings.physicsRate),
			sim.WithRecording(h.settings.recordGhost),
			sim.WithGhostPlayback(h.settings.ghostEnabled),
			sim.WithDriverName(driver),
			sim.WithSessionLogger(h.l.Named("sim"))),
		source: make(chan snapshotMessage),
	}
	ls.caster = broadcast.NewBroadcastServer(ls.id, ls.source)
	// seed the snapshot before any other goroutine can reach the session
	ls.snapshot = h.buildSnapshot(ls, sim.FrameResult{})
	h.register(ls)
	defer h.unregister(ls)

	h.l.Info("session connected",
		log.String("id", ls.id), log.String("driver", driver))

	// reader: the client pushes control frames at its own pace, the simulation
	// always uses the most recent one
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg controlMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			ls.setControls(msg)
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(h.settings.renderRate))
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-readerDone:
			h.l.Info("session disconnected", log.String("id", ls.id))
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			controls, doReset := ls.takeControls()
			if doReset {
				ls.session.Reset()
			}
			res := ls.session.Frame(dt, controls)
			snapshot := h.buildSnapshot(ls, res)
			ls.publishSnapshot(snapshot)
			if err := conn.WriteJSON(snapshot); err != nil {
				h.l.Info("session write failed, closing",
					log.String("id", ls.id), log.ErrorField(err))
				return
			}
			select {
			case ls.source <- snapshot:
			default:
			}
		}
	}
}

func (h *sessionHost) buildSnapshot(ls *liveSession, res sim.FrameResult) snapshotMessage {
	snapshot := snapshotMessage{
		SessionID: ls.id,
		Driver:    ls.driver,
		SimTime:   ls.session.SimTime(),
		Alpha:     res.Alpha,
		Vehicle:   ls.session.VehicleState(),
		Progress:  ls.session.Progress(),
		Events: lo.Map(res.Events, func(ev sim.Event, _ int) string {
			return eventName(ev)
		}),
	}
	if ghost, ok := ls.session.GhostState(); ok {
		snapshot.Ghost = &ghost
	}
	return snapshot
}

func (h *sessionHost) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	h.mu.Lock()
	ls, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Error("upgrade failed", log.ErrorField(err))
		return
	}
	defer conn.Close()

	sub := ls.caster.Subscribe()
	defer ls.caster.CancelSubscription(sub)
	h.l.Info("spectator connected", log.String("session", id))

	// drain client frames so close messages are processed
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readerDone:
			return
		case msg, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func (h *sessionHost) handleList(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	infos := lo.MapToSlice(h.sessions,
		func(_ string, ls *liveSession) sessionInfo {
			snapshot := ls.latestSnapshot()
			return sessionInfo{
				ID:      ls.id,
				Driver:  ls.driver,
				State:   snapshot.Progress.State.String(),
				SimTime: snapshot.SimTime,
			}
		})
	h.mu.Unlock()

	payload, err := oj.Marshal(infos)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // nothing left to do
	w.Write(payload)
}

func (h *sessionHost) register(ls *liveSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[ls.id] = ls
}

func (h *sessionHost) unregister(ls *liveSession) {
	h.mu.Lock()
	delete(h.sessions, ls.id)
	h.mu.Unlock()
	ls.caster.Close()
}

func (h *sessionHost) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ls := range h.sessions {
		ls.caster.Close()
	}
}

func eventName(ev sim.Event) string {
	switch ev {
	case sim.EventStarted:
		return "started"
	case sim.EventCheckpoint:
		return "checkpoint"
	case sim.EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}
