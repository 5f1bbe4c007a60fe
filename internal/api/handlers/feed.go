package handlers

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/patungan-app/patungan-backend/internal/api/dto"
	"github.com/patungan-app/patungan-backend/internal/application/billview"
	"github.com/patungan-app/patungan-backend/internal/observability"
	"github.com/patungan-app/patungan-backend/internal/storage"
)

const sessionBillKey = "bill_id"

// FeedHandler pushes live bill snapshots over websockets. Each bill with
// at least one connected client gets one billview.View; every change to
// the bill or its collections is broadcast as a full snapshot to all of
// that bill's sessions. The view is torn down when its last client
// disconnects.
type FeedHandler struct {
	m       *melody.Melody
	watcher storage.Watcher
	logger  *slog.Logger

	mu    sync.Mutex
	feeds map[string]*feed
}

// feed is one bill's live view plus its client count.
type feed struct {
	view    *billview.View
	clients int
	done    chan struct{}
}

// NewFeedHandler creates the websocket feed handler.
func NewFeedHandler(watcher storage.Watcher, logger *slog.Logger) *FeedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &FeedHandler{
		m:       m,
		watcher: watcher,
		logger:  logger,
		feeds:   make(map[string]*feed),
	}

	m.HandleConnect(h.onConnect)
	m.HandleDisconnect(h.onDisconnect)
	m.HandleError(func(s *melody.Session, err error) {
		logger.Warn("websocket error", "error", err)
	})

	return h
}

// Serve handles GET /api/bills/:id/ws and upgrades the request.
func (h *FeedHandler) Serve(c *gin.Context) {
	keys := map[string]any{sessionBillKey: c.Param("id")}
	if err := h.m.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
	}
}

// Close shuts down all sessions and feeds.
func (h *FeedHandler) Close() error {
	err := h.m.Close()
	h.mu.Lock()
	defer h.mu.Unlock()
	for billID, f := range h.feeds {
		close(f.done)
		f.view.Close()
		delete(h.feeds, billID)
	}
	return err
}

func (h *FeedHandler) onConnect(s *melody.Session) {
	billID, ok := sessionBillID(s)
	if !ok {
		_ = s.Close()
		return
	}

	f := h.acquire(billID)
	observability.LiveFeedClients.Inc()
	h.logger.Info("feed client connected", "bill_id", billID)

	// Send the current snapshot to just this session so the client does
	// not wait for the next change.
	if payload, err := snapshotPayload(f.view); err == nil {
		_ = s.Write(payload)
	}
}

func (h *FeedHandler) onDisconnect(s *melody.Session) {
	billID, ok := sessionBillID(s)
	if !ok {
		return
	}
	h.release(billID)
	observability.LiveFeedClients.Dec()
	h.logger.Info("feed client disconnected", "bill_id", billID)
}

// acquire returns the bill's feed, creating the view and its broadcast
// pump on first use.
func (h *FeedHandler) acquire(billID string) *feed {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[billID]
	if !ok {
		f = &feed{
			view: billview.New(h.watcher, billID),
			done: make(chan struct{}),
		}
		h.feeds[billID] = f
		go h.pump(billID, f)
	}
	f.clients++
	return f
}

// release drops one client from the bill's feed and tears the feed down
// when nobody is left.
func (h *FeedHandler) release(billID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[billID]
	if !ok {
		return
	}
	f.clients--
	if f.clients <= 0 {
		close(f.done)
		f.view.Close()
		delete(h.feeds, billID)
	}
}

// pump broadcasts a fresh snapshot to the bill's sessions on every view
// update.
func (h *FeedHandler) pump(billID string, f *feed) {
	for {
		select {
		case <-f.done:
			return
		case <-f.view.Updates():
			payload, err := snapshotPayload(f.view)
			if err != nil {
				h.logger.Error("snapshot encode failed", "bill_id", billID, "error", err)
				continue
			}
			err = h.m.BroadcastFilter(payload, func(s *melody.Session) bool {
				id, ok := sessionBillID(s)
				return ok && id == billID
			})
			if err != nil {
				h.logger.Warn("feed broadcast failed", "bill_id", billID, "error", err)
			}
		}
	}
}

func snapshotPayload(v *billview.View) ([]byte, error) {
	bill, items, participants, loading := v.Snapshot()
	return json.Marshal(dto.SnapshotMessage{
		Type:         "snapshot",
		Bill:         bill,
		Items:        items,
		Participants: participants,
		Loading:      loading,
	})
}

func sessionBillID(s *melody.Session) (string, bool) {
	v, ok := s.Get(sessionBillKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
