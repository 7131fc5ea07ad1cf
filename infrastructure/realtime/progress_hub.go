package realtime

import (
	"sync"

	"github.com/gin-gonic/gin"

	"youtube-uploader/domain/model"
)

const progressEventName = "upload_progress"

// Hub maintains per-job subscribers listening for upload progress events.
type Hub struct {
	mu   sync.RWMutex
	jobs map[string]map[chan model.ProgressEvent]struct{}
}

func NewProgressHub() *Hub {
	return &Hub{jobs: make(map[string]map[chan model.ProgressEvent]struct{})}
}

// subscriberBuffer is how many events a slow stream may fall behind.
const subscriberBuffer = 16

// Subscribe registers a listener for jobID. Events broadcast after Subscribe
// returns are delivered to the channel until cancel is called.
func (h *Hub) Subscribe(jobID string) (<-chan model.ProgressEvent, func()) {
	ch := make(chan model.ProgressEvent, subscriberBuffer)
	h.addSubscriber(jobID, ch)
	return ch, func() { h.removeSubscriber(jobID, ch) }
}

// Stream writes events as server-sent events until a final event is sent or
// the client goes away.
func (h *Hub) Stream(c *gin.Context, events <-chan model.ProgressEvent) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	// Initial comment to keep connection open
	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-events:
			c.SSEvent(progressEventName, evt)
			c.Writer.Flush()
			if evt.State != model.JobStateProcessing {
				return
			}
		}
	}
}

// Subscribers returns the number of live streams for jobID.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.jobs[jobID])
}

func (h *Hub) addSubscriber(jobID string, ch chan model.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.jobs[jobID] == nil {
		h.jobs[jobID] = make(map[chan model.ProgressEvent]struct{})
	}
	h.jobs[jobID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(jobID string, ch chan model.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.jobs[jobID]; subs != nil {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.jobs, jobID)
		}
	}
}

// BroadcastProgress delivers evt to every subscriber of its job. Slow
// subscribers miss intermediate events rather than stalling the upload, but
// a final event replaces the oldest buffered one so streams always end.
func (h *Hub) BroadcastProgress(evt model.ProgressEvent) {
	evt.Type = progressEventName
	final := evt.State != model.JobStateProcessing
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.jobs[evt.JobID] {
		select { // non-blocking
		case ch <- evt:
			continue
		default:
		}
		if !final {
			continue
		}
		// Each job has a single producer, so the freed slot stays free.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}
