package services

import (
	"log"
	"sync"
	"time"

	"queueflow/internal/core/domain"
	"queueflow/internal/pkg/clock"

	"github.com/gofiber/fiber/v2"
)

// ============================================================
// SSE Hub
// ============================================================

// SSEEvent represents a server-sent event
type SSEEvent struct {
	Event    string      `json:"event"`
	CenterID uint        `json:"center_id"`
	Lane     domain.Lane `json:"lane,omitempty"`
	Data     interface{} `json:"data"`
}

// SSEClient represents a connected SSE client. A client follows either a
// whole center (boards, operator dashboards) or one token by its ref.
type SSEClient struct {
	ID       string
	CenterID uint
	TokenRef string
	Channel  chan SSEEvent
}

// SSEHub manages all SSE connections
type SSEHub struct {
	mu      sync.RWMutex
	clients map[string]*SSEClient
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]*SSEClient),
	}
}

// Register adds a new SSE client
func (h *SSEHub) Register(client *SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 SSE client registered: %s (center=%d, token=%q) | total=%d",
		client.ID, client.CenterID, client.TokenRef, len(h.clients))
}

// Unregister removes an SSE client
func (h *SSEHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 SSE client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// BroadcastToCenter sends an event to every client watching a center
func (h *SSEHub) BroadcastToCenter(centerID uint, event SSEEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.CenterID = centerID
	sent := 0
	for _, client := range h.clients {
		if client.CenterID != centerID || client.TokenRef != "" {
			continue
		}
		select {
		case client.Channel <- event:
			sent++
		default:
			// Client channel full, skip
			log.Printf("⚠️ SSE channel full for client %s, skipping", client.ID)
		}
	}
	return sent
}

// SendToToken sends an event to clients following one token
func (h *SSEHub) SendToToken(ref string, event SSEEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if client.TokenRef == "" || client.TokenRef != ref {
			continue
		}
		select {
		case client.Channel <- event:
			sent++
		default:
			log.Printf("⚠️ SSE channel full for token %s, skipping", ref)
		}
	}
	return sent
}

// GetClientCount returns the number of connected clients
func (h *SSEHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ============================================================
// QueueNotifyService: queue events to SSE
// ============================================================

// QueueNotifyService pushes queue events to SSE clients
type QueueNotifyService struct {
	Hub *SSEHub
	loc *time.Location
}

// NewQueueNotifyService creates a new notification service
func NewQueueNotifyService(hub *SSEHub, loc *time.Location) *QueueNotifyService {
	if loc == nil {
		loc = time.UTC
	}
	return &QueueNotifyService{Hub: hub, loc: loc}
}

// TokenScheduled tells the holder their new timeline
func (n *QueueNotifyService) TokenScheduled(t *domain.Token, position int) {
	n.Hub.SendToToken(t.Ref, SSEEvent{
		Event:    "token_scheduled",
		CenterID: t.CenterID,
		Lane:     t.Lane,
		Data: map[string]interface{}{
			"token":    NewTokenPayload(t, n.loc),
			"position": position,
		},
	})
}

// TokenCalled tells the holder and every board of the center
func (n *QueueNotifyService) TokenCalled(t *domain.Token) {
	event := SSEEvent{
		Event:    "token_called",
		CenterID: t.CenterID,
		Lane:     t.Lane,
		Data:     map[string]interface{}{"token": NewTokenPayload(t, n.loc)},
	}
	n.Hub.SendToToken(t.Ref, event)
	if sent := n.Hub.BroadcastToCenter(t.CenterID, event); sent > 0 {
		log.Printf("📡 SSE broadcast [token_called %s] to center %d → %d clients", t.Label, t.CenterID, sent)
	}
}

// TokenExpired tells the holder why their token ended
func (n *QueueNotifyService) TokenExpired(t *domain.Token) {
	n.Hub.SendToToken(t.Ref, SSEEvent{
		Event:    "token_expired",
		CenterID: t.CenterID,
		Lane:     t.Lane,
		Data: map[string]interface{}{
			"token":  NewTokenPayload(t, n.loc),
			"reason": t.ExpiredReason,
		},
	})
}

// QueueChanged asks boards of the center to refresh
func (n *QueueNotifyService) QueueChanged(centerID uint, lane domain.Lane, event string, data map[string]interface{}) {
	n.Hub.BroadcastToCenter(centerID, SSEEvent{Event: event, Lane: lane, Data: data})
}

// ============================================================
// Webhook notifier
// ============================================================

const (
	webhookQueueSize = 256
	webhookTimeout   = 10 * time.Second
)

// WebhookEvent is the JSON body posted for each queue event
type WebhookEvent struct {
	Event    string                 `json:"event"`
	CenterID uint                   `json:"center_id"`
	Lane     domain.Lane            `json:"lane,omitempty"`
	Token    *TokenPayload          `json:"token,omitempty"`
	Position int                    `json:"position,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	SentAt   string                 `json:"sent_at"`
}

// WebhookNotifier posts queue events to an external URL from a single
// worker. Events that do not fit in the queue are dropped and failed posts
// are not retried.
type WebhookNotifier struct {
	url   string
	token string
	loc   *time.Location
	clock clock.Clock

	mu      sync.RWMutex
	stopped bool
	queue   chan WebhookEvent
	done    chan struct{}
}

// NewWebhookNotifier starts the delivery worker
func NewWebhookNotifier(url, token string, loc *time.Location, clk clock.Clock) *WebhookNotifier {
	if loc == nil {
		loc = time.UTC
	}
	if clk == nil {
		clk = clock.Real()
	}
	w := &WebhookNotifier{
		url:   url,
		token: token,
		loc:   loc,
		clock: clk,
		queue: make(chan WebhookEvent, webhookQueueSize),
		done:  make(chan struct{}),
	}
	go w.run()
	log.Printf("✅ Webhook notifier started → %s", url)
	return w
}

func (w *WebhookNotifier) TokenScheduled(t *domain.Token, position int) {
	w.enqueue(WebhookEvent{Event: "token_scheduled", CenterID: t.CenterID, Lane: t.Lane, Token: NewTokenPayload(t, w.loc), Position: position})
}

func (w *WebhookNotifier) TokenCalled(t *domain.Token) {
	w.enqueue(WebhookEvent{Event: "token_called", CenterID: t.CenterID, Lane: t.Lane, Token: NewTokenPayload(t, w.loc)})
}

func (w *WebhookNotifier) TokenExpired(t *domain.Token) {
	w.enqueue(WebhookEvent{Event: "token_expired", CenterID: t.CenterID, Lane: t.Lane, Token: NewTokenPayload(t, w.loc)})
}

func (w *WebhookNotifier) QueueChanged(centerID uint, lane domain.Lane, event string, data map[string]interface{}) {
	w.enqueue(WebhookEvent{Event: event, CenterID: centerID, Lane: lane, Data: data})
}

func (w *WebhookNotifier) enqueue(ev WebhookEvent) {
	ev.SentAt = w.clock.Now().In(w.loc).Format(time.RFC3339)

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	select {
	case w.queue <- ev:
	default:
		log.Printf("⚠️ Webhook queue full, dropping [%s]", ev.Event)
	}
}

func (w *WebhookNotifier) run() {
	defer close(w.done)
	for ev := range w.queue {
		if err := w.send(ev); err != nil {
			log.Printf("❌ Webhook [%s] failed: %v", ev.Event, err)
		}
	}
}

func (w *WebhookNotifier) send(ev WebhookEvent) error {
	agent := fiber.Post(w.url).
		JSON(ev).
		Timeout(webhookTimeout)
	if w.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+w.token)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code < 200 || code >= 300 {
		return fiber.NewError(code, string(body))
	}
	return nil
}

// Stop drains queued events and stops the worker
func (w *WebhookNotifier) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
	log.Println("🛑 Webhook notifier stopped")
}
