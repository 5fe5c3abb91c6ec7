package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"queueflow/internal/core/services"
	"queueflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	sseBuffer    = 50
	sseHeartbeat = 30 * time.Second
)

// QueueDisplayHandler streams queue events to boards and participants (public, no auth)
type QueueDisplayHandler struct {
	queueService *services.QueueService
	hub          *services.SSEHub
}

// NewQueueDisplayHandler creates a new display handler
func NewQueueDisplayHandler(queueService *services.QueueService, hub *services.SSEHub) *QueueDisplayHandler {
	return &QueueDisplayHandler{
		queueService: queueService,
		hub:          hub,
	}
}

// Stream handles GET /api/v1/centers/:id/stream
// @Summary Server-sent queue events
// @Description Without a token query the client follows the whole center. With ?token=<ref> it receives that token's events only.
// @Tags Queue
// @Produce text/event-stream
// @Param id path int true "Center ID"
// @Param token query string false "Token ref to follow"
// @Router /centers/{id}/stream [get]
func (h *QueueDisplayHandler) Stream(c *fiber.Ctx) error {
	centerID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid center ID")
	}
	if _, err := h.queueService.GetCenter(c.UserContext(), centerID); err != nil {
		return queueError(c, err)
	}

	ref := c.Query("token")
	if ref != "" {
		tr, err := h.queueService.TrackByRef(c.UserContext(), ref)
		if err != nil {
			return queueError(c, err)
		}
		if tr.Token.CenterID != centerID {
			return response.NotFound(c, "Token not found at this center")
		}
	}

	client := &services.SSEClient{
		ID:       uuid.NewString(),
		CenterID: centerID,
		TokenRef: ref,
		Channel:  make(chan services.SSEEvent, sseBuffer),
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set(fiber.HeaderTransferEncoding, "chunked")

	h.hub.Register(client)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unregister(client.ID)

		// Send initial connection event
		writeSSE(w, "connected", fiber.Map{"client_id": client.ID, "center_id": centerID})
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(sseHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				writeSSE(w, event.Event, event)
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", client.ID)
					return
				}

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", client.ID)
					return
				}
			}
		}
	})

	return nil
}

// writeSSE writes one event frame
func writeSSE(w *bufio.Writer, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("❌ SSE marshal [%s]: %v", event, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
