package handlers

import (
	"time"

	"queueflow/internal/core/domain"
	"queueflow/internal/core/services"
	"queueflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// QueueHandler handles public queue endpoints (participants and boards)
type QueueHandler struct {
	queueService *services.QueueService
	loc          *time.Location
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queueService *services.QueueService, loc *time.Location) *QueueHandler {
	return &QueueHandler{queueService: queueService, loc: loc}
}

// AdmitRequest books a participant into the online lane
type AdmitRequest struct {
	ParticipantID uint `json:"participant_id"`
}

// CancelRequest identifies the participant cancelling their token
type CancelRequest struct {
	ParticipantID uint `json:"participant_id"`
}

// CenterResponse is the public view of a center
type CenterResponse struct {
	ID                uint     `json:"id"`
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Address           string   `json:"address,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	AvgServiceMinutes int      `json:"avg_service_minutes"`
	IsActive          bool     `json:"is_active"`
}

func centerResponse(c *domain.ServiceCenter) CenterResponse {
	r := CenterResponse{
		ID:                c.ID,
		Code:              c.Code,
		Name:              c.Name,
		Address:           c.Address,
		Phone:             c.Phone,
		AvgServiceMinutes: c.AvgServiceMinutes,
		IsActive:          c.IsActive,
	}
	if c.Location != nil {
		lat, lon := c.Location.Lat, c.Location.Lon
		r.Latitude, r.Longitude = &lat, &lon
	}
	return r
}

// ParticipantResponse is the public view of a participant
type ParticipantResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Mobile      string   `json:"mobile"`
	Email       string   `json:"email,omitempty"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	NoShowCount int      `json:"no_show_count"`
}

func participantResponse(p *domain.Participant) ParticipantResponse {
	r := ParticipantResponse{
		ID:          p.ID,
		Name:        p.Name,
		Mobile:      p.Mobile,
		Email:       p.Email,
		NoShowCount: p.NoShowCount,
	}
	if p.Location != nil {
		lat, lon := p.Location.Lat, p.Location.Lon
		r.Latitude, r.Longitude = &lat, &lon
	}
	return r
}

func (h *QueueHandler) tokens(list []*domain.Token) []*services.TokenPayload {
	out := make([]*services.TokenPayload, 0, len(list))
	for _, t := range list {
		out = append(out, services.NewTokenPayload(t, h.loc))
	}
	return out
}

// ============================================================
// Centers
// ============================================================

// ListCenters handles GET /api/v1/centers
// @Summary List service centers
// @Tags Centers
// @Produce json
// @Success 200 {object} response.Response
// @Router /centers [get]
func (h *QueueHandler) ListCenters(c *fiber.Ctx) error {
	centers, err := h.queueService.ListCenters(c.UserContext())
	if err != nil {
		return queueError(c, err)
	}
	out := make([]CenterResponse, 0, len(centers))
	for i := range centers {
		out = append(out, centerResponse(&centers[i]))
	}
	return response.Success(c, "Centers retrieved", out)
}

// GetCenter handles GET /api/v1/centers/:id
// @Summary Get a service center
// @Tags Centers
// @Produce json
// @Param id path int true "Center ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /centers/{id} [get]
func (h *QueueHandler) GetCenter(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid center ID")
	}
	center, err := h.queueService.GetCenter(c.UserContext(), id)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Center retrieved", centerResponse(center))
}

// QueueState handles GET /api/v1/centers/:id/queue/:lane
// @Summary Live state of one lane
// @Description Sweeps stale tokens, then returns the serving token, the waiting tokens with positions, ETAs and badges, and whether call-next is allowed now
// @Tags Queue
// @Produce json
// @Param id path int true "Center ID"
// @Param lane path string true "online or walkin"
// @Success 200 {object} response.Response
// @Router /centers/{id}/queue/{lane} [get]
func (h *QueueHandler) QueueState(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid center ID")
	}
	lane, err := paramLane(c)
	if err != nil {
		return queueError(c, err)
	}

	view, err := h.queueService.QueueState(c.UserContext(), id, lane)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Queue state retrieved", services.NewLanePayload(view, h.loc))
}

// ============================================================
// Participants
// ============================================================

// RegisterParticipant handles POST /api/v1/participants
// @Summary Register a participant
// @Description Creates a participant, or updates the one with the same mobile number
// @Tags Participants
// @Accept json
// @Produce json
// @Param body body services.ParticipantInput true "Participant"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /participants [post]
func (h *QueueHandler) RegisterParticipant(c *fiber.Ctx) error {
	var req services.ParticipantInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	p, err := h.queueService.RegisterParticipant(c.UserContext(), &req)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Participant registered", participantResponse(p))
}

// GetParticipant handles GET /api/v1/participants/:id
func (h *QueueHandler) GetParticipant(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid participant ID")
	}
	p, err := h.queueService.GetParticipant(c.UserContext(), id)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Participant retrieved", participantResponse(p))
}

// ParticipantHistory handles GET /api/v1/participants/:id/history
// @Summary Finished tokens of a participant
// @Tags Participants
// @Produce json
// @Param id path int true "Participant ID"
// @Success 200 {object} response.Response
// @Router /participants/{id}/history [get]
func (h *QueueHandler) ParticipantHistory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid participant ID")
	}
	list, err := h.queueService.ParticipantHistory(c.UserContext(), id)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "History retrieved", h.tokens(list))
}

// ============================================================
// Tokens
// ============================================================

// Admit handles POST /api/v1/centers/:id/tokens
// @Summary Book an online token
// @Description The token waits for payment before it joins the sequence
// @Tags Tokens
// @Accept json
// @Produce json
// @Param id path int true "Center ID"
// @Param body body AdmitRequest true "Participant"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /centers/{id}/tokens [post]
func (h *QueueHandler) Admit(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid center ID")
	}
	var req AdmitRequest
	if err := c.BodyParser(&req); err != nil || req.ParticipantID == 0 {
		return response.BadRequest(c, "participant_id is required")
	}

	tok, err := h.queueService.Admit(c.UserContext(), id, domain.LaneOnline, req.ParticipantID)
	if err != nil {
		return queueError(c, err)
	}
	return response.Created(c, "Token created", services.NewTokenPayload(tok, h.loc))
}

// TokenDetail handles GET /api/v1/tokens/:id
func (h *QueueHandler) TokenDetail(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid token ID")
	}
	tr, err := h.queueService.TokenDetail(c.UserContext(), id)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Token retrieved", services.NewTrackingPayload(tr, h.loc))
}

// ConfirmPayment handles POST /api/v1/tokens/:id/payment
// @Summary Confirm payment
// @Description Activates the token and returns its leave-by, arrival and service window
// @Tags Tokens
// @Produce json
// @Param id path int true "Token ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tokens/{id}/payment [post]
func (h *QueueHandler) ConfirmPayment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid token ID")
	}
	tok, err := h.queueService.ConfirmPayment(c.UserContext(), id)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Payment confirmed", services.NewTokenPayload(tok, h.loc))
}

// Cancel handles POST /api/v1/tokens/:id/cancel
// @Summary Cancel a token
// @Tags Tokens
// @Accept json
// @Produce json
// @Param id path int true "Token ID"
// @Param body body CancelRequest true "Owner"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tokens/{id}/cancel [post]
func (h *QueueHandler) Cancel(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid token ID")
	}
	var req CancelRequest
	if err := c.BodyParser(&req); err != nil || req.ParticipantID == 0 {
		return response.BadRequest(c, "participant_id is required")
	}

	tok, err := h.queueService.Cancel(c.UserContext(), id, services.ParticipantActor(req.ParticipantID))
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Token cancelled", services.NewTokenPayload(tok, h.loc))
}

// ============================================================
// Tracking
// ============================================================

// TrackByRef handles GET /api/v1/track/:ref
// @Summary Track a token by its ref
// @Tags Tracking
// @Produce json
// @Param ref path string true "Token ref"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /track/{ref} [get]
func (h *QueueHandler) TrackByRef(c *fiber.Ctx) error {
	tr, err := h.queueService.TrackByRef(c.UserContext(), c.Params("ref"))
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Token tracked", services.NewTrackingPayload(tr, h.loc))
}

// TrackByLabel handles GET /api/v1/centers/:id/track/:label
func (h *QueueHandler) TrackByLabel(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid center ID")
	}
	tr, err := h.queueService.TrackByLabel(c.UserContext(), id, c.Params("label"))
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Token tracked", services.NewTrackingPayload(tr, h.loc))
}
