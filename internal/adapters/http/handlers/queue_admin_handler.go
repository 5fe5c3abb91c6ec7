package handlers

import (
	"strings"
	"time"

	"queueflow/internal/adapters/http/middleware"
	"queueflow/internal/core/domain"
	"queueflow/internal/core/services"
	"queueflow/internal/pkg/pagination"
	"queueflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// QueueAdminHandler handles operator endpoints. Every route is scoped to
// the center in the operator's token.
type QueueAdminHandler struct {
	queueService *services.QueueService
	loc          *time.Location
}

// NewQueueAdminHandler creates a new admin handler
func NewQueueAdminHandler(queueService *services.QueueService, loc *time.Location) *QueueAdminHandler {
	return &QueueAdminHandler{queueService: queueService, loc: loc}
}

// NoShowRequest carries the operator's reason
type NoShowRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// ============================================================
// Dashboard
// ============================================================

// Dashboard handles GET /api/v1/admin/dashboard
// @Summary Both lanes of the operator's center
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/dashboard [get]
func (h *QueueAdminHandler) Dashboard(c *fiber.Ctx) error {
	views, err := h.queueService.Dashboard(c.UserContext(), middleware.CenterID(c))
	if err != nil {
		return queueError(c, err)
	}
	lanes := make([]*services.LanePayload, 0, len(views))
	for _, v := range views {
		lanes = append(lanes, services.NewLanePayload(v, h.loc))
	}
	return response.Success(c, "Dashboard retrieved", lanes)
}

// CallNext handles POST /api/v1/admin/queue/:lane/call-next
// @Summary Call the next token
// @Description Completes the token at the counter and admits the next one. A denied call returns 200 with outcome "denied" and retry_at; the serving token stays.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param lane path string true "online or walkin"
// @Success 200 {object} response.Response
// @Router /admin/queue/{lane}/call-next [post]
func (h *QueueAdminHandler) CallNext(c *fiber.Ctx) error {
	lane, err := paramLane(c)
	if err != nil {
		return queueError(c, err)
	}
	res, err := h.queueService.CallNext(c.UserContext(), middleware.CenterID(c), lane)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Call-next "+string(res.Outcome), services.NewAdmissionPayload(res, h.loc))
}

// AddWalkin handles POST /api/v1/admin/walkins
// @Summary Add a walk-in
// @Description Without a 10-digit mobile an anonymous participant is created
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.WalkinInput true "Walk-in"
// @Success 201 {object} response.Response
// @Router /admin/walkins [post]
func (h *QueueAdminHandler) AddWalkin(c *fiber.Ctx) error {
	var req services.WalkinInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	tok, err := h.queueService.AddWalkin(c.UserContext(), middleware.CenterID(c), &req)
	if err != nil {
		return queueError(c, err)
	}
	return response.Created(c, "Walk-in added", services.NewTokenPayload(tok, h.loc))
}

// ============================================================
// Token actions
// ============================================================

// ownToken resolves the token id and rejects tokens of other centers.
// When ok is false the response has already been written.
func (h *QueueAdminHandler) ownToken(c *fiber.Ctx) (id uint, ok bool, err error) {
	id, ok = paramID(c, "id")
	if !ok {
		return 0, false, response.BadRequest(c, "Invalid token ID")
	}
	tr, err := h.queueService.TokenDetail(c.UserContext(), id)
	if err != nil {
		return 0, false, queueError(c, err)
	}
	if tr.Token.CenterID != middleware.CenterID(c) {
		return 0, false, response.Forbidden(c, "Token belongs to another center")
	}
	return id, true, nil
}

// Complete handles POST /api/v1/admin/tokens/:id/complete
func (h *QueueAdminHandler) Complete(c *fiber.Ctx) error {
	id, ok, err := h.ownToken(c)
	if !ok {
		return err
	}
	tok, err := h.queueService.Complete(c.UserContext(), id)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Token completed", services.NewTokenPayload(tok, h.loc))
}

// NoShow handles POST /api/v1/admin/tokens/:id/no-show
// @Summary Mark a token as no-show
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Token ID"
// @Param body body NoShowRequest true "Reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/tokens/{id}/no-show [post]
func (h *QueueAdminHandler) NoShow(c *fiber.Ctx) error {
	var req NoShowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return queueError(c, domain.ErrMissingReason)
	}
	id, ok, err := h.ownToken(c)
	if !ok {
		return err
	}
	tok, err := h.queueService.MarkNoShow(c.UserContext(), id, req.Reason, req.Notes)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Token marked no-show", services.NewTokenPayload(tok, h.loc))
}

// Cancel handles POST /api/v1/admin/tokens/:id/cancel
func (h *QueueAdminHandler) Cancel(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid token ID")
	}
	actor := services.OperatorActor(middleware.OperatorID(c), middleware.CenterID(c))
	tok, err := h.queueService.Cancel(c.UserContext(), id, actor)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Token cancelled", services.NewTokenPayload(tok, h.loc))
}

// ============================================================
// Reports & profile
// ============================================================

// History handles GET /api/v1/admin/history
// @Summary Finished tokens of the center
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Limit (default 100)"
// @Success 200 {object} response.Response
// @Router /admin/history [get]
func (h *QueueAdminHandler) History(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	list, total, err := h.queueService.CenterHistory(c.UserContext(), middleware.CenterID(c), params.Offset, params.Limit)
	if err != nil {
		return queueError(c, err)
	}
	out := make([]*services.TokenPayload, 0, len(list))
	for _, t := range list {
		out = append(out, services.NewTokenPayload(t, h.loc))
	}
	return response.Paginated(c, "History retrieved", out, pagination.GetMeta(params, total))
}

// Analytics handles GET /api/v1/admin/analytics
func (h *QueueAdminHandler) Analytics(c *fiber.Ctx) error {
	a, err := h.queueService.Analytics(c.UserContext(), middleware.CenterID(c))
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Analytics retrieved", a)
}

// UpdateCenter handles PUT /api/v1/admin/center
// @Summary Update the center profile
// @Description New service minutes apply from the next schedule; existing estimates are kept
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CenterProfileInput true "Profile"
// @Success 200 {object} response.Response
// @Router /admin/center [put]
func (h *QueueAdminHandler) UpdateCenter(c *fiber.Ctx) error {
	var req services.CenterProfileInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	center, err := h.queueService.UpdateCenterProfile(c.UserContext(), middleware.CenterID(c), &req)
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Center updated", centerResponse(center))
}
