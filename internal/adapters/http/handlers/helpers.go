package handlers

import (
	"errors"
	"log"
	"strconv"

	"queueflow/internal/core/domain"
	"queueflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// queueError maps service errors onto HTTP statuses
func queueError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrDuplicateActiveToken):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrQueueFull):
		return response.TooManyRequests(c, err.Error())
	case errors.Is(err, domain.ErrMissingReason), errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())
	default:
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, "Internal server error")
	}
}

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func paramLane(c *fiber.Ctx) (domain.Lane, error) {
	return domain.ParseLane(c.Params("lane"))
}
