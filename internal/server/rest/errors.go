package rest

import (
	"errors"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/gofiber/fiber/v2"
)

// errorResponse maps an error to a status and a client-safe message.
func errorResponse(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, common.ErrValidation):
		return fiber.StatusBadRequest, orDefault(common.Detail(err, common.ErrValidation), "Invalid request")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized, "Invalid token"
	case errors.Is(err, common.ErrorUnauthorized):
		return fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, orDefault(common.Detail(err, common.ErrorNotFound), "Not found")
	case errors.Is(err, common.ErrAlreadyExists):
		return fiber.StatusBadRequest, "User already exists"
	case errors.Is(err, common.ErrExternalService):
		return fiber.StatusInternalServerError, orDefault(common.Detail(err, common.ErrExternalService), "External service error")
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code, msg := errorResponse(err)
	if code >= fiber.StatusInternalServerError {
		s.log.Error(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "request_id", requestID(c), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
