package rest

import (
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/server/metrics"
	"github.com/dmitrijs2005/ideforge/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// requireSession verifies the session token from the cookie or an
// Authorization: Bearer header and stores the session in Locals.
func (s *Server) requireSession(c *fiber.Ctx) error {
	token := sessionToken(c)
	if token == "" {
		return common.ErrorUnauthorized
	}
	sess, err := s.svc.Users.Authenticate(token)
	if err != nil {
		return err
	}
	c.Locals(sessionKey, sess)
	return c.Next()
}

func sessionToken(c *fiber.Ctx) string {
	if t := c.Cookies(common.SessionCookieName); t != "" {
		return t
	}
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// SessionFrom returns the session set by requireSession.
func SessionFrom(c *fiber.Ctx) *services.Session {
	sess, _ := c.Locals(sessionKey).(*services.Session)
	return sess
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// requestLogger logs one line per request and feeds the API metrics.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		timer := metrics.NewTimer()
		err := c.Next()
		if err != nil {
			// Render now so the logged status is the one sent.
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		metrics.APIRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		timer.ObserveDuration(metrics.APIRequestDuration.WithLabelValues(c.Method(), route))

		s.log.Info(c.UserContext(), "request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", timer.Duration().Round(time.Microsecond).String(),
			"request_id", requestID(c),
		)
		return err
	}
}
