package rest

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// decodeBody unmarshals a JSON body regardless of Content-Type. An empty
// body leaves v untouched.
func decodeBody(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func (s *Server) signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	res, err := s.svc.Users.Signup(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return s.startSession(c, res)
}

func (s *Server) login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	res, err := s.svc.Users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return fiber.NewError(fiber.StatusUnauthorized, common.InvalidCredentialsMessage)
		}
		return err
	}
	return s.startSession(c, res)
}

func (s *Server) startSession(c *fiber.Ctx, res *services.AuthResult) error {
	c.Cookie(&fiber.Cookie{
		Name:     common.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL / time.Second),
		HTTPOnly: true,
		Secure:   s.opts.Production,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"success": true,
		"user":    res.User.Public(false),
		"token":   res.Token,
	})
}

func (s *Server) logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.opts.Production,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) me(c *fiber.Ctx) error {
	user, err := s.svc.Users.Me(c.UserContext(), SessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user.Public(true)})
}
