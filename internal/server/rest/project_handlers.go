package rest

import (
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) listProjects(c *fiber.Ctx) error {
	projects, err := s.svc.Projects.List(c.UserContext(), SessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"projects": projects})
}

func (s *Server) createProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	p, err := s.svc.Projects.Create(c.UserContext(), SessionFrom(c).UserID, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"project": p})
}

func (s *Server) getProject(c *fiber.Ctx) error {
	p, err := s.svc.Projects.Get(c.UserContext(), SessionFrom(c).UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"project": p})
}

func (s *Server) updateProject(c *fiber.Ctx) error {
	var patch models.ProjectPatch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	p, err := s.svc.Projects.Update(c.UserContext(), SessionFrom(c).UserID, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"project": p})
}

func (s *Server) deleteProject(c *fiber.Ctx) error {
	if err := s.svc.Projects.Delete(c.UserContext(), SessionFrom(c).UserID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// provisionProject waits for the workflow to finish. Failures come back as
// a 200 with success=false so the caller can show them inline.
func (s *Server) provisionProject(c *fiber.Ctx) error {
	var req promptRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	res, err := s.svc.Provisioning.ProvisionProject(c.UserContext(), SessionFrom(c).UserID, c.Params("id"), req.Prompt)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) terminateProject(c *fiber.Ctx) error {
	res, err := s.svc.Provisioning.TerminateProject(c.UserContext(), SessionFrom(c).UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) syncProjects(c *fiber.Ctx) error {
	return c.JSON(s.svc.Sync.SyncProjectStatuses(c.UserContext()))
}

func (s *Server) runFlow(c *fiber.Ctx) error {
	var req messageRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	return c.JSON(s.svc.Provisioning.RunFlow(c.UserContext(), req.Message))
}

func (s *Server) plan(c *fiber.Ctx) error {
	var req promptRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	plan, err := s.svc.Plan.Generate(c.UserContext(), req.Prompt)
	if err != nil {
		return err
	}
	return c.JSON(plan)
}
