package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/logging"
	"github.com/dmitrijs2005/ideforge/internal/server/cerebras"
	"github.com/dmitrijs2005/ideforge/internal/server/metrics"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
)

// Planner turns a project description into clarifying questions.
type Planner interface {
	GeneratePlan(ctx context.Context, prompt string) (*models.Plan, error)
}

type PlanService struct {
	planner Planner
	log     logging.Logger
}

func NewPlanService(p Planner, log logging.Logger) *PlanService {
	return &PlanService{planner: p, log: log.With("module", "plan")}
}

// Generate returns a plan for prompt. Failures are reported as
// common.ErrExternalService carrying a client-safe message.
func (s *PlanService) Generate(ctx context.Context, prompt string) (*models.Plan, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: Prompt is required", common.ErrValidation)
	}

	plan, err := s.planner.GeneratePlan(ctx, prompt)
	switch {
	case err == nil:
		metrics.PlanRequestsTotal.WithLabelValues("success").Inc()
		return plan, nil
	case errors.Is(err, cerebras.ErrMissingAPIKey):
		metrics.PlanRequestsTotal.WithLabelValues("not_configured").Inc()
		s.log.Error(ctx, "plan requested but no API key configured")
		return nil, fmt.Errorf("%w: Missing API Key", common.ErrExternalService)
	default:
		metrics.PlanRequestsTotal.WithLabelValues("error").Inc()
		s.log.Error(ctx, "plan generation failed", "error", err)
		return nil, fmt.Errorf("%w: Failed to generate plan", common.ErrExternalService)
	}
}
