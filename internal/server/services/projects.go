package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/logging"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	"github.com/dmitrijs2005/ideforge/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ErrProjectNotFound covers missing, foreign and malformed project ids.
var ErrProjectNotFound = fmt.Errorf("%w: Project not found", common.ErrorNotFound)

// ProjectService is the owner-scoped CRUD over projects.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ProjectService {
	return &ProjectService{db: db, repomanager: m, log: log.With("module", "projects")}
}

// List returns the user's projects, newest first.
func (s *ProjectService) List(ctx context.Context, userID string) ([]*models.Project, error) {
	return s.repomanager.Projects(s.db).ListByUser(ctx, userID)
}

func (s *ProjectService) Create(ctx context.Context, userID, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" {
		return nil, fmt.Errorf("%w: Name and description are required", common.ErrValidation)
	}

	p, err := s.repomanager.Projects(s.db).Create(ctx, userID, name, description)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "project created", "project_id", p.ID, "user_id", userID)
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, id string) (*models.Project, error) {
	if !validID(id) {
		return nil, ErrProjectNotFound
	}
	p, err := s.repomanager.Projects(s.db).GetForUser(ctx, userID, id)
	return p, notFound(err)
}

// Update applies patch. Status values are validated and a terminated
// project cannot be moved to another status.
func (s *ProjectService) Update(ctx context.Context, userID, id string, patch models.ProjectPatch) (*models.Project, error) {
	if !validID(id) {
		return nil, ErrProjectNotFound
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: Name cannot be empty", common.ErrValidation)
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return nil, fmt.Errorf("%w: Description cannot be empty", common.ErrValidation)
	}

	repo := s.repomanager.Projects(s.db)

	if patch.Status != nil {
		next, err := models.ParseProjectStatus(string(*patch.Status))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		current, err := repo.GetForUser(ctx, userID, id)
		if err != nil {
			return nil, notFound(err)
		}
		if !current.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: cannot change status from %s to %s", common.ErrValidation, current.Status, next)
		}
	}

	if patch.Empty() {
		return s.Get(ctx, userID, id)
	}

	p, err := repo.UpdateForUser(ctx, userID, id, patch)
	if errors.Is(err, common.ErrorNotFound) && patch.Status != nil {
		// the row may have been terminated after the check above
		if current, gerr := repo.GetForUser(ctx, userID, id); gerr == nil && !current.Status.CanTransitionTo(*patch.Status) {
			return nil, fmt.Errorf("%w: cannot change status from %s to %s", common.ErrValidation, current.Status, *patch.Status)
		}
	}
	return p, notFound(err)
}

func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return ErrProjectNotFound
	}
	if err := notFound(s.repomanager.Projects(s.db).DeleteForUser(ctx, userID, id)); err != nil {
		return err
	}
	s.log.Info(ctx, "project deleted", "project_id", id, "user_id", userID)
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrProjectNotFound
	}
	return err
}
