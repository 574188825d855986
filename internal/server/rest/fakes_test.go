package rest

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/dbx"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	projectsrepo "github.com/dmitrijs2005/ideforge/internal/server/repositories/projects"
	usersrepo "github.com/dmitrijs2005/ideforge/internal/server/repositories/users"
	"github.com/google/uuid"
)

// memStore backs both repositories with maps so handlers can run against
// the real services.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	projects []*models.Project
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}}
}

func (m *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memStore) Users(dbx.DBTX) usersrepo.Repository          { return memUsers{m} }
func (m *memStore) Projects(dbx.DBTX) projectsrepo.Repository    { return memProjects{m} }

type memUsers struct{ *memStore }

func (r memUsers) Create(ctx context.Context, email, hash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; ok {
		return nil, common.ErrAlreadyExists
	}
	u := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	r.users[email] = u
	return u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memProjects struct{ *memStore }

func (r memProjects) find(userID, id string) *models.Project {
	for _, p := range r.projects {
		if p.ID == id && (userID == "" || p.UserID == userID) {
			return p
		}
	}
	return nil
}

func (r memProjects) Create(ctx context.Context, userID, name, description string) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	p := &models.Project{ID: uuid.NewString(), Name: name, Description: description, UserID: userID,
		Status: models.StatusProvisioning, CreatedAt: now, UpdatedAt: now}
	r.projects = append(r.projects, p)
	cp := *p
	return &cp, nil
}

func (r memProjects) ListByUser(ctx context.Context, userID string) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Project{}
	for i := len(r.projects) - 1; i >= 0; i-- {
		if p := r.projects[i]; p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memProjects) GetForUser(ctx context.Context, userID, id string) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(userID, id)
	if p == nil {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProjects) UpdateForUser(ctx context.Context, userID, id string, patch models.ProjectPatch) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(userID, id)
	if p == nil {
		return nil, common.ErrorNotFound
	}
	if p.Status == models.StatusTerminated && patch.Status != nil && *patch.Status != models.StatusTerminated {
		return nil, common.ErrorNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.URL != nil {
		p.URL = patch.URL
	}
	if patch.InstanceID != nil {
		p.InstanceID = patch.InstanceID
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (r memProjects) DeleteForUser(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.projects {
		if p.ID == id && p.UserID == userID {
			r.projects = append(r.projects[:i], r.projects[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r memProjects) ListActiveWithURL(ctx context.Context) ([]models.ProbeTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ProbeTarget
	for _, p := range r.projects {
		if p.Status == models.StatusActive && p.URL != nil {
			out = append(out, models.ProbeTarget{ID: p.ID, URL: *p.URL, InstanceID: p.InstanceID})
		}
	}
	return out, nil
}

func (r memProjects) MarkActive(ctx context.Context, id, url, instanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find("", id)
	if p == nil || p.Status != models.StatusProvisioning {
		return common.ErrorNotFound
	}
	p.URL, p.InstanceID, p.Status = &url, &instanceID, models.StatusActive
	return nil
}

func (r memProjects) SetStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find("", id)
	if p == nil {
		return common.ErrorNotFound
	}
	p.Status = status
	return nil
}

func (r memProjects) TerminateByInstanceID(ctx context.Context, instanceID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.projects {
		if p.InstanceID != nil && *p.InstanceID == instanceID {
			p.Status = models.StatusTerminated
			n++
		}
	}
	return n, nil
}
