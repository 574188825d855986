package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/dbx"
	"github.com/dmitrijs2005/ideforge/internal/server/archive"
	"github.com/dmitrijs2005/ideforge/internal/server/kestra"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	projectsrepo "github.com/dmitrijs2005/ideforge/internal/server/repositories/projects"
	usersrepo "github.com/dmitrijs2005/ideforge/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- users ---

type fakeUsersRepo struct {
	mu        sync.Mutex
	byEmail   map[string]*models.User
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, email, hash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[email]; ok {
		return nil, common.ErrAlreadyExists
	}
	u := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- projects ---

type fakeProjectsRepo struct {
	mu       sync.Mutex
	byID     map[string]*models.Project
	order    []string
	listErr  error
	writeErr error
	calls    []string

	// beforeUpdate runs at the start of UpdateForUser, outside the lock.
	beforeUpdate func()
}

func newFakeProjectsRepo() *fakeProjectsRepo {
	return &fakeProjectsRepo{byID: map[string]*models.Project{}}
}

func (f *fakeProjectsRepo) add(p *models.Project) *models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	f.byID[p.ID] = p
	f.order = append(f.order, p.ID)
	return p
}

func (f *fakeProjectsRepo) status(id string) models.ProjectStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].Status
}

func (f *fakeProjectsRepo) setStatus(id string, status models.ProjectStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].Status = status
}

func (f *fakeProjectsRepo) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeProjectsRepo) Create(ctx context.Context, userID, name, description string) (*models.Project, error) {
	now := time.Now()
	return f.add(&models.Project{Name: name, Description: description, UserID: userID, Status: models.StatusProvisioning, CreatedAt: now, UpdatedAt: now}), nil
}

func (f *fakeProjectsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Project{}
	for i := len(f.order) - 1; i >= 0; i-- {
		if p := f.byID[f.order[i]]; p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjectsRepo) GetForUser(ctx context.Context, userID, id string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectsRepo) UpdateForUser(ctx context.Context, userID, id string, patch models.ProjectPatch) (*models.Project, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "UpdateForUser")
	p, ok := f.byID[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	if leavesTerminated(p.Status, patch.Status) {
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
	cp := *p
	return &cp, nil
}

func (f *fakeProjectsRepo) DeleteForUser(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProjectsRepo) ListActiveWithURL(ctx context.Context) ([]models.ProbeTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.ProbeTarget
	for _, id := range f.order {
		p, ok := f.byID[id]
		if ok && p.Status == models.StatusActive && p.URL != nil {
			out = append(out, models.ProbeTarget{ID: p.ID, URL: *p.URL, InstanceID: p.InstanceID})
		}
	}
	return out, nil
}

func (f *fakeProjectsRepo) MarkActive(ctx context.Context, id, url, instanceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "MarkActive")
	if f.writeErr != nil {
		return f.writeErr
	}
	p, ok := f.byID[id]
	if !ok || p.Status != models.StatusProvisioning {
		return common.ErrorNotFound
	}
	p.URL, p.InstanceID, p.Status = &url, &instanceID, models.StatusActive
	return nil
}

func (f *fakeProjectsRepo) SetStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "SetStatus")
	if f.writeErr != nil {
		return f.writeErr
	}
	p, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Status = status
	return nil
}

func (f *fakeProjectsRepo) TerminateByInstanceID(ctx context.Context, instanceID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	var n int64
	for _, p := range f.byID {
		if p.InstanceID != nil && *p.InstanceID == instanceID {
			p.Status = models.StatusTerminated
			n++
		}
	}
	return n, nil
}

// leavesTerminated mirrors the repository guard on status writes.
func leavesTerminated(current models.ProjectStatus, next *models.ProjectStatus) bool {
	return current == models.StatusTerminated && next != nil && *next != models.StatusTerminated
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakeProjectsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), p: newFakeProjectsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Projects(db dbx.DBTX) projectsrepo.Repository { return m.p }

// --- workflow, prober, archive ---

type workflowCall struct {
	flow   string
	inputs map[string]string
}

type fakeWorkflow struct {
	mu    sync.Mutex
	calls []workflowCall
	fn    func(flow string, inputs map[string]string) (*kestra.Execution, error)
}

func (f *fakeWorkflow) Execute(ctx context.Context, flow string, inputs map[string]string) (*kestra.Execution, error) {
	f.mu.Lock()
	f.calls = append(f.calls, workflowCall{flow: flow, inputs: inputs})
	f.mu.Unlock()
	return f.fn(flow, inputs)
}

func execution(outputs map[string]any) *kestra.Execution {
	e := &kestra.Execution{ID: "ex-1", Outputs: outputs}
	e.State.Current = "SUCCESS"
	return e
}

type probeAnswer struct {
	code int
	err  error
}

type fakeProber map[string]probeAnswer

func (f fakeProber) Probe(ctx context.Context, url string) (int, error) {
	a := f[url]
	return a.code, a.err
}

type fakeArchiver struct {
	mu      sync.Mutex
	records []archive.Record
	err     error
}

func (f *fakeArchiver) Archive(ctx context.Context, rec archive.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func strPtr(s string) *string { return &s }
