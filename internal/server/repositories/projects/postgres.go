// Package projects provides the PostgreSQL-backed project repository.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/dbx"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const projectColumns = `id, name, description, user_id, url, instance_id, status, created_at, updated_at`

// PostgresRepository implements project storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (*models.Project, error) {
	var (
		p          models.Project
		url        sql.NullString
		instanceID sql.NullString
		status     string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.UserID, &url, &instanceID, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if url.Valid {
		p.URL = &url.String
	}
	if instanceID.Valid {
		p.InstanceID = &instanceID.String
	}
	p.Status = models.ProjectStatus(status)
	return &p, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// mapWriteErr translates driver errors from statements that touch the
// instance_id unique index.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: instance id already assigned", common.ErrValidation)
	}
	return fmt.Errorf("db error: %w", err)
}

// Create inserts a project in status provisioning.
func (r *PostgresRepository) Create(ctx context.Context, userID, name, description string) (*models.Project, error) {
	query := `INSERT INTO projects (name, description, user_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + projectColumns

	p, err := scanProject(r.db.QueryRowContext(ctx, query, name, description, userID, string(models.StatusProvisioning)))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// ListByUser returns the user's projects, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// GetForUser returns common.ErrorNotFound for both missing and foreign ids.
func (r *PostgresRepository) GetForUser(ctx context.Context, userID, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE id = $1 AND user_id = $2`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// UpdateForUser applies the non-nil fields of patch and bumps updated_at.
// A status change away from terminated matches no row, so it reports
// common.ErrorNotFound like a missing project.
func (r *PostgresRepository) UpdateForUser(ctx context.Context, userID, id string, patch models.ProjectPatch) (*models.Project, error) {
	query := `UPDATE projects SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			url = COALESCE($5, url),
			instance_id = COALESCE($6, instance_id),
			status = COALESCE($7, status),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
			AND (status <> $8 OR $7::text IS NULL OR $7::text = $8)
		RETURNING ` + projectColumns

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id, userID,
		nullable(patch.Name), nullable(patch.Description), nullable(patch.URL), nullable(patch.InstanceID), nullable(status),
		string(models.StatusTerminated)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteErr(err)
	}
	return p, nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectRows(res)
}

// ListActiveWithURL returns every active project that has a url, across
// all users.
func (r *PostgresRepository) ListActiveWithURL(ctx context.Context) ([]models.ProbeTarget, error) {
	query := `SELECT id, url, instance_id FROM projects
		WHERE status = $1 AND url IS NOT NULL
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.ProbeTarget
	for rows.Next() {
		var (
			t          models.ProbeTarget
			instanceID sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.URL, &instanceID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if instanceID.Valid {
			t.InstanceID = &instanceID.String
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// MarkActive records a successful provisioning run. Only a project still
// in provisioning is updated; otherwise common.ErrorNotFound is returned.
func (r *PostgresRepository) MarkActive(ctx context.Context, id, url, instanceID string) error {
	query := `UPDATE projects
		SET url = $2, instance_id = $3, status = $4, updated_at = now()
		WHERE id = $1 AND status = $5`

	res, err := r.db.ExecContext(ctx, query, id, url, instanceID,
		string(models.StatusActive), string(models.StatusProvisioning))
	if err != nil {
		return mapWriteErr(err)
	}
	return dbx.ExpectRows(res)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	query := `UPDATE projects SET status = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectRows(res)
}

// TerminateByInstanceID marks every project carrying instanceID as
// terminated and returns how many rows matched. Zero is not an error.
func (r *PostgresRepository) TerminateByInstanceID(ctx context.Context, instanceID string) (int64, error) {
	query := `UPDATE projects SET status = $2, updated_at = now() WHERE instance_id = $1`

	res, err := r.db.ExecContext(ctx, query, instanceID, string(models.StatusTerminated))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedRows(res)
}
